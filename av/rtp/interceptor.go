package rtp

import (
	"errors"
	"sync"

	"github.com/pion/interceptor"
	"github.com/sirupsen/logrus"
)

// FeedbackInterceptorFactory creates FeedbackInterceptors for a pion
// interceptor registry.
type FeedbackInterceptorFactory struct {
	handler FeedbackHandler
}

// NewFeedbackInterceptor returns a factory whose interceptors forward
// inbound PLI and FIR messages to handler.
func NewFeedbackInterceptor(handler FeedbackHandler) (*FeedbackInterceptorFactory, error) {
	if handler == nil {
		return nil, errors.New("feedback handler cannot be nil")
	}
	return &FeedbackInterceptorFactory{handler: handler}, nil
}

// NewInterceptor constructs a new FeedbackInterceptor.
func (f *FeedbackInterceptorFactory) NewInterceptor(_ string) (interceptor.Interceptor, error) {
	return &FeedbackInterceptor{
		handler: f.handler,
		streams: make(map[uint32]struct{}),
	}, nil
}

// FeedbackInterceptor watches the RTCP read path for keyframe requests
// aimed at the local streams it is bound to. With no local stream bound
// it forwards every request.
type FeedbackInterceptor struct {
	interceptor.NoOp

	handler FeedbackHandler

	mu      sync.RWMutex
	streams map[uint32]struct{}
}

// BindLocalStream records the SSRC of an outgoing stream.
func (i *FeedbackInterceptor) BindLocalStream(info *interceptor.StreamInfo, writer interceptor.RTPWriter) interceptor.RTPWriter {
	i.mu.Lock()
	i.streams[info.SSRC] = struct{}{}
	i.mu.Unlock()
	return writer
}

// UnbindLocalStream forgets an outgoing stream.
func (i *FeedbackInterceptor) UnbindLocalStream(info *interceptor.StreamInfo) {
	i.mu.Lock()
	delete(i.streams, info.SSRC)
	i.mu.Unlock()
}

func (i *FeedbackInterceptor) watches(ssrc uint32) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if len(i.streams) == 0 {
		return true
	}
	_, ok := i.streams[ssrc]
	return ok
}

// BindRTCPReader inspects every inbound RTCP packet and passes it on unchanged.
func (i *FeedbackInterceptor) BindRTCPReader(reader interceptor.RTCPReader) interceptor.RTCPReader {
	return interceptor.RTCPReaderFunc(func(b []byte, a interceptor.Attributes) (int, interceptor.Attributes, error) {
		n, attr, err := reader.Read(b, a)
		if err != nil {
			return 0, nil, err
		}
		if attr == nil {
			attr = make(interceptor.Attributes)
		}

		pkts, err := attr.GetRTCPPackets(b[:n])
		if err != nil {
			return 0, nil, err
		}

		for _, ev := range FeedbackEvents(pkts) {
			if !ev.RequestsKeyframe() || !i.watches(ev.MediaSSRC) {
				continue
			}
			accepted := i.handler.HandleFeedback(ev)
			logrus.WithFields(logrus.Fields{
				"function":   "FeedbackInterceptor.BindRTCPReader",
				"type":       ev.MessageType.String(),
				"media_ssrc": ev.MediaSSRC,
				"accepted":   accepted,
			}).Debug("Forwarded keyframe request")
		}

		return n, attr, nil
	})
}
