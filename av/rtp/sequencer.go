package rtp

import (
	"iter"

	"github.com/opd-ai/toxav-h264/av/h264"
	"github.com/pion/rtp"
	"github.com/sirupsen/logrus"
)

// Sequencer numbers and queues the payloads of encoded frames.
//
// Each frame's payloads get the frame timestamp and a marker bit on the
// last one when queued. Sequence numbers are assigned as the transport
// pulls payloads with Next, so payloads discarded by Reset never consume
// one. The sequence counter persists across frames; a reopened stream gets
// a new Sequencer.
//
// Sequencer is not safe for concurrent use.
type Sequencer struct {
	sequencer rtp.Sequencer
	pool      h264.BufferPool
	queue     []*Payload
	head      int
}

// NewSequencer creates a sequencer drawing sequence numbers from seq.
//
// Parameters:
//   - seq: Source of sequence numbers, nil for a random start
//   - pool: Pool that discarded and released buffers go back to, may be nil
//
// Returns:
//   - *Sequencer: The new, empty sequencer
func NewSequencer(seq rtp.Sequencer, pool h264.BufferPool) *Sequencer {
	if seq == nil {
		seq = rtp.NewRandomSequencer()
	}
	return &Sequencer{
		sequencer: seq,
		pool:      pool,
	}
}

// Enqueue queues the payload buffers of one frame in order and returns how
// many were queued. An empty frame queues nothing.
func (s *Sequencer) Enqueue(buffers [][]byte, timestamp uint32) int {
	if len(buffers) == 0 {
		return 0
	}

	if s.head == len(s.queue) {
		s.queue = s.queue[:0]
		s.head = 0
	}

	for i, buf := range buffers {
		s.queue = append(s.queue, &Payload{
			Data:      buf,
			Timestamp: timestamp,
			Marker:    i == len(buffers)-1,
		})
	}

	logrus.WithFields(logrus.Fields{
		"function":  "Sequencer.Enqueue",
		"payloads":  len(buffers),
		"timestamp": timestamp,
		"pending":   s.Len(),
	}).Debug("Queued frame payloads")

	return len(buffers)
}

// Len returns the number of payloads waiting to be pulled.
func (s *Sequencer) Len() int {
	return len(s.queue) - s.head
}

// Next returns the oldest pending payload stamped with the next sequence
// number. The boolean is false when the queue is empty and the next frame
// has to be fed in first.
func (s *Sequencer) Next() (*Payload, bool) {
	p, ok := s.pop()
	if !ok {
		return nil, false
	}
	p.SequenceNumber = s.sequencer.NextSequenceNumber()
	return p, true
}

func (s *Sequencer) pop() (*Payload, bool) {
	if s.head == len(s.queue) {
		return nil, false
	}
	p := s.queue[s.head]
	s.queue[s.head] = nil
	s.head++
	return p, true
}

// Payloads drains the queue in generation order.
func (s *Sequencer) Payloads() iter.Seq[*Payload] {
	return func(yield func(*Payload) bool) {
		for {
			p, ok := s.Next()
			if !ok || !yield(p) {
				return
			}
		}
	}
}

// Release hands a payload's buffer back to the pool once it has been sent.
func (s *Sequencer) Release(p *Payload) {
	if p == nil || p.Data == nil {
		return
	}
	if s.pool != nil {
		s.pool.Put(p.Data)
	}
	p.Data = nil
}

// Reset discards every pending payload and returns how many were dropped.
// The next pulled payload continues right after the last one sent.
func (s *Sequencer) Reset() int {
	dropped := 0
	for p, ok := s.pop(); ok; p, ok = s.pop() {
		s.Release(p)
		dropped++
	}
	s.queue = s.queue[:0]
	s.head = 0

	if dropped > 0 {
		logrus.WithFields(logrus.Fields{
			"function": "Sequencer.Reset",
			"dropped":  dropped,
		}).Warn("Discarded pending payloads")
	}
	return dropped
}
