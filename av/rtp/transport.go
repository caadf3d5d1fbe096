package rtp

import (
	"fmt"
	"io"

	"github.com/pion/rtp"
)

// ConnWriter marshals RTP packets onto a datagram connection such as a
// connected *net.UDPConn. One Write call carries one packet.
type ConnWriter struct {
	conn io.Writer
	buf  []byte
}

// NewConnWriter wraps conn as a PacketWriter.
func NewConnWriter(conn io.Writer) *ConnWriter {
	return &ConnWriter{conn: conn}
}

// WriteRTP serializes p and writes it as a single datagram.
func (w *ConnWriter) WriteRTP(p *rtp.Packet) error {
	size := p.MarshalSize()
	if cap(w.buf) < size {
		w.buf = make([]byte, size)
	}
	w.buf = w.buf[:size]

	n, err := p.MarshalTo(w.buf)
	if err != nil {
		return fmt.Errorf("failed to marshal RTP packet: %w", err)
	}
	if _, err := w.conn.Write(w.buf[:n]); err != nil {
		return fmt.Errorf("failed to write RTP packet: %w", err)
	}
	return nil
}
