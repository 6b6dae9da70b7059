package extension

import (
	"encoding/binary"
	"fmt"
	"math"
	"net"
	"sync"
)

// Heartbeat publishes a best-effort UDP liveness ping for the ring so
// an external supervisor can detect a stalled producer without
// attaching a ring consumer of its own. Adapted from the teacher's VMC
// sender: same OSC-style message framing and UDP plumbing, a
// different payload (ring cadence instead of bone/blendshape data).
type Heartbeat struct {
	mu      sync.Mutex
	conn    *net.UDPConn
	enabled bool
}

// NewHeartbeat dials a UDP endpoint to publish heartbeats to. An empty
// address disables the heartbeat; Send becomes a no-op.
func NewHeartbeat(address string, port int) (*Heartbeat, error) {
	if address == "" {
		return &Heartbeat{}, nil
	}

	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", address, port))
	if err != nil {
		return nil, fmt.Errorf("resolving heartbeat address: %w", err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to heartbeat endpoint: %w", err)
	}
	return &Heartbeat{conn: conn, enabled: true}, nil
}

// Send publishes one liveness ping carrying the session's stream_id,
// the last published frame number, and the observed FPS.
func (h *Heartbeat) Send(id Identity, frameNumber uint64, fps float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.enabled || h.conn == nil {
		return nil
	}

	msg := buildOSCMessage("/anoncam/heartbeat",
		id.StreamID,
		id.SessionID.String(),
		int32(frameNumber),
		float32(fps),
	)
	if _, err := h.conn.Write(msg); err != nil {
		return fmt.Errorf("sending heartbeat: %w", err)
	}
	return nil
}

// Close releases the heartbeat's UDP socket.
func (h *Heartbeat) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.enabled = false
	if h.conn != nil {
		return h.conn.Close()
	}
	return nil
}

// buildOSCMessage builds an OSC-framed message: a null-terminated,
// 4-byte-aligned address, a type-tag string, then the arguments in
// order.
func buildOSCMessage(address string, args ...interface{}) []byte {
	buf := make([]byte, 0, 64)
	buf = appendOSCString(buf, address)

	typeTag := ","
	for _, arg := range args {
		switch arg.(type) {
		case int32:
			typeTag += "i"
		case float32:
			typeTag += "f"
		case string:
			typeTag += "s"
		}
	}
	buf = appendOSCString(buf, typeTag)

	for _, arg := range args {
		switch v := arg.(type) {
		case int32:
			buf = appendInt32(buf, v)
		case float32:
			buf = appendFloat32(buf, v)
		case string:
			buf = appendOSCString(buf, v)
		}
	}
	return buf
}

func appendOSCString(buf []byte, s string) []byte {
	buf = append(buf, []byte(s)...)
	buf = append(buf, 0)
	padding := (4 - (len(s)+1)%4) % 4
	for i := 0; i < padding; i++ {
		buf = append(buf, 0)
	}
	return buf
}

func appendInt32(buf []byte, v int32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(v))
	return append(buf, b...)
}

func appendFloat32(buf []byte, v float32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, math.Float32bits(v))
	return append(buf, b...)
}
