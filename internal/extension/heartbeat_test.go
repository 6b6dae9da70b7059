package extension

import (
	"bytes"
	"testing"
)

func TestBuildOSCMessage(t *testing.T) {
	tests := []struct {
		name    string
		address string
		args    []interface{}
	}{
		{name: "address only", address: "/test", args: nil},
		{name: "with string", address: "/test/string", args: []interface{}{"hello"}},
		{name: "with int", address: "/test/int", args: []interface{}{int32(42)}},
		{name: "with float", address: "/test/float", args: []interface{}{float32(3.14)}},
		{name: "mixed args", address: "/anoncam/heartbeat", args: []interface{}{"com.anoncam.stream.source", int32(7), float32(29.5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := buildOSCMessage(tt.address, tt.args...)
			if len(msg) == 0 {
				t.Error("expected non-empty message")
			}
			if !bytes.HasPrefix(msg, []byte(tt.address)) {
				t.Error("message should start with address")
			}
		})
	}
}

func TestAppendOSCString(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"", 4},
		{"a", 4},
		{"ab", 4},
		{"abc", 4},
		{"abcd", 8},
	}

	for _, tt := range tests {
		buf := appendOSCString(nil, tt.input)
		if len(buf) != tt.expected {
			t.Errorf("appendOSCString(%q) = len %d, want %d", tt.input, len(buf), tt.expected)
		}
		if buf[len(tt.input)] != 0 {
			t.Errorf("expected null terminator at position %d", len(tt.input))
		}
	}
}

func TestAppendInt32(t *testing.T) {
	buf := appendInt32(nil, 0x12345678)
	expected := []byte{0x12, 0x34, 0x56, 0x78}
	if !bytes.Equal(buf, expected) {
		t.Errorf("got %v, want %v", buf, expected)
	}
}

func TestAppendFloat32(t *testing.T) {
	buf := appendFloat32(nil, 1.0)
	expected := []byte{0x3F, 0x80, 0x00, 0x00}
	if !bytes.Equal(buf, expected) {
		t.Errorf("got %v, want %v", buf, expected)
	}
}

func TestHeartbeatWithEmptyAddressIsNoop(t *testing.T) {
	h, err := NewHeartbeat("", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id := NewIdentity()
	if err := h.Send(id, 1, 30); err != nil {
		t.Errorf("disabled heartbeat should not error: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("closing a disabled heartbeat should not error: %v", err)
	}
}
