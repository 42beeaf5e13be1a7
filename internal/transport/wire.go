package transport

import (
	"fmt"
	"strconv"
	"strings"
)

// encodeWire renders frame as the comma-separated decimal byte string the
// BLE bridge expects on the wire, e.g. []byte{4, 0, 17} -> "4,0,17".
func encodeWire(frame []byte) string {
	parts := make([]string, len(frame))
	for i, b := range frame {
		parts[i] = strconv.Itoa(int(b))
	}
	return strings.Join(parts, ",")
}

// decodeWire parses the bridge's comma-separated decimal byte string back
// into raw frame bytes.
func decodeWire(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, nil
	}
	fields := strings.Split(payload, ",")
	frame := make([]byte, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("transport: decoding byte %d (%q): %w", i, f, err)
		}
		if n < 0 || n > 255 {
			return nil, fmt.Errorf("transport: byte %d out of range: %d", i, n)
		}
		frame[i] = byte(n)
	}
	return frame, nil
}
