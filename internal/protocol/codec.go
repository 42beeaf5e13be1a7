package protocol

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

const (
	headerSize    = 8
	frameVersion  = 0x0004
	headerType    = 0x0011
	flagSecure    = 0x0001
	flagAlways    = 0x0010

	nonceSize = 12
	tagSize   = 16
)

// header is the 8-byte little-endian envelope wrapping every frame.
type header struct {
	version uint16
	typ     uint16
	flags   uint16
	length  uint16
}

func (h header) marshal() []byte {
	b := make([]byte, headerSize)
	binary.LittleEndian.PutUint16(b[0:2], h.version)
	binary.LittleEndian.PutUint16(b[2:4], h.typ)
	binary.LittleEndian.PutUint16(b[4:6], h.flags)
	binary.LittleEndian.PutUint16(b[6:8], h.length)
	return b
}

func parseHeader(b []byte) (header, error) {
	if len(b) < headerSize {
		return header{}, newDecodeError("short header: got %d bytes, want %d", len(b), headerSize)
	}
	return header{
		version: binary.LittleEndian.Uint16(b[0:2]),
		typ:     binary.LittleEndian.Uint16(b[2:4]),
		flags:   binary.LittleEndian.Uint16(b[4:6]),
		length:  binary.LittleEndian.Uint16(b[6:8]),
	}, nil
}

func (h header) secure() bool {
	return h.flags&flagSecure != 0
}

// Codec encodes outbound requests and decodes inbound responses/events for a
// single sensor session. It is not safe for concurrent use by multiple
// goroutines without external synchronization — callers serialize access the
// same way package coordinator does.
type Codec struct {
	key []byte // nil means plaintext mode
}

// NewCodec returns a Codec. A nil or empty key starts the codec in plaintext
// mode; call Rekey once CMD_SET_CRYPTO_KEY succeeds to switch to SECURE
// framing, mirroring the sensor's own behavior of only honoring encrypted
// frames after a key has been provisioned.
func NewCodec(key []byte) *Codec {
	c := &Codec{}
	if len(key) > 0 {
		c.key = append([]byte(nil), key...)
	}
	return c
}

// Rekey installs a new symmetric key. Passing nil reverts the codec to
// plaintext mode.
func (c *Codec) Rekey(key []byte) {
	if len(key) == 0 {
		c.key = nil
		return
	}
	c.key = append([]byte(nil), key...)
}

// Secure reports whether the codec currently has a key installed and will
// encode outbound frames as SECURE.
func (c *Codec) Secure() bool {
	return len(c.key) > 0
}

// EncodeRequest builds a complete wire frame for cmd with the given
// command-specific body (see requests.go for per-command body encoders).
func (c *Codec) EncodeRequest(cmd Command, body []byte) ([]byte, error) {
	inner := make([]byte, 4+len(body))
	binary.LittleEndian.PutUint16(inner[0:2], uint16(cmd))
	binary.LittleEndian.PutUint16(inner[2:4], uint16(FrameTypeRequest))
	copy(inner[4:], body)

	h := header{
		version: frameVersion,
		typ:     headerType,
		flags:   flagAlways,
	}

	if c.Secure() {
		h.flags |= flagSecure
		// The header is the AEAD's associated data, so its length must
		// already be the final secure length when sealing.
		h.length = uint16(nonceSize + tagSize + len(inner))
		ciphertext, nonce, tag, err := c.seal(h, inner)
		if err != nil {
			return nil, err
		}
		wireBody := make([]byte, 0, nonceSize+tagSize+len(ciphertext))
		wireBody = append(wireBody, nonce...)
		wireBody = append(wireBody, tag...)
		wireBody = append(wireBody, ciphertext...)
		return append(h.marshal(), wireBody...), nil
	}

	h.length = uint16(len(inner))
	return append(h.marshal(), inner...), nil
}

// seal encrypts plaintext under AES-GCM with h's marshaled bytes as
// associated data, returning ciphertext, the nonce used, and the tag
// separately so the caller can lay them out in the wire's nonce‖tag‖ciphertext
// order — which differs from the Go GCM implementation's native
// ciphertext‖tag output order.
func (c *Codec) seal(h header, plaintext []byte) (ciphertext, nonce, tag []byte, err error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("protocol: building AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithTagSize(block, tagSize)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("protocol: building GCM: %w", err)
	}

	nonce = make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, nil, fmt.Errorf("protocol: generating nonce: %w", err)
	}

	aad := h.marshal()
	sealed := gcm.Seal(nil, nonce, plaintext, aad)
	ct := sealed[:len(sealed)-tagSize]
	tg := sealed[len(sealed)-tagSize:]
	return ct, nonce, tg, nil
}

func (c *Codec) open(h header, wireBody []byte) ([]byte, error) {
	if !c.Secure() {
		return nil, newMissingKeyError()
	}
	if len(wireBody) < nonceSize+tagSize {
		return nil, newDecodeError("secure body too short: got %d bytes, want at least %d", len(wireBody), nonceSize+tagSize)
	}
	nonce := wireBody[:nonceSize]
	tag := wireBody[nonceSize : nonceSize+tagSize]
	ciphertext := wireBody[nonceSize+tagSize:]

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("protocol: building AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithTagSize(block, tagSize)
	if err != nil {
		return nil, fmt.Errorf("protocol: building GCM: %w", err)
	}

	aad := h.marshal()
	sealed := append(append([]byte(nil), ciphertext...), tag...)
	plaintext, err := gcm.Open(nil, nonce, sealed, aad)
	if err != nil {
		return nil, newAuthFailError(err)
	}
	return plaintext, nil
}

// Decode parses a complete inbound wire frame — header plus body, whether
// plaintext or SECURE — into a concrete Response.
func (c *Codec) Decode(wire []byte) (Response, error) {
	h, err := parseHeader(wire)
	if err != nil {
		return nil, err
	}
	body := wire[headerSize:]
	if len(body) < int(h.length) {
		return nil, newDecodeError("truncated body: got %d bytes, want %d", len(body), h.length)
	}
	body = body[:h.length]

	var inner []byte
	if h.secure() {
		inner, err = c.open(h, body)
		if err != nil {
			return nil, err
		}
	} else {
		inner = body
	}

	if len(inner) < 4 {
		return nil, newDecodeError("short inner frame: got %d bytes, want at least 4", len(inner))
	}
	cmd := Command(binary.LittleEndian.Uint16(inner[0:2]))
	frameType := FrameType(binary.LittleEndian.Uint16(inner[2:4]))
	payload := inner[4:]

	if frameType != FrameTypeResponse && frameType != FrameTypeEvent {
		return nil, newDecodeError("unexpected inner frame type 0x%04x", uint16(frameType))
	}

	parse, ok := responseParsers[cmd]
	if !ok {
		return nil, newDecodeError("unknown command 0x%04x", uint16(cmd))
	}
	return parse(payload, frameType)
}
