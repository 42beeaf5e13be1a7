// Package protocol implements the FPC2534 fingerprint sensor binary protocol.
//
// This package handles encoding of outbound commands and parsing of inbound
// responses and events exchanged with an FPC2534 sensor. The sensor itself is
// not directly addressable: its bytes travel opaque over a Bluetooth Low
// Energy bridge that republishes them on an MQTT topic pair (see package
// transport). This package knows nothing about that transport; it operates
// purely on byte slices.
//
// # Wire format
//
// Every packet begins with an 8-byte little-endian envelope header:
//
//	version (u16) = 0x0004
//	type    (u16) = 0x0011
//	flags   (u16) — bit 0 SECURE, bit 4 always set on outbound frames
//	length  (u16) — byte length of what follows the header
//
// The plaintext inner frame that the header wraps (whether encrypted or not)
// is:
//
//	cmd  (u16)
//	type (u16) — 0x0011 request, 0x0012 response, 0x0013 event
//	body (variable, command-specific)
//
// When SECURE is set, the body on the wire is instead:
//
//	nonce (12 bytes) || tag (16 bytes) || ciphertext
//
// encrypted under AES-GCM with the 8-byte header as associated data.
//
// # Usage
//
//	codec := protocol.NewCodec(nil) // no key: plaintext mode
//	frame, err := codec.EncodeRequest(protocol.CmdStatus, nil)
//	...
//	resp, err := codec.Decode(inbound)
//	switch r := resp.(type) {
//	case *protocol.StatusResponse:
//	    fmt.Println(r.States)
//	}
package protocol
