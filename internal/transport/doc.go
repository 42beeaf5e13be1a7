// Package transport carries FPC2534 wire frames over the MQTT bridge that
// sits between this gateway and the sensor's BLE GATT characteristics.
//
// The gateway never talks BLE directly: a separate bridge process republishes
// GATT notifications as MQTT payloads and accepts writes the same way. Every
// payload on the wire is an opaque decimal-comma-separated byte string, e.g.
// "4,0,17,0,16,0,0,0" — this package's only job is rendering/parsing that
// string and shuttling the underlying bytes to and from package protocol.
//
// # Usage
//
//	client := transport.New(transport.Config{
//	    Host: "localhost", Port: 1883,
//	    MAC: "cb:6f:0f:38:a5:24",
//	    Service: "383f0000-...", CharTX: "383f0001-...", CharRX: "383f0002-...",
//	})
//	if err := client.Connect(ctx); err != nil { ... }
//	defer client.Close()
//	for frame := range client.Inbound() {
//	    resp, err := codec.Decode(frame)
//	    ...
//	}
package transport
