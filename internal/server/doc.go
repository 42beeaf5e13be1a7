// Package server implements the HTTP/WebSocket surface the gateway exposes
// to callers: REST endpoints for status, templates, image capture, system
// configuration, key rotation and enroll, plus a streaming WebSocket
// endpoint for continuous identification.
//
// # Routing
//
// Routes are registered with github.com/gorilla/mux. Every route funnels
// through a coordinator.Coordinator, which owns the single exclusive
// sensor resource; most handlers acquire a coordinator.FiniteSession for
// the duration of the request and release it before returning, surfacing
// coordinator.ErrKindBusy as HTTP 503 when another finite operation is
// already in flight.
//
// # WebSocket
//
// GET /sensor/identify upgrades to a WebSocket connection (via
// github.com/gorilla/websocket) and is exempt from the finite-operation
// gate: it registers a subscriber on the coordinator's background identify
// loop and streams identify events as JSON until the connection closes.
//
// # Errors
//
// internal/server/errors.go maps coordinator.Error and protocol.Error Kind
// values to HTTP status codes in one place, the same separation the
// session coordinator keeps between classifying a failure and presenting
// it.
//
// # Usage
//
//	srv := server.New(server.Config{Addr: ":8080"}, coord)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
package server
