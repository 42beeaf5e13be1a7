// Package logging provides structured logging for the fingerprint gateway.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the gateway. It provides both general logging
// functions and specialized functions for HTTP/WebSocket and MQTT framing.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (raw frame hex dumps, sensor state)
//   - Info: Normal operations (connections, sensor commands, state changes)
//   - Warn: Non-fatal issues (dropped frames, connection drops)
//   - Error: Fatal issues (startup failures, critical errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("sensor command sent",
//	    zap.String("cmd", cmd.String()),
//	    zap.Int("body_len", len(body)),
//	)
//
// # Specialized Logging
//
// Connection Logging:
//
//	logging.LogConnection(remoteAddr, "websocket_upgraded")
//	logging.LogConnection(remoteAddr, "websocket_closed")
//
// HTTP Request/Response Logging:
//
//	logging.LogHTTPRequest(remoteAddr, r.Method, r.URL.Path, headers)
//	logging.LogHTTPResponse(remoteAddr, statusCode, headers)
//
// Raw Frame Logging:
//
//	logging.LogRawBytes("inbound frame", frame)
//
// # Configuration
//
// Initialize logging at process startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Output Format
//
// Logs are written to stdout in console format (human-readable), one line
// per entry with the time, a colorized level, the caller, the message and
// the structured fields as JSON:
//
//	2026-07-29T10:30:45.123-0800	INFO	logging/logger.go:91	connection event	{"remote_addr": "192.168.1.100", "event": "websocket_upgraded"}
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
