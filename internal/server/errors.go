package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dakhnod/fpc2534-gateway/internal/coordinator"
	"github.com/dakhnod/fpc2534-gateway/internal/logging"
	"github.com/dakhnod/fpc2534-gateway/internal/protocol"
)

// errorResponse is the JSON body written for every non-2xx response.
type errorResponse struct {
	Error       string `json:"error"`
	AppFailCode *int   `json:"app_fail_code,omitempty"`
}

// writeError maps err to an HTTP status following spec §7's propagation
// policy — a coordinator.Error's Kind carries the classification, falling
// through to 500 for anything unrecognized — and writes a JSON body.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	resp := errorResponse{Error: err.Error()}

	var cerr *coordinator.Error
	var perr *protocol.Error
	switch {
	case errors.As(err, &cerr):
		status = coordinatorErrorStatus(cerr)
		if cerr.Kind == coordinator.ErrKindSensorAppFailure {
			code := int(cerr.AppFailCode)
			resp.AppFailCode = &code
		}
	case errors.As(err, &perr):
		status = http.StatusInternalServerError
	}

	logging.Warn("request failed", zap.Int("status", status), zap.Error(err))

	writeJSON(w, status, resp)
}

func coordinatorErrorStatus(err *coordinator.Error) int {
	switch err.Kind {
	case coordinator.ErrKindBusy:
		return http.StatusServiceUnavailable
	case coordinator.ErrKindNotFound:
		return http.StatusNotFound
	case coordinator.ErrKindConflict:
		return http.StatusConflict
	case coordinator.ErrKindNotReady:
		return http.StatusInternalServerError
	case coordinator.ErrKindTimeout, coordinator.ErrKindTransportFailure, coordinator.ErrKindSensorAppFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed encoding response body", zap.Error(err))
	}
}
