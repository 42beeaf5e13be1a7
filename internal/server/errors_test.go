package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dakhnod/fpc2534-gateway/internal/coordinator"
	"github.com/dakhnod/fpc2534-gateway/internal/protocol"
)

func TestCoordinatorErrorStatus(t *testing.T) {
	cases := []struct {
		kind coordinator.ErrorKind
		want int
	}{
		{coordinator.ErrKindBusy, http.StatusServiceUnavailable},
		{coordinator.ErrKindNotFound, http.StatusNotFound},
		{coordinator.ErrKindConflict, http.StatusConflict},
		{coordinator.ErrKindNotReady, http.StatusInternalServerError},
		{coordinator.ErrKindTimeout, http.StatusInternalServerError},
		{coordinator.ErrKindTransportFailure, http.StatusInternalServerError},
		{coordinator.ErrKindSensorAppFailure, http.StatusInternalServerError},
	}
	for _, c := range cases {
		got := coordinatorErrorStatus(&coordinator.Error{Kind: c.kind})
		if got != c.want {
			t.Errorf("coordinatorErrorStatus(%s) = %d, want %d", c.kind, got, c.want)
		}
	}
}

func TestWriteErrorIncludesAppFailCode(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, &coordinator.Error{Kind: coordinator.ErrKindSensorAppFailure, AppFailCode: 43, Message: "no image"})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	got := rec.Body.String()
	if !strings.Contains(got, `"app_fail_code":43`) || !strings.Contains(got, `"error"`) {
		t.Errorf("body = %q, missing expected fields", got)
	}
}

func TestWriteErrorFallsBackToInternalForProtocolError(t *testing.T) {
	rec := httptest.NewRecorder()
	var perr error = &protocol.Error{Kind: protocol.ErrKindDecode, Message: "bad frame"}
	writeError(rec, fmt.Errorf("wrapped: %w", perr))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
