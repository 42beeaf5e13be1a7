package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/dakhnod/fpc2534-gateway/internal/coordinator"
	"github.com/dakhnod/fpc2534-gateway/internal/protocol"
)

func (s *Server) registerRoutes(r *mux.Router) {
	r.HandleFunc("/sensor/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/sensor/templates", s.handleListTemplates).Methods(http.MethodGet)
	r.HandleFunc("/sensor/templates/{id:[0-9]+}", s.handleDownloadTemplate).Methods(http.MethodGet)
	r.HandleFunc("/sensor/templates/{id:[0-9]+}", s.handleUploadTemplate).Methods(http.MethodPut)
	r.HandleFunc("/sensor/templates/{id:[0-9]+}", s.handleDeleteTemplate).Methods(http.MethodDelete)
	r.HandleFunc("/sensor/image", s.handleImage).Methods(http.MethodGet)
	r.HandleFunc("/sensor/config/current", s.handleGetConfig(false)).Methods(http.MethodGet)
	r.HandleFunc("/sensor/config/default", s.handleGetConfig(true)).Methods(http.MethodGet)
	r.HandleFunc("/sensor/config", s.handleSetConfig).Methods(http.MethodPut, http.MethodPost)
	r.HandleFunc("/sensor/config/current", s.handleSetConfig).Methods(http.MethodPut, http.MethodPost)
	r.HandleFunc("/sensor/key", s.handleSetKey).Methods(http.MethodPut, http.MethodPost)
	r.HandleFunc("/sensor/enroll", s.handleEnroll).Methods(http.MethodPost)
	r.HandleFunc("/sensor/reset", s.handleReset).Methods(http.MethodPost)
	r.HandleFunc("/sensor/identify", s.handleIdentifyWS).Methods(http.MethodGet)
}

// statusJSON mirrors the original gateway's {event, states, app_fail_code}
// shape, rendering enum values by name rather than number to stay
// compatible with clients written against the original implementation.
type statusJSON struct {
	Event       string   `json:"event"`
	States      []string `json:"states"`
	AppFailCode string   `json:"app_fail_code"`
}

func toStatusJSON(status *protocol.StatusResponse) statusJSON {
	states := make([]string, len(status.States))
	for i, st := range status.States {
		states[i] = st.String()
	}
	return statusJSON{
		Event:       status.Event.String(),
		States:      states,
		AppFailCode: status.AppFailCode.String(),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	session, err := s.coord.AcquireFinite(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	defer session.Release()

	status, err := s.coord.Status(r.Context(), session)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusJSON(status))
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	session, err := s.coord.AcquireFinite(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	defer session.Release()

	ids, err := s.coord.ListTemplates(r.Context(), session)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"template_ids": ids})
}

func pathTemplateID(r *http.Request) (uint16, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid template id %q: %w", raw, err)
	}
	return uint16(id), nil
}

func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathTemplateID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	session, err := s.coord.AcquireFinite(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	defer session.Release()

	totalSize, err := s.coord.DownloadTemplate(r.Context(), session, id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(int(totalSize)))
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	_ = s.coord.DownloadData(r.Context(), session, uint32(totalSize), func(chunk []byte) error {
		if _, err := w.Write(chunk); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
}

func (s *Server) handleUploadTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathTemplateID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if r.ContentLength != protocol.TemplateSize {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "payload must be sized 18000"})
		return
	}

	session, err := s.coord.AcquireFinite(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	defer session.Release()

	if err := s.coord.UploadTemplate(r.Context(), session, id); err != nil {
		writeError(w, err)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, protocol.TemplateSize))
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.coord.UploadData(r.Context(), session, data); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathTemplateID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	session, err := s.coord.AcquireFinite(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	defer session.Release()

	if err := s.coord.DeleteTemplate(r.Context(), session, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	session, err := s.coord.AcquireFinite(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	defer session.Release()

	image, err := s.coord.CaptureImage(r.Context(), session)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(int(image.Size)))
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	_ = s.coord.DownloadData(r.Context(), session, image.Size, func(chunk []byte) error {
		if _, err := w.Write(chunk); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
}

// systemConfigJSON carries exactly the fields of protocol.SystemConfig and
// is used for both GET and SET. The Type and Unknown1 fields of the GET
// reply are not included (Type is stripped per the resolved open question;
// Unknown1 is never surfaced).
type systemConfigJSON struct {
	Version             uint16 `json:"version"`
	FingerScanInterval  uint16 `json:"finger_scan_interval"`
	EventAtBoot         bool   `json:"event_at_boot"`
	UARTStopMode        bool   `json:"uart_stop_mode"`
	IRQBeforeTX         bool   `json:"irq_before_tx"`
	AllowFactoryReset   bool   `json:"allow_factory_reset"`
	UARTIRQDelay        uint8  `json:"uart_irq_delay"`
	UARTBaudrate        uint8  `json:"uart_baudrate"`
	MaxConsecutiveFails uint8  `json:"max_consecutive_fails"`
	LockoutTime         uint8  `json:"lockout_time"`
	IdleBeforeSleep     uint16 `json:"idle_before_sleep"`
	EnrollTouches       uint8  `json:"enroll_touches"`
	ImmobileTouches     uint8  `json:"immobile_touches"`
	I2CAddress          uint16 `json:"i2c_address"`
}

func (s *Server) handleGetConfig(useDefault bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.coord.AcquireFinite(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		defer session.Release()

		cfg, err := s.coord.GetSystemConfig(r.Context(), session, useDefault)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, systemConfigJSON{
			Version:             cfg.Version,
			FingerScanInterval:  cfg.FingerScanInterval,
			EventAtBoot:         cfg.EventAtBoot,
			UARTStopMode:        cfg.UARTStopMode,
			IRQBeforeTX:         cfg.IRQBeforeTX,
			AllowFactoryReset:   cfg.AllowFactoryReset,
			UARTIRQDelay:        cfg.UARTIRQDelay,
			UARTBaudrate:        cfg.UARTBaudrate,
			MaxConsecutiveFails: cfg.MaxConsecutiveFails,
			LockoutTime:         cfg.LockoutTime,
			IdleBeforeSleep:     cfg.IdleBeforeSleep,
			EnrollTouches:       cfg.EnrollTouches,
			ImmobileTouches:     cfg.ImmobileTouches,
			I2CAddress:          cfg.I2CAddress,
		})
	}
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var body systemConfigJSON
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}

	session, err := s.coord.AcquireFinite(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	defer session.Release()

	cfg := protocol.SystemConfig{
		Version:             body.Version,
		FingerScanInterval:  body.FingerScanInterval,
		EventAtBoot:         body.EventAtBoot,
		UARTStopMode:        body.UARTStopMode,
		IRQBeforeTX:         body.IRQBeforeTX,
		AllowFactoryReset:   body.AllowFactoryReset,
		UARTIRQDelay:        body.UARTIRQDelay,
		UARTBaudrate:        body.UARTBaudrate,
		MaxConsecutiveFails: body.MaxConsecutiveFails,
		LockoutTime:         body.LockoutTime,
		IdleBeforeSleep:     body.IdleBeforeSleep,
		EnrollTouches:       body.EnrollTouches,
		ImmobileTouches:     body.ImmobileTouches,
		I2CAddress:          body.I2CAddress,
	}

	if err := s.coord.SetSystemConfig(r.Context(), session, cfg); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSetKey(w http.ResponseWriter, r *http.Request) {
	key, err := io.ReadAll(io.LimitReader(r.Body, 64))
	if err != nil {
		writeError(w, err)
		return
	}
	if len(key) != 16 && len(key) != 32 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "key must be of length 16 or 32"})
		return
	}

	session, err := s.coord.AcquireFinite(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	defer session.Release()

	if err := s.coord.SetCryptoKey(r.Context(), session, key); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	var templateID *uint16
	if raw := r.URL.Query().Get("template_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 16)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid template_id"})
			return
		}
		v := uint16(id)
		templateID = &v
	}

	session, err := s.coord.AcquireFinite(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	defer session.Release()

	stream := strings.Contains(r.Header.Get("Accept"), "multipart/related")

	if stream {
		w.Header().Set("Content-Type", "multipart/related")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		enc := json.NewEncoder(w)

		err := s.coord.Enroll(r.Context(), session, templateID, func(step coordinator.EnrollStep) error {
			if err := enc.Encode(step); err != nil {
				return err
			}
			if flusher != nil {
				flusher.Flush()
			}
			return nil
		})
		if err != nil {
			_ = enc.Encode(errorResponse{Error: err.Error()})
		}
		return
	}

	var terminal coordinator.EnrollStep
	err = s.coord.Enroll(r.Context(), session, templateID, func(step coordinator.EnrollStep) error {
		terminal = step
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, terminal)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	session, err := s.coord.AcquireFinite(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	defer session.Release()

	if err := s.coord.Reset(r.Context(), session); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
