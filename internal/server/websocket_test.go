package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dakhnod/fpc2534-gateway/internal/coordinator"
	"github.com/dakhnod/fpc2534-gateway/internal/protocol"
)

func TestHandleIdentifyWSStreamsEvents(t *testing.T) {
	pub := newFakePublisher()
	coord := coordinator.New(protocol.NewCodec(nil), pub)
	srv := New(Config{}, coord)
	ts := httptest.NewServer(srv.http.Handler)
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go coord.IdentifyLoop(ctx)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/sensor/identify"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	defer conn.Close()

	// IdentifyLoop wakes once a subscriber appears and issues an IDENTIFY
	// request; respond with a STATUS frame reporting STATE_IDENTIFY so it
	// broadcasts EVENT_IDENTIFY_STARTED.
	select {
	case <-pub.published:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for IDENTIFY publish")
	}
	deliverToInfinite(t, coord, statusFrame(protocol.EventNone, uint16(protocol.StateIdentify), 0))

	var got identifyEventJSON
	readDone := make(chan error, 1)
	go func() {
		readDone <- conn.ReadJSON(&got)
	}()

	select {
	case err := <-readDone:
		if err != nil {
			t.Fatalf("ReadJSON: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for identify event")
	}

	if got.Event != "EVENT_IDENTIFY_STARTED" {
		t.Errorf("Event = %q, want EVENT_IDENTIFY_STARTED", got.Event)
	}
}

func deliverToInfinite(t *testing.T, coord *coordinator.Coordinator, inner []byte) {
	t.Helper()
	resp, err := protocol.NewCodec(nil).Decode(wrapAsWire(inner))
	if err != nil {
		t.Fatalf("decoding test frame: %v", err)
	}
	coord.Route(resp)
}

func TestEventToJSONIncludesTemplateID(t *testing.T) {
	id := uint16(9)
	got := eventToJSON(coordinator.IdentifyEvent{Kind: protocol.EventFingerMatched, TemplateID: &id})
	if got.TemplateID == nil || *got.TemplateID != 9 {
		t.Errorf("TemplateID = %v, want 9", got.TemplateID)
	}
}
