package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/dakhnod/fpc2534-gateway/internal/protocol"
)

func TestListTemplatesAppFailure(t *testing.T) {
	pub := newFakePublisher()
	co := New(protocol.NewCodec(nil), pub)

	session, err := co.AcquireFinite(context.Background())
	if err != nil {
		t.Fatalf("AcquireFinite: %v", err)
	}
	defer session.Release()

	errCh := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err := co.ListTemplates(ctx, session)
		errCh <- err
	}()

	<-pub.published
	co.Route(statusResponse(t, protocol.EventNone, 0, 1))

	cerr, ok := (<-errCh).(*Error)
	if !ok || cerr.Kind != ErrKindSensorAppFailure {
		t.Fatalf("err = %v, want ErrKindSensorAppFailure", cerr)
	}
}

func TestDownloadDataAppFailure(t *testing.T) {
	pub := newFakePublisher()
	co := New(protocol.NewCodec(nil), pub)

	session, err := co.AcquireFinite(context.Background())
	if err != nil {
		t.Fatalf("AcquireFinite: %v", err)
	}
	defer session.Release()

	errCh := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		errCh <- co.DownloadData(ctx, session, 128, func([]byte) error { return nil })
	}()

	<-pub.published
	co.Route(statusResponse(t, protocol.EventNone, 0, 1))

	cerr, ok := (<-errCh).(*Error)
	if !ok || cerr.Kind != ErrKindSensorAppFailure {
		t.Fatalf("err = %v, want ErrKindSensorAppFailure", cerr)
	}
}

func TestUploadDataAppFailure(t *testing.T) {
	pub := newFakePublisher()
	co := New(protocol.NewCodec(nil), pub)

	session, err := co.AcquireFinite(context.Background())
	if err != nil {
		t.Fatalf("AcquireFinite: %v", err)
	}
	defer session.Release()

	errCh := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		errCh <- co.UploadData(ctx, session, make([]byte, 128))
	}()

	<-pub.published
	co.Route(statusResponse(t, protocol.EventNone, 0, 1))

	cerr, ok := (<-errCh).(*Error)
	if !ok || cerr.Kind != ErrKindSensorAppFailure {
		t.Fatalf("err = %v, want ErrKindSensorAppFailure", cerr)
	}
}
