package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dakhnod/fpc2534-gateway/internal/logging"
	"github.com/dakhnod/fpc2534-gateway/internal/protocol"
)

// MaxChunkSize bounds a single DATA_GET/DATA_PUT transfer chunk. The
// original client hardcodes 177, but the conservative 140 is used here —
// a deliberate deviation from literal fidelity, adopted because 140 is
// documented elsewhere as the safer value across firmware revisions.
const MaxChunkSize = 140

// responseTimeout bounds how long a finite operation waits for a single
// matching sensor response before giving up.
const responseTimeout = 10 * time.Second

// Publisher is the subset of transport.Client the coordinator depends on,
// kept as an interface so tests can substitute a fake.
type Publisher interface {
	Publish(ctx context.Context, frame []byte) error
}

// Coordinator serializes all access to one FPC2534 sensor. It is the single
// owner of the codec and of the routing decision between a finite HTTP
// operation and the background identify loop.
type Coordinator struct {
	codec *protocol.Codec
	pub   Publisher

	mu          sync.Mutex
	finiteChan  chan protocol.Response
	finiteDone  chan struct{}
	infiniteChan chan protocol.Response

	subMu       sync.Mutex
	subscribers map[chan IdentifyEvent]struct{}
	subAppeared chan struct{}
}

// IdentifyEvent is what the identify loop fans out to every subscribed
// WebSocket stream.
type IdentifyEvent struct {
	Kind       protocol.Event
	TemplateID *uint16
}

// New builds a Coordinator around codec and pub. codec is owned by the
// coordinator from this point on — callers must route Rekey calls through
// coordinator methods rather than mutating it directly, since the codec is
// read concurrently by the identify loop and by finite operations.
func New(codec *protocol.Codec, pub Publisher) *Coordinator {
	return &Coordinator{
		codec:        codec,
		pub:          pub,
		finiteDone:   make(chan struct{}),
		infiniteChan: make(chan protocol.Response, 32),
		subscribers:  make(map[chan IdentifyEvent]struct{}),
		subAppeared:  make(chan struct{}),
	}
}

// FiniteSession represents one exclusively-held finite operation. Release
// must be called exactly once, typically via defer, on every exit path
// including context cancellation and recovered panics.
type FiniteSession struct {
	ch      chan protocol.Response
	release func()
	once    sync.Once
}

// Release clears the finite slot and wakes the identify loop if it is
// waiting for the current finite operation to finish.
func (s *FiniteSession) Release() {
	s.once.Do(s.release)
}

// AcquireFinite reserves the single finite-operation slot. It returns
// ErrKindBusy if another finite operation already holds it.
func (c *Coordinator) AcquireFinite(ctx context.Context) (*FiniteSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finiteChan != nil {
		return nil, errBusy()
	}

	ch := make(chan protocol.Response, 32)
	c.finiteChan = ch

	return &FiniteSession{
		ch: ch,
		release: func() {
			c.mu.Lock()
			c.finiteChan = nil
			close(c.finiteDone)
			c.finiteDone = make(chan struct{})
			c.mu.Unlock()
		},
	}, nil
}

// finiteDoneChan returns the current generation's finiteDone signal channel.
func (c *Coordinator) finiteDoneChan() chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finiteDone
}

// Route delivers a decoded inbound frame to whichever consumer should see
// it: the in-flight finite session if one holds the slot, otherwise the
// identify loop's channel. This is the sole place routing decisions are
// made, called only from the transport ingest loop.
func (c *Coordinator) Route(resp protocol.Response) {
	c.mu.Lock()
	ch := c.finiteChan
	c.mu.Unlock()

	if ch != nil {
		select {
		case ch <- resp:
		default:
			logging.Warn("finite channel full, dropping response", zap.String("cmd", resp.Command().String()))
		}
		return
	}

	select {
	case c.infiniteChan <- resp:
	default:
		logging.Warn("infinite channel full, dropping response", zap.String("cmd", resp.Command().String()))
	}
}

// Rekey installs a new symmetric key on the shared codec. Safe to call
// concurrently with in-flight Encode/Decode calls made through coordinator
// methods, since those always read c.codec under no additional lock here —
// callers are expected to only rekey between finite operations (the HTTP
// handler for PUT /sensor/key holds the finite slot while doing so).
func (c *Coordinator) Rekey(key []byte) {
	c.codec.Rekey(key)
}

// sendAndAwait publishes one request frame and waits for the next response
// on session matching cmd, ignoring any other frames that arrive first
// (spontaneous STATUS events in particular) — except a STATUS frame
// carrying a non-zero app_fail_code, which short-circuits the wait: the
// firmware reports a command it cannot satisfy this way rather than ever
// sending the command's own reply type, so callers must be prepared to
// receive a *protocol.StatusResponse instead of the type they asked for.
func (c *Coordinator) sendAndAwait(ctx context.Context, session *FiniteSession, cmd protocol.Command, body []byte) (protocol.Response, error) {
	frame, err := c.codec.EncodeRequest(cmd, body)
	if err != nil {
		return nil, fmt.Errorf("coordinator: encoding %s: %w", cmd, err)
	}
	if err := c.pub.Publish(ctx, frame); err != nil {
		return nil, errTransport(err)
	}

	deadline := time.NewTimer(responseTimeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, errTimeout(fmt.Sprintf("no response to %s within %s", cmd, responseTimeout))
		case resp := <-session.ch:
			if resp.Command() == cmd {
				return resp, nil
			}
			if status, ok := resp.(*protocol.StatusResponse); ok && status.AppFailCode != protocol.AppFailNone {
				return status, nil
			}
			// Drop unrelated frames (e.g. STATUS events preceding the
			// direct reply) and keep waiting for the one we asked for.
		}
	}
}

// awaitNext reads the next frame routed to session without issuing a new
// request, used by operations (enroll, image capture) that keep consuming
// unsolicited events on their own private channel after the initial reply.
func (c *Coordinator) awaitNext(ctx context.Context, session *FiniteSession) (protocol.Response, error) {
	deadline := time.NewTimer(responseTimeout)
	defer deadline.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-deadline.C:
		return nil, errTimeout("no event arrived within deadline")
	case resp := <-session.ch:
		return resp, nil
	}
}

// Status issues CMD_STATUS and returns the decoded response.
func (c *Coordinator) Status(ctx context.Context, session *FiniteSession) (*protocol.StatusResponse, error) {
	resp, err := c.sendAndAwait(ctx, session, protocol.CmdStatus, nil)
	if err != nil {
		return nil, err
	}
	return resp.(*protocol.StatusResponse), nil
}

// EnsureIdle issues STATUS and, if the sensor reports any active state other
// than STATE_APP_FW_READY/STATE_SECURE_INTERFACE (which are always-on and
// don't indicate a busy sensor), aborts the current operation so subsequent
// commands start from a clean slate — mirroring the original's ensure_idle().
func (c *Coordinator) EnsureIdle(ctx context.Context, session *FiniteSession) error {
	status, err := c.Status(ctx, session)
	if err != nil {
		return err
	}
	var active []protocol.State
	for _, s := range status.States {
		if s == protocol.StateAppFWReady || s == protocol.StateSecureInterface {
			continue
		}
		active = append(active, s)
	}
	if len(active) == 0 {
		return nil
	}
	logging.Info("sensor not idle, aborting", zap.Any("states", active))
	_, err = c.sendAndAwait(ctx, session, protocol.CmdAbort, nil)
	return err
}
