package coordinator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dakhnod/fpc2534-gateway/internal/logging"
	"github.com/dakhnod/fpc2534-gateway/internal/protocol"
)

// noSubscriberRetryDelay is how long IdentifyLoop sleeps before issuing a new
// IDENTIFY after an attempt fails or its reply lacks STATE_IDENTIFY, matching
// the original's asyncio.sleep(10).
const noSubscriberRetryDelay = 10 * time.Second

// Subscribe registers a new identify subscriber and wakes the identify loop
// if it was waiting for one to appear. The returned channel receives every
// identify event until Unsubscribe is called; callers must keep draining it
// to avoid blocking the identify loop.
func (c *Coordinator) Subscribe() chan IdentifyEvent {
	ch := make(chan IdentifyEvent, 8)

	c.subMu.Lock()
	c.subscribers[ch] = struct{}{}
	close(c.subAppeared)
	c.subAppeared = make(chan struct{})
	c.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscriber previously returned by Subscribe.
func (c *Coordinator) Unsubscribe(ch chan IdentifyEvent) {
	c.subMu.Lock()
	delete(c.subscribers, ch)
	c.subMu.Unlock()
}

func (c *Coordinator) hasSubscribers() bool {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	return len(c.subscribers) > 0
}

func (c *Coordinator) subAppearedChan() chan struct{} {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	return c.subAppeared
}

func (c *Coordinator) broadcast(ev IdentifyEvent) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for ch := range c.subscribers {
		select {
		case ch <- ev:
		default:
			logging.Warn("identify subscriber channel full, dropping event")
		}
	}
}

// IdentifyLoop runs for the lifetime of the process as a single background
// goroutine. It continuously attempts CMD_IDENTIFY whenever at least one
// WebSocket client is subscribed, yielding to any finite HTTP operation in
// progress, and fans out every finger-state transition to subscribers —
// implementing the original's identify_loop algorithm verbatim.
func (c *Coordinator) IdentifyLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		if !c.hasSubscribers() {
			select {
			case <-ctx.Done():
				return
			case <-c.subAppearedChan():
			}
			continue
		}

		if done := c.finiteDoneChan(); c.finiteInFlight() {
			select {
			case <-ctx.Done():
				return
			case <-done:
			}
		}

		resp, err := c.identifyOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logging.Error("identify attempt failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(noSubscriberRetryDelay):
			}
			continue
		}

		if !protocol.HasState(resp.States, protocol.StateIdentify) {
			select {
			case <-ctx.Done():
				return
			case <-time.After(noSubscriberRetryDelay):
			}
			continue
		}

		c.broadcast(IdentifyEvent{Kind: protocol.EventIdentifyStarted})
		c.drainIdentifySession(ctx)
	}
}

func (c *Coordinator) finiteInFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finiteChan != nil
}

// identifyOnce issues one CMD_IDENTIFY request directly against the
// infinite channel — it is not a finite session, since it must be
// preemptible mid-wait by a newly arriving HTTP request.
func (c *Coordinator) identifyOnce(ctx context.Context) (*protocol.StatusResponse, error) {
	body, cmd := protocol.EncodeIdentifyAny()
	frame, err := c.codec.EncodeRequest(cmd, body)
	if err != nil {
		return nil, err
	}
	if err := c.pub.Publish(ctx, frame); err != nil {
		return nil, errTransport(err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case resp := <-c.infiniteChan:
			if status, ok := resp.(*protocol.StatusResponse); ok {
				return status, nil
			}
		}
	}
}

// drainIdentifySession loops reading frames off the infinite channel while a
// finger is in contact, fanning them out to subscribers, until either a
// finite operation preempts it or the finger lifts. The sensor interleaves
// two frame shapes here: IDENTIFY-typed replies carrying the actual match
// result (finger_found/template_id), broadcast as EVENT_FINGER_MATCHED only
// when a match was found, and spontaneous STATUS events reporting state
// transitions, each broadcast by its event — EVENT_FINGER_LOST in
// particular, which also re-arms the loop for its next CMD_IDENTIFY.
func (c *Coordinator) drainIdentifySession(ctx context.Context) {
	for {
		done := c.finiteDoneChan()
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case resp := <-c.infiniteChan:
			switch v := resp.(type) {
			case *protocol.IdentifyResponse:
				if v.FingerFound {
					c.broadcast(IdentifyEvent{Kind: protocol.EventFingerMatched, TemplateID: v.TemplateID})
				}
			case *protocol.StatusResponse:
				c.broadcast(IdentifyEvent{Kind: v.Event})
				if v.Event == protocol.EventFingerLost {
					return
				}
			}
		}
	}
}
