package coordinator

import (
	"context"

	"github.com/dakhnod/fpc2534-gateway/internal/protocol"
)

// EnrollStep is one event during an enroll, surfaced to streaming HTTP
// clients as a JSON line. Kind distinguishes the two frame shapes the
// sensor interleaves during an enroll: a feedback sample ("feedback", with
// Feedback/SamplesRemaining/TemplateID set) or a spontaneous finger-contact
// event ("event", with Event set).
type EnrollStep struct {
	Kind             string                 `json:"kind"`
	Feedback         protocol.EnrollFeedback `json:"feedback,omitempty"`
	SamplesRemaining uint8                  `json:"samples_remaining,omitempty"`
	Event            protocol.Event         `json:"event,omitempty"`
	Done             bool                   `json:"done"`
	TemplateID       uint16                 `json:"template_id,omitempty"`
}

// enrollProgressFeedback are ENROLL feedback codes that report progress
// rather than a terminal outcome; anything else (DONE, the REJECT_* codes
// other than REJECT_LOW_QUALITY) ends the enroll.
var enrollProgressFeedback = map[protocol.EnrollFeedback]bool{
	protocol.EnrollFeedbackProgress:         true,
	protocol.EnrollFeedbackRejectLowQuality: true,
	protocol.EnrollFeedbackProgressImmobile: true,
}

// enrollLowInfoEvents are spontaneous STATUS events an enroll emits that
// carry no feedback of their own and are reported but never terminal.
var enrollLowInfoEvents = map[protocol.Event]bool{
	protocol.EventFingerDetect: true,
	protocol.EventImageReady:   true,
	protocol.EventFingerLost:   true,
}

// Enroll drives an enroll-any-slot operation to completion, invoking report
// for every event the sensor emits along the way. It ensures the sensor is
// idle before starting, confirms the sensor actually entered STATE_ENROLL,
// and consumes the trailing EVENT_FINGER_LOST before returning so the next
// finite operation starts from a clean slate.
func (c *Coordinator) Enroll(ctx context.Context, session *FiniteSession, templateID *uint16, report func(EnrollStep) error) error {
	if err := c.EnsureIdle(ctx, session); err != nil {
		return err
	}

	body, cmd := protocol.EncodeEnroll(templateID)
	if _, err := c.sendAndAwait(ctx, session, cmd, body); err != nil {
		return err
	}

	ack, err := c.awaitNext(ctx, session)
	if err != nil {
		return err
	}
	status, ok := ack.(*protocol.StatusResponse)
	if !ok || !protocol.HasState(status.States, protocol.StateEnroll) {
		return errNotReady("sensor did not enter enroll state")
	}

	for {
		resp, err := c.awaitNext(ctx, session)
		if err != nil {
			return err
		}

		switch v := resp.(type) {
		case *protocol.EnrollResponse:
			step := EnrollStep{
				Kind:             "feedback",
				Feedback:         v.Feedback,
				SamplesRemaining: v.SamplesRemaining,
				Done:             !enrollProgressFeedback[v.Feedback],
				TemplateID:       v.TemplateID,
			}
			if err := report(step); err != nil {
				return err
			}
			if step.Done {
				return c.awaitFingerLost(ctx, session)
			}
		case *protocol.StatusResponse:
			step := EnrollStep{Kind: "event", Event: v.Event, Done: !enrollLowInfoEvents[v.Event]}
			if err := report(step); err != nil {
				return err
			}
			if step.Done {
				return c.awaitFingerLost(ctx, session)
			}
		}
	}
}

// awaitFingerLost consumes the EVENT_FINGER_LOST the sensor sends once the
// finger is lifted after a terminal enroll feedback, matching the original
// client's post-enroll drain.
func (c *Coordinator) awaitFingerLost(ctx context.Context, session *FiniteSession) error {
	_, err := c.awaitNext(ctx, session)
	return err
}

// CaptureImage ensures idle, triggers a capture, waits for the sensor to
// report the finger has lifted, and then pulls the image if one was
// actually captured.
func (c *Coordinator) CaptureImage(ctx context.Context, session *FiniteSession) (*protocol.ImageDataResponse, error) {
	if err := c.EnsureIdle(ctx, session); err != nil {
		return nil, err
	}

	if _, err := c.sendAndAwait(ctx, session, protocol.CmdCapture, nil); err != nil {
		return nil, err
	}

	var lastStatus *protocol.StatusResponse
	for {
		resp, err := c.awaitNext(ctx, session)
		if err != nil {
			return nil, err
		}
		status, ok := resp.(*protocol.StatusResponse)
		if !ok {
			continue
		}
		lastStatus = status
		if status.Event == protocol.EventFingerLost {
			break
		}
	}

	if lastStatus == nil || !protocol.HasState(lastStatus.States, protocol.StateImageAvailable) {
		return nil, errNotReady("failed capturing image")
	}

	body, cmd := protocol.EncodeImageData()
	resp, err := c.sendAndAwait(ctx, session, cmd, body)
	if err != nil {
		return nil, err
	}
	if status, ok := resp.(*protocol.StatusResponse); ok {
		if status.AppFailCode == protocol.AppFailNoImageAvailable {
			return nil, errNotFound("no image available")
		}
		return nil, errAppFailure(uint16(status.AppFailCode))
	}
	return resp.(*protocol.ImageDataResponse), nil
}
