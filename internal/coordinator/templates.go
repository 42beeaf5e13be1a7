package coordinator

import (
	"context"
	"fmt"

	"github.com/dakhnod/fpc2534-gateway/internal/protocol"
)

// ListTemplates issues CMD_LIST_TEMPLATES and returns the enrolled ids.
func (c *Coordinator) ListTemplates(ctx context.Context, session *FiniteSession) ([]uint16, error) {
	resp, err := c.sendAndAwait(ctx, session, protocol.CmdListTemplates, nil)
	if err != nil {
		return nil, err
	}
	if status, ok := resp.(*protocol.StatusResponse); ok {
		return nil, errAppFailure(uint16(status.AppFailCode))
	}
	return resp.(*protocol.ListTemplatesResponse).TemplateIDs, nil
}

// DeleteTemplate issues CMD_DELETE_TEMPLATE for id.
func (c *Coordinator) DeleteTemplate(ctx context.Context, session *FiniteSession, id uint16) error {
	body, cmd := protocol.EncodeDeleteTemplate(id)
	_, err := c.sendAndAwait(ctx, session, cmd, body)
	return err
}

// DownloadTemplate begins a template download: it ensures the sensor is
// idle, issues CMD_GET_TEMPLATE_DATA, and returns the total size to be
// pulled via DownloadData. A 404-mapped error is returned if the sensor
// reports the template does not exist.
func (c *Coordinator) DownloadTemplate(ctx context.Context, session *FiniteSession, id uint16) (totalSize uint16, err error) {
	if err := c.EnsureIdle(ctx, session); err != nil {
		return 0, err
	}

	body, cmd := protocol.EncodeGetTemplateData(id)
	resp, err := c.sendAndAwait(ctx, session, cmd, body)
	if err != nil {
		return 0, err
	}
	if status, ok := resp.(*protocol.StatusResponse); ok {
		if status.AppFailCode == protocol.AppFailTemplateNotFound {
			return 0, errNotFound(fmt.Sprintf("template %d not found", id))
		}
		return 0, errAppFailure(uint16(status.AppFailCode))
	}
	return resp.(*protocol.GetTemplateDataResponse).TotalSize, nil
}

// DownloadData streams one bulk transfer in progress, yielding chunks to
// yield until the sensor reports zero bytes remaining.
func (c *Coordinator) DownloadData(ctx context.Context, session *FiniteSession, totalSize uint32, yield func([]byte) error) error {
	remaining := totalSize
	for remaining > 0 {
		chunkSize := remaining
		if chunkSize > MaxChunkSize {
			chunkSize = MaxChunkSize
		}
		body, cmd := protocol.EncodeDataGet(chunkSize)
		resp, err := c.sendAndAwait(ctx, session, cmd, body)
		if err != nil {
			return err
		}
		if status, ok := resp.(*protocol.StatusResponse); ok {
			return errAppFailure(uint16(status.AppFailCode))
		}
		dataGet := resp.(*protocol.DataGetResponse)
		if err := yield(dataGet.Data); err != nil {
			return err
		}
		remaining = dataGet.Remaining
	}
	return nil
}

// UploadTemplate begins a template upload into slot id. The firmware always
// expects the fixed protocol.TemplateSize buffer regardless of the actual
// template's size.
func (c *Coordinator) UploadTemplate(ctx context.Context, session *FiniteSession, id uint16) error {
	if err := c.EnsureIdle(ctx, session); err != nil {
		return err
	}

	body, cmd := protocol.EncodePutTemplateData(id, protocol.TemplateSize)
	resp, err := c.sendAndAwait(ctx, session, cmd, body)
	if err != nil {
		return err
	}
	if status, ok := resp.(*protocol.StatusResponse); ok {
		if status.AppFailCode == protocol.AppFailTemplateExists {
			return errConflict(fmt.Sprintf("template %d already exists", id))
		}
		return errAppFailure(uint16(status.AppFailCode))
	}
	return nil
}

// UploadData pushes data to the sensor in MaxChunkSize chunks, announcing
// with each chunk the bytes still to be sent, that chunk included, as the
// original protocol requires.
func (c *Coordinator) UploadData(ctx context.Context, session *FiniteSession, data []byte) error {
	remaining := uint32(len(data))
	for remaining > 0 {
		chunkSize := remaining
		if chunkSize > MaxChunkSize {
			chunkSize = MaxChunkSize
		}
		start := uint32(len(data)) - remaining
		chunk := data[start : start+chunkSize]

		body, cmd := protocol.EncodeDataPut(remaining, chunk)
		resp, err := c.sendAndAwait(ctx, session, cmd, body)
		if err != nil {
			return err
		}
		if status, ok := resp.(*protocol.StatusResponse); ok {
			return errAppFailure(uint16(status.AppFailCode))
		}
		dataPut := resp.(*protocol.DataPutResponse)
		remaining = uint32(len(data)) - dataPut.TotalReceived
	}
	return nil
}
