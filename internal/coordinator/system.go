package coordinator

import (
	"context"

	"github.com/dakhnod/fpc2534-gateway/internal/protocol"
)

// GetSystemConfig issues CMD_GET_SYSTEM_CONFIG, optionally asking for the
// factory-default configuration instead of the currently active one.
func (c *Coordinator) GetSystemConfig(ctx context.Context, session *FiniteSession, useDefault bool) (*protocol.GetSystemConfigResponse, error) {
	body, cmd := protocol.EncodeGetSystemConfig(useDefault)
	resp, err := c.sendAndAwait(ctx, session, cmd, body)
	if err != nil {
		return nil, err
	}
	if status, ok := resp.(*protocol.StatusResponse); ok {
		return nil, errAppFailure(uint16(status.AppFailCode))
	}
	return resp.(*protocol.GetSystemConfigResponse), nil
}

// SetSystemConfig issues CMD_SET_SYSTEM_CONFIG with cfg.
func (c *Coordinator) SetSystemConfig(ctx context.Context, session *FiniteSession, cfg protocol.SystemConfig) error {
	body, cmd := protocol.EncodeSetSystemConfig(cfg)
	_, err := c.sendAndAwait(ctx, session, cmd, body)
	return err
}

// SetCryptoKey issues CMD_SET_CRYPTO_KEY with key, then installs the same
// key on the coordinator's own codec so that frames sent and received after
// this call are encoded/decoded under it. The SET_CRYPTO_KEY reply itself is
// always exchanged under the key in force before this call; only subsequent
// frames use the new one.
func (c *Coordinator) SetCryptoKey(ctx context.Context, session *FiniteSession, key []byte) error {
	body, cmd := protocol.EncodeSetCryptoKey(key)
	if _, err := c.sendAndAwait(ctx, session, cmd, body); err != nil {
		return err
	}
	c.Rekey(key)
	return nil
}

// Reset issues CMD_RESET.
func (c *Coordinator) Reset(ctx context.Context, session *FiniteSession) error {
	body, cmd := protocol.EncodeReset()
	_, err := c.sendAndAwait(ctx, session, cmd, body)
	return err
}
