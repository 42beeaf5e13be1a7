package transport

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/dakhnod/fpc2534-gateway/internal/logging"
)

// connectTimeout bounds how long Connect waits for the broker handshake.
const connectTimeout = 10 * time.Second

// publishQoS is "at least once" delivery for outbound sensor commands. There
// is no teacher precedent for MQTT QoS (its own transports are QoS-less UDP
// and mDNS), so this is the ecosystem default for command delivery rather
// than a value carried over from muurk-smartap.
const publishQoS = 1

// Client is an MQTT-backed transport.Client: it publishes encoded frames to
// the bridge's inbound topic and forwards decoded frames arriving on the
// bridge's outbound topic to Inbound().
type Client struct {
	cfg    Config
	client mqtt.Client
	inbound chan []byte
}

// New constructs a Client. Connect must be called before Publish or Inbound
// produce anything.
func New(cfg Config) *Client {
	return &Client{
		cfg:     cfg,
		inbound: make(chan []byte, 32),
	}
}

// Connect dials the MQTT broker and subscribes to the sensor's RX topic.
// The underlying paho client auto-reconnects on connection loss; Connect
// itself only waits for the first handshake to complete.
func (c *Client) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.cfg.brokerURL())
	if c.cfg.ClientID != "" {
		opts.SetClientID(c.cfg.ClientID)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logging.Info("mqtt connected", zap.String("broker", c.cfg.brokerURL()))
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logging.Warn("mqtt connection lost", zap.Error(err))
	})

	c.client = mqtt.NewClient(opts)

	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("transport: connecting to %s: timed out", c.cfg.brokerURL())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("transport: connecting to %s: %w", c.cfg.brokerURL(), err)
	}

	subTopic := c.cfg.topicIn()
	subToken := c.client.Subscribe(subTopic, 1, c.handleMessage)
	if !subToken.WaitTimeout(connectTimeout) {
		return fmt.Errorf("transport: subscribing to %s: timed out", subTopic)
	}
	if err := subToken.Error(); err != nil {
		return fmt.Errorf("transport: subscribing to %s: %w", subTopic, err)
	}

	logging.Info("subscribed to sensor topic", zap.String("topic", subTopic))
	return nil
}

func (c *Client) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	frame, err := decodeWire(string(msg.Payload()))
	if err != nil {
		logging.Error("discarding malformed mqtt payload", zap.Error(err))
		return
	}
	if frame == nil {
		return
	}
	logging.LogRawBytes("inbound frame", frame)
	c.inbound <- frame
}

// Inbound returns the channel of decoded frames arriving from the sensor.
// The channel is never closed; callers select on it alongside ctx.Done().
func (c *Client) Inbound() <-chan []byte {
	return c.inbound
}

// Publish sends frame to the sensor over the bridge's inbound topic. A
// failure here is a transport failure (spec §7's TransportFailure); it is
// never retried by this method — retries beyond the paho client's own
// reconnect-and-resend-in-flight behavior are out of scope.
func (c *Client) Publish(ctx context.Context, frame []byte) error {
	if c.client == nil || !c.client.IsConnected() {
		return fmt.Errorf("transport: publish: not connected")
	}
	topic := c.cfg.topicOut()
	token := c.client.Publish(topic, publishQoS, false, encodeWire(frame))

	done := make(chan struct{})
	go func() {
		token.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("transport: publishing to %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker, waiting up to 250ms for in-flight
// packets to drain.
func (c *Client) Close() {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(250)
	}
}
