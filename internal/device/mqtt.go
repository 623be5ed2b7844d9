package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/i474232898/watch-weather-bridge/internal/bridge"
	"github.com/i474232898/watch-weather-bridge/internal/relay"
)

var validate = validator.New()

// MQTTConfig describes the broker the watch gateway listens on.
type MQTTConfig struct {
	Broker      string
	ClientID    string
	OutboxTopic string
	InboxTopic  string
	QoS         byte
	Timeout     time.Duration
}

// Connect opens an MQTT connection to cfg.Broker.
func Connect(cfg MQTTConfig) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.Timeout)

	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}
	return c, nil
}

// Publisher is the part of mqtt.Client the outbox needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTChannel publishes messages for the watch as JSON objects keyed by the
// numeric message keys.
type MQTTChannel struct {
	client  Publisher
	topic   string
	qos     byte
	timeout time.Duration
}

func NewMQTTChannel(client Publisher, cfg MQTTConfig) *MQTTChannel {
	return &MQTTChannel{
		client:  client,
		topic:   cfg.OutboxTopic,
		qos:     cfg.QoS,
		timeout: cfg.Timeout,
	}
}

func (c *MQTTChannel) Send(ctx context.Context, msg relay.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	token := c.client.Publish(c.topic, c.qos, false, payload)

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return fmt.Errorf("publish to %s timed out after %s", c.topic, c.timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscriber is the part of mqtt.Client the inbox needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// ErrBadRequest is returned for refresh requests that cannot be decoded.
var ErrBadRequest = errors.New("malformed refresh request")

// SubscribeRefresh forwards every message on cfg.InboxTopic to the listener
// as a refresh request. Any payload counts as a request; a JSON object may
// carry the provider key.
func SubscribeRefresh(client Subscriber, cfg MQTTConfig, listener bridge.Listener, log zerolog.Logger) error {
	log = log.With().Str("component", "mqtt-inbox").Str("topic", cfg.InboxTopic).Logger()

	token := client.Subscribe(cfg.InboxTopic, cfg.QoS, func(_ mqtt.Client, m mqtt.Message) {
		payload, err := DecodeRefresh(m.Payload())
		if err != nil {
			log.Warn().Err(err).Msg("ignoring credential in refresh request")
		}
		id := listener.OnRefreshRequested(payload)
		log.Debug().Str("run_id", id).Msg("refresh requested by device")
	})

	if !token.WaitTimeout(cfg.Timeout) {
		return fmt.Errorf("mqtt subscribe to %s timed out", cfg.InboxTopic)
	}
	return token.Error()
}

// DecodeRefresh parses a device refresh request. Empty or non-object payloads
// are plain refresh requests. On a decode or validation error the zero
// payload is returned alongside the error so the refresh still happens.
func DecodeRefresh(b []byte) (bridge.RefreshPayload, error) {
	var p bridge.RefreshPayload
	if len(b) == 0 || b[0] != '{' {
		return p, nil
	}

	if err := json.Unmarshal(b, &p); err != nil {
		return bridge.RefreshPayload{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := validate.Struct(p); err != nil {
		return bridge.RefreshPayload{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return p, nil
}
