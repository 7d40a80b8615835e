package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Conn is the part of *nats.Conn the bridge needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

type Subscriber interface {
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

type envelope struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NATSBridge forwards bus events to <prefix>.<event_type>.
type NATSBridge struct {
	conn   Conn
	prefix string
	logger *slog.Logger
}

func NewNATSBridge(conn Conn, prefix string, logger *slog.Logger) *NATSBridge {
	if prefix == "" {
		prefix = "portal"
	}
	return &NATSBridge{conn: conn, prefix: prefix, logger: logger}
}

// Connect dials NATS with reconnects enabled.
func Connect(url, name string, logger *slog.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.Timeout(10 * time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

func (b *NATSBridge) Subject(eventType string) string {
	return b.prefix + "." + eventType
}

func (b *NATSBridge) Forward(_ context.Context, event Event) error {
	data, err := json.Marshal(envelope{
		ID:        event.EventID(),
		Type:      event.EventType(),
		Timestamp: event.OccurredAt(),
		Data:      event.Payload(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := b.Subject(event.EventType())
	if err := b.conn.Publish(subject, data); err != nil {
		b.logger.Error("failed to publish event to nats",
			"subject", subject,
			"event_id", event.EventID(),
			"error", err)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("forwarded event to nats", "subject", subject, "event_id", event.EventID())
	return nil
}

func (b *NATSBridge) Register(bus *EventBus) {
	bus.Subscribe(AllEvents, b.Forward)
}

// Decode turns a bridged message back into an event.
func Decode(data []byte) (BaseEvent, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return BaseEvent{}, fmt.Errorf("failed to decode event: %w", err)
	}
	if env.Type == "" {
		return BaseEvent{}, fmt.Errorf("event has no type")
	}
	payload, _ := env.Data.(map[string]interface{})
	return BaseEvent{ID: env.ID, Type: env.Type, Timestamp: env.Timestamp, Data: payload}, nil
}

// Listen subscribes to every subject under the bridge prefix. Malformed
// messages are logged and dropped.
func (b *NATSBridge) Listen(sub Subscriber, handler Handler) (*nats.Subscription, error) {
	return sub.Subscribe(b.Subject(">"), func(msg *nats.Msg) {
		event, err := Decode(msg.Data)
		if err != nil {
			b.logger.Warn("dropping malformed event", "subject", msg.Subject, "error", err)
			return
		}
		if err := handler(context.Background(), event); err != nil {
			b.logger.Error("event handler failed", "event_type", event.Type, "event_id", event.ID, "error", err)
		}
	})
}
