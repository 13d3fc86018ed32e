package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// msgPublisher is the subset of *nats.Conn the publisher needs.
type msgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

// NATSPublisher publishes events as JSON on "<prefix>.<type>" subjects and
// propagates the trace context in the message headers.
type NATSPublisher struct {
	conn   msgPublisher
	prefix string
}

// NewNATSPublisher wraps an established connection.
func NewNATSPublisher(conn msgPublisher, prefix string) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: strings.Trim(prefix, ". ")}
}

// Connect dials NATS and returns a publisher plus a close func that drains
// pending messages.
func Connect(url, prefix string) (*NATSPublisher, func(), error) {
	nc, err := nats.Connect(url,
		nats.Name("go-social-backend"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}
	closeFn := func() {
		if err := nc.Drain(); err != nil {
			nc.Close()
		}
	}
	return NewNATSPublisher(nc, prefix), closeFn, nil
}

// Subject returns the subject an event of type t is published on.
func (p *NATSPublisher) Subject(t Type) string {
	if p.prefix == "" {
		return string(t)
	}
	return p.prefix + "." + string(t)
}

// Publish implements Publisher.
func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := &nats.Msg{
		Subject: p.Subject(ev.Type),
		Data:    data,
		Header:  nats.Header{},
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("nats publish %s: %w", msg.Subject, err)
	}
	return nil
}
