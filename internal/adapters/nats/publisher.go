package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/gpsart/routepainter/internal/core/domain"
)

// Subjects. Progress goes over core NATS (fire-and-forget, consumers
// only care about the latest state); completed runs go through
// JetStream so late subscribers can replay them.
const (
	subjectProgressPrefix = "routes.progress."
	subjectRunCompleted   = "routes.run.completed"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the run stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      "ROUTE_RUNS",
		Subjects:  []string{"routes.run.>"},
		Retention: nats.InterestPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist — try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishProgress publishes a progress report for an in-flight run.
func (p *Publisher) PublishProgress(ctx context.Context, progress *domain.RunProgress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return err
	}
	return p.conn.Publish(subjectProgressPrefix+progress.RunID, data)
}

// PublishRouteCompleted publishes a finished route to the run stream.
func (p *Publisher) PublishRouteCompleted(ctx context.Context, route *domain.GeneratedRoute) error {
	data, err := json.Marshal(route)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(subjectRunCompleted, data)
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
