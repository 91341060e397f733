package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/gpsart/routepainter/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
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
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeProgress receives progress reports for all runs over core
// NATS. Handler errors are swallowed; progress reports are lossy.
func (s *Subscriber) SubscribeProgress(ctx context.Context, handler func(ctx context.Context, p *domain.RunProgress) error) error {
	sub, err := s.conn.Subscribe(subjectProgressPrefix+">", func(msg *nats.Msg) {
		var progress domain.RunProgress
		if err := json.Unmarshal(msg.Data, &progress); err != nil {
			return
		}
		if progress.RunID == "" {
			progress.RunID = strings.TrimPrefix(msg.Subject, subjectProgressPrefix)
		}
		_ = handler(ctx, &progress)
	})
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// SubscribeRouteCompleted receives finished routes from the run stream.
func (s *Subscriber) SubscribeRouteCompleted(ctx context.Context, handler func(ctx context.Context, route *domain.GeneratedRoute) error) error {
	sub, err := s.js.Subscribe(subjectRunCompleted, func(msg *nats.Msg) {
		var route domain.GeneratedRoute
		if err := json.Unmarshal(msg.Data, &route); err != nil {
			_ = msg.Nak()
			return
		}
		if err := handler(ctx, &route); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("route-completed-processor"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
