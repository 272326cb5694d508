package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/tripfootprint/internal/core/domain"
)

// DefaultDurable is the consumer name shared by worker replicas.
const DefaultDurable = "footprint-worker"

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn       *nats.Conn
	js         nats.JetStreamContext
	durable    string
	maxDeliver int
	subs       []*nats.Subscription
}

// NewSubscriber connects to NATS and makes sure the streams exist.
func NewSubscriber(url, durable string, maxDeliver int) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	if err := EnsureStreams(js); err != nil {
		conn.Close()
		return nil, err
	}
	if durable == "" {
		durable = DefaultDurable
	}
	if maxDeliver <= 0 {
		maxDeliver = 5
	}
	return &Subscriber{conn: conn, js: js, durable: durable, maxDeliver: maxDeliver}, nil
}

// SubscribeFootprintRequests delivers queued requests to handler. Messages
// that can never succeed are terminated instead of redelivered.
func (s *Subscriber) SubscribeFootprintRequests(ctx context.Context, handler func(ctx context.Context, req *domain.FootprintRequest) error) error {
	sub, err := s.js.QueueSubscribe(SubjectRequests, s.durable, func(msg *nats.Msg) {
		_ = Settle(msg, decodeAndHandle(ctx, msg.Data, handler))
	},
		nats.Durable(s.durable),
		nats.ManualAck(),
		nats.AckExplicit(),
		nats.MaxDeliver(s.maxDeliver),
		nats.DeliverAll(),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

var errBadPayload = fmt.Errorf("%w: undecodable footprint request", domain.ErrMissingItinerary)

func decodeAndHandle(ctx context.Context, data []byte, handler func(ctx context.Context, req *domain.FootprintRequest) error) error {
	var req domain.FootprintRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("%w: %v", errBadPayload, err)
	}
	return handler(ctx, &req)
}

// Acker is the part of *nats.Msg used to settle a delivery.
type Acker interface {
	Ack(opts ...nats.AckOpt) error
	Nak(opts ...nats.AckOpt) error
	Term(opts ...nats.AckOpt) error
}

// Settle acknowledges msg according to the handler result.
func Settle(msg Acker, err error) error {
	switch {
	case err == nil:
		return msg.Ack()
	case domain.IsInvalidInput(err):
		slog.Warn("dropping footprint request", "error", err)
		return msg.Term()
	default:
		slog.Error("footprint request failed, will retry", "error", err)
		return msg.Nak()
	}
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
