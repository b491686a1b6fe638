// SPDX-License-Identifier: MIT

// Package transport relays presentation bus events to sinks outside the
// process: websocket clients and the log.
package transport

import (
	"context"
	"encoding/json"
	"fmt"

	applog "codeclab/internal/log"

	"github.com/ThreeDotsLabs/watermill/message"
	"golang.org/x/sync/errgroup"
)

// Envelope is one bus event as it leaves the process.
type Envelope struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// Transport delivers envelopes. Implementations must be safe for
// concurrent use; Send must not block on slow consumers.
type Transport interface {
	Send(env Envelope) error
	Close() error
}

// Subscriber is the bus surface Forward reads from.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// Forward relays every message of topics to t until ctx is done or the
// bus closes.
func Forward(ctx context.Context, sub Subscriber, t Transport, topics ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, topic := range topics {
		msgs, err := sub.Subscribe(ctx, topic)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
		g.Go(func() error {
			for msg := range msgs {
				msg.Ack()
				if err := t.Send(Envelope{Topic: topic, Payload: json.RawMessage(msg.Payload)}); err != nil {
					applog.Warnf("Transport: send %s: %v", topic, err)
				}
			}
			return nil
		})
	}
	return g.Wait()
}
