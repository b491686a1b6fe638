// SPDX-License-Identifier: MIT

// Package bus is the outbound presentation bus. The engine publishes
// variant metadata, status and scope frames; the terminal UI and the
// websocket feed subscribe.
package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// Publisher is the surface the engine publishes through.
type Publisher interface {
	PublishVariant(ev VariantEvent) error
	PublishStatus(ev StatusEvent) error
	PublishTrace(ev TraceEvent) error
}

// Bus is an in-process pub/sub over watermill's go channels.
type Bus struct {
	pubSub *gochannel.GoChannel
}

var _ Publisher = (*Bus)(nil)

// New creates a bus. Publishing blocks until every subscriber acked, which
// keeps events in order per subscriber.
func New(logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = NewLoggerAdapter()
	}
	return &Bus{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer:            64,
				BlockPublishUntilSubscriberAck: true,
			},
			logger,
		),
	}
}

// PublishVariant publishes on TopicVariant.
func (b *Bus) PublishVariant(ev VariantEvent) error {
	return b.publish(TopicVariant, ev)
}

// PublishStatus publishes on TopicStatus.
func (b *Bus) PublishStatus(ev StatusEvent) error {
	return b.publish(TopicStatus, ev)
}

// PublishTrace publishes on TopicTrace.
func (b *Bus) PublishTrace(ev TraceEvent) error {
	return b.publish(TopicTrace, ev)
}

func (b *Bus) publish(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	if err := b.pubSub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe returns the messages of topic until ctx is done or the bus is
// closed. Each message must be acked.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubSub.Subscribe(ctx, topic)
}

// Close stops the bus and closes every subscription.
func (b *Bus) Close() error {
	return b.pubSub.Close()
}

// Decode acks msg and unmarshals its payload.
func Decode[T any](msg *message.Message) (T, error) {
	var v T
	msg.Ack()
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		return v, fmt.Errorf("decode message %s: %w", msg.UUID, err)
	}
	return v, nil
}
