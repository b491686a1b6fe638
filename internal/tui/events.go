// SPDX-License-Identifier: MIT
package tui

import (
	"context"
	"fmt"
	"sync"

	"codeclab/internal/bus"
	applog "codeclab/internal/log"

	"github.com/ThreeDotsLabs/watermill/message"
	tea "github.com/charmbracelet/bubbletea"
)

// Subscriber is the bus surface the UI reads from.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

type statusMsg bus.StatusEvent
type variantMsg bus.VariantEvent
type traceMsg bus.TraceEvent
type eventsClosedMsg struct{}

// Listen decodes bus events into UI messages until ctx is done or the bus
// closes. Trace frames are dropped while the UI lags behind.
func Listen(ctx context.Context, sub Subscriber) (<-chan tea.Msg, error) {
	out := make(chan tea.Msg, 64)
	var wg sync.WaitGroup

	for _, topic := range []string{bus.TopicVariant, bus.TopicStatus, bus.TopicTrace} {
		msgs, err := sub.Subscribe(ctx, topic)
		if err != nil {
			return nil, fmt.Errorf("subscribe %s: %w", topic, err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range msgs {
				m, err := decode(topic, msg)
				if err != nil {
					applog.Warnf("TUI: %v", err)
					continue
				}
				if topic == bus.TopicTrace {
					select {
					case out <- m:
					default:
					}
					continue
				}
				select {
				case out <- m:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out, nil
}

func decode(topic string, msg *message.Message) (tea.Msg, error) {
	switch topic {
	case bus.TopicStatus:
		ev, err := bus.Decode[bus.StatusEvent](msg)
		return statusMsg(ev), err
	case bus.TopicVariant:
		ev, err := bus.Decode[bus.VariantEvent](msg)
		return variantMsg(ev), err
	case bus.TopicTrace:
		ev, err := bus.Decode[bus.TraceEvent](msg)
		return traceMsg(ev), err
	default:
		msg.Ack()
		return nil, fmt.Errorf("unexpected topic %s", topic)
	}
}

// waitForEvent delivers the next bus event to Update.
func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return msg
	}
}
