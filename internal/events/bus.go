package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Consumer is one independent handler of an occurrence. Each invocation runs
// its own unit of work against the database; the bus gives no ordering
// guarantee between consumers of the same occurrence.
type Consumer interface {
	Name() string
	Handle(ctx context.Context, evt Event) error
}

// Bus is an in-process broadcast dispatcher: an explicit registry from
// occurrence name to the consumers subscribed at startup.
//
// Delivery contract:
//   - every registered consumer sees each published occurrence once
//   - a consumer's error or panic is logged and contained — it cannot reach
//     the publisher, roll back the publisher's committed state, or prevent
//     delivery to sibling consumers
//   - dispatch is fire-and-continue: Publish returns immediately and each
//     consumer runs in its own goroutine
//
// The registry is not a durable log: occurrences in flight when the process
// dies are lost. That trade-off is deliberate — see DESIGN.md.
type Bus struct {
	mu        sync.RWMutex
	consumers map[string][]Consumer
	inflight  sync.WaitGroup
}

func NewBus() *Bus {
	return &Bus{consumers: make(map[string][]Consumer)}
}

// Subscribe registers a consumer for one occurrence name. Called from the
// composition root before the first Publish; not safe to interleave with
// dispatch of the same name.
func (b *Bus) Subscribe(eventName string, c Consumer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consumers[eventName] = append(b.consumers[eventName], c)
}

// Publish dispatches evt to every consumer registered for its name, each in
// its own goroutine. The caller's context may belong to an HTTP request that
// finishes immediately after the triggering commit, so consumers get a
// detached context: cancellation of the request must not abort their work.
func (b *Bus) Publish(ctx context.Context, evt Event) {
	b.mu.RLock()
	registered := b.consumers[evt.Name()]
	b.mu.RUnlock()

	detached := context.WithoutCancel(ctx)
	for _, c := range registered {
		b.inflight.Add(1)
		go b.deliver(detached, c, evt)
	}
}

// Wait blocks until all in-flight deliveries finish. Used on shutdown and by
// tests that need deterministic dispatch completion.
func (b *Bus) Wait() {
	b.inflight.Wait()
}

func (b *Bus) deliver(ctx context.Context, c Consumer, evt Event) {
	defer b.inflight.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("consumer", c.Name()).
				Str("event", evt.Name()).
				Interface("panic", r).
				Msg("bus: consumer panicked")
		}
	}()

	if err := c.Handle(ctx, evt); err != nil {
		// Isolated failure: logged and abandoned, no retry, no propagation.
		log.Error().
			Str("consumer", c.Name()).
			Str("event", evt.Name()).
			Err(err).
			Msg("bus: consumer failed")
		return
	}
	log.Debug().
		Str("consumer", c.Name()).
		Str("event", evt.Name()).
		Msg("bus: delivered")
}
