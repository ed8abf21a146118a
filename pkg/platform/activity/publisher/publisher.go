// Package publisher provides the general-purpose activity emitter and query
// facade over an activity store. Synchronous by default; WithAsyncBuffer
// switches emission to a buffered background worker that drains on Close.
//
// Services with category-specific delivery requirements should prefer the
// right-sized publishers (compliance, security, ops) via the recorder.
package publisher

import (
	"context"
	"errors"
	"sync"
	"time"

	id "conforma/pkg/domain"
	"conforma/pkg/platform/activity"
)

// ErrBufferFull is returned by Emit in async mode when the buffer has no room
// and the caller's context is still live.
var ErrBufferFull = errors.New("activity buffer full")

// Publisher emits activity events to a store and serves reads from it.
type Publisher struct {
	store activity.Store

	inbox     chan activity.Event
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous emission through a buffer of the given
// size. Events are persisted by a background worker; Close drains the buffer.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.inbox = make(chan activity.Event, size)
		}
	}
}

// NewPublisher creates a publisher over the given store.
func NewPublisher(store activity.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for event := range p.inbox {
		// Persistence errors are swallowed in async mode: the caller has
		// already moved on. Callers needing fail-closed semantics must use
		// sync mode or the compliance publisher.
		_ = p.store.Append(context.Background(), event)
	}
}

// Emit records an activity event. A zero timestamp is stamped with the current
// time. In sync mode the event is persisted before Emit returns; in async mode
// Emit enqueues and returns, failing with ErrBufferFull when the buffer is
// full, or the context error when ctx is done.
func (p *Publisher) Emit(ctx context.Context, event activity.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = activity.Action(event.Action).Category()
	}

	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}

	select {
	case p.inbox <- event:
		return nil
	default:
	}

	select {
	case p.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBufferFull
	}
}

// List returns the activity trail for a company.
func (p *Publisher) List(ctx context.Context, companyID id.CompanyID) ([]activity.Event, error) {
	return p.store.ListByCompany(ctx, companyID)
}

// Close stops the async worker after draining buffered events. Safe to call
// multiple times; a no-op in sync mode.
func (p *Publisher) Close() error {
	p.closeOnce.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			p.wg.Wait()
		}
	})
	return nil
}
