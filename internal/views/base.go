// Package views keeps the live state behind the dashboard, kitchen board and
// delivery board: initial REST load, realtime listeners, and a short list of
// recent notifications.
package views

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-backoffice/internal/domain"
	"github.com/spec-kit/restaurant-backoffice/internal/realtime"
)

// DefaultNotificationLimit caps the recent-notifications list.
const DefaultNotificationLimit = 5

// ErrAlreadyActive is returned by Activate on a live view.
var ErrAlreadyActive = errors.New("view already active")

// Bus is the listener registry of the realtime channel.
type Bus interface {
	On(topic string, l realtime.Listener)
	Off(topic string, l realtime.Listener)
}

// Notification is one entry of the recent-notifications list.
type Notification struct {
	Kind    domain.EventKind
	Message string
	Topic   string
	At      time.Time
}

type registration struct {
	topic    string
	listener realtime.Listener
}

// base carries what every view shares: liveness, listener bookkeeping, the
// notification buffer and per-resource reload tickets.
type base struct {
	name   string
	bus    Bus
	logger *zap.Logger
	limit  int

	mu       sync.Mutex
	active   bool
	ctx      context.Context
	cancel   context.CancelFunc
	tickets  map[string]uint64
	notes    []Notification
	regs     []registration
	onChange []func()
	inflight sync.WaitGroup
}

func newBase(name string, bus Bus, logger *zap.Logger, limit int) *base {
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}
	return &base{
		name:    name,
		bus:     bus,
		logger:  logger.Named("views").With(zap.String("view", name)),
		limit:   limit,
		tickets: make(map[string]uint64),
	}
}

// start marks the view live and returns the context its requests run under.
func (b *base) start(ctx context.Context) (context.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active {
		return nil, ErrAlreadyActive
	}
	b.active = true
	b.ctx, b.cancel = context.WithCancel(ctx)
	b.notes = nil
	return b.ctx, nil
}

// listen registers fn on topic and remembers it for Deactivate. ctx is the
// activation context from start; once that activation has ended nothing is
// registered.
func (b *base) listen(ctx context.Context, topic string, fn func(ev domain.RealtimeEvent)) {
	l := realtime.Func(func(_ string, ev domain.RealtimeEvent) {
		if !b.Active() {
			return
		}
		fn(ev)
	})
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.active || b.ctx != ctx {
		b.logger.Debug("view deactivated before listening", zap.String("topic", topic))
		return
	}
	b.regs = append(b.regs, registration{topic: topic, listener: l})
	b.bus.On(topic, l)
}

// Deactivate removes every listener registered on activation, cancels
// in-flight requests and discards their results. Safe to call repeatedly.
func (b *base) Deactivate() {
	b.mu.Lock()
	regs := b.regs
	cancel := b.cancel
	wasActive := b.active
	b.regs = nil
	b.active = false
	b.cancel = nil
	b.mu.Unlock()

	for _, r := range regs {
		b.bus.Off(r.topic, r.listener)
	}
	if cancel != nil {
		cancel()
	}
	if wasActive {
		b.logger.Debug("view deactivated", zap.Int("listeners_removed", len(regs)))
	}
}

// Active reports whether the view is live.
func (b *base) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// ListenerCount reports how many listeners the view holds on the bus.
func (b *base) ListenerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.regs)
}

// OnChange registers fn to run after each applied state change.
func (b *base) OnChange(fn func()) {
	b.mu.Lock()
	b.onChange = append(b.onChange, fn)
	b.mu.Unlock()
}

// Notifications returns the recent notifications, most recent first.
func (b *base) Notifications() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Notification(nil), b.notes...)
}

// Messages returns just the human messages of Notifications.
func (b *base) Messages() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.notes))
	for _, n := range b.notes {
		out = append(out, n.Message)
	}
	return out
}

func (b *base) note(topic string, ev domain.RealtimeEvent) {
	n := Notification{Kind: ev.Kind, Message: ev.Message, Topic: topic, At: ev.Timestamp.Time}
	if n.At.IsZero() {
		n.At = time.Now()
	}
	b.mu.Lock()
	notes := make([]Notification, 0, b.limit)
	notes = append(notes, n)
	for _, prev := range b.notes {
		if len(notes) == b.limit {
			break
		}
		notes = append(notes, prev)
	}
	b.notes = notes
	b.mu.Unlock()
	b.changed()
}

// ticket starts a fetch of resource. Only the result of the newest ticket is
// applied.
func (b *base) ticket(resource string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tickets[resource]++
	return b.tickets[resource]
}

// apply runs fn under the view lock if the view is live and t is still the
// newest ticket for resource.
func (b *base) apply(resource string, t uint64, fn func()) bool {
	b.mu.Lock()
	if !b.active || b.tickets[resource] != t {
		b.mu.Unlock()
		b.logger.Debug("discarding stale result", zap.String("resource", resource))
		return false
	}
	fn()
	b.mu.Unlock()
	b.changed()
	return true
}

func (b *base) changed() {
	b.mu.Lock()
	fns := append([]func(){}, b.onChange...)
	b.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// requestContext returns the request context of the live view.
func (b *base) requestContext() context.Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx == nil {
		return context.Background()
	}
	return b.ctx
}

// background runs load off the dispatch goroutine so a slow request never
// holds up the realtime reader.
func (b *base) background(what string, load func(ctx context.Context) error) {
	ctx := b.requestContext()
	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		if err := load(ctx); err != nil && ctx.Err() == nil {
			b.logger.Warn("refresh failed", zap.String("resource", what), zap.Error(err))
		}
	}()
}

// Settle waits for background refreshes started so far.
func (b *base) Settle() {
	b.inflight.Wait()
}
