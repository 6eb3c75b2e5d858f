package realtime

import "github.com/spec-kit/restaurant-backoffice/internal/domain"

// Listener receives events dispatched for a topic. Registration is by
// identity, so implementations must be comparable; pointer types are.
type Listener interface {
	OnEvent(topic string, ev domain.RealtimeEvent)
}

// FuncListener gives a function a stable identity. Keep the pointer returned
// by Func to unregister it later.
type FuncListener struct {
	fn func(topic string, ev domain.RealtimeEvent)
}

// Func wraps fn in a new listener.
func Func(fn func(topic string, ev domain.RealtimeEvent)) *FuncListener {
	return &FuncListener{fn: fn}
}

// OnEvent implements Listener.
func (f *FuncListener) OnEvent(topic string, ev domain.RealtimeEvent) {
	f.fn(topic, ev)
}
