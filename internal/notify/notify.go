// Package notify surfaces human-facing notices (the toasts of the admin panel).
package notify

import (
	"sync"

	"go.uber.org/zap"
)

// Level grades a notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is one user-visible message.
type Notice struct {
	Level  Level
	Title  string
	Detail string
	// Sticky notices stay until dismissed.
	Sticky bool
}

// Notifier presents notices to the operator.
type Notifier interface {
	Notify(n Notice)
}

// LogNotifier writes notices to the structured log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier builds a notifier backed by logger.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notice")}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(notice Notice) {
	fields := []zap.Field{zap.String("level", string(notice.Level))}
	if notice.Detail != "" {
		fields = append(fields, zap.String("detail", notice.Detail))
	}
	if notice.Sticky {
		fields = append(fields, zap.Bool("sticky", true))
	}
	switch notice.Level {
	case LevelError:
		n.logger.Error(notice.Title, fields...)
	case LevelWarning:
		n.logger.Warn(notice.Title, fields...)
	default:
		n.logger.Info(notice.Title, fields...)
	}
}

// Discard drops every notice.
type Discard struct{}

// Notify implements Notifier.
func (Discard) Notify(Notice) {}

// Recorder keeps every notice it receives, optionally forwarding to Next.
type Recorder struct {
	Next Notifier

	mu      sync.Mutex
	notices []Notice
}

// Notify implements Notifier.
func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
	if r.Next != nil {
		r.Next.Notify(n)
	}
}

// Notices returns a copy of the recorded notices.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Count returns how many recorded notices have the given title.
func (r *Recorder) Count(title string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, notice := range r.notices {
		if notice.Title == title {
			n++
		}
	}
	return n
}

// Reset forgets recorded notices.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.notices = nil
	r.mu.Unlock()
}
