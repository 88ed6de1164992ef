// Package notify delivers short user-facing notices (toasts in the TUI,
// colored lines on the CLI).
package notify

import (
	"sync"
	"time"
)

// Level is the severity of a notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	}
	return "info"
}

// Notice is a single message for the operator.
type Notice struct {
	Level   Level
	Key     Key
	Message string
	Time    time.Time
}

// Notifier receives notices. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(Notice)
}

// Func adapts a function to Notifier.
type Func func(Notice)

// Notify implements Notifier.
func (f Func) Notify(n Notice) { f(n) }

// Discard drops every notice. It backs the notifications feature flag.
var Discard Notifier = Func(func(Notice) {})

// Multi fans a notice out to several notifiers.
func Multi(notifiers ...Notifier) Notifier {
	return Func(func(n Notice) {
		for _, target := range notifiers {
			if target != nil {
				target.Notify(n)
			}
		}
	})
}

// Localizer builds notices in one locale.
type Localizer struct {
	Locale string
	now    func() time.Time
}

// NewLocalizer returns a Localizer for locale, falling back to zh-CN.
func NewLocalizer(locale string) Localizer {
	if _, ok := catalog[locale]; !ok {
		locale = DefaultLocale
	}
	return Localizer{Locale: locale, now: time.Now}
}

// Notice builds a notice for key. A non-empty detail (usually a server
// provided message) replaces the catalog text.
func (l Localizer) Notice(level Level, key Key, detail string) Notice {
	msg := detail
	if msg == "" {
		msg = l.Text(key)
	}
	now := time.Now
	if l.now != nil {
		now = l.now
	}
	return Notice{Level: level, Key: key, Message: msg, Time: now()}
}

// Text returns the catalog text for key.
func (l Localizer) Text(key Key) string {
	if text, ok := catalog[l.Locale][key]; ok {
		return text
	}
	return catalog[DefaultLocale][key]
}

// Recorder keeps every notice in memory.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify implements Notifier.
func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of the recorded notices.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Keys returns the keys of recorded notices in order.
func (r *Recorder) Keys() []Key {
	notices := r.Notices()
	keys := make([]Key, len(notices))
	for i, n := range notices {
		keys[i] = n.Key
	}
	return keys
}

// Channel forwards notices to a buffered channel and drops them when the
// consumer falls behind, so a slow UI never blocks a request.
type Channel struct {
	C chan Notice
}

// NewChannel creates a Channel with the given buffer size.
func NewChannel(size int) *Channel {
	return &Channel{C: make(chan Notice, size)}
}

// Notify implements Notifier.
func (c *Channel) Notify(n Notice) {
	select {
	case c.C <- n:
	default:
	}
}
