package web

import (
	"context"
	"errors"
	"sync"

	"todoweb/internal/gateway"
	dErrors "todoweb/pkg/domain-errors"
)

// Message is one queued notification.
type Message struct {
	Level gateway.Level
	Text  string
}

// Flash queues notifications until the next page render. There is a single
// user agent per process, so one queue serves every request.
type Flash struct {
	mu    sync.Mutex
	queue []Message
}

func NewFlash() *Flash {
	return &Flash{}
}

// Notify implements gateway.Notifier.
func (f *Flash) Notify(_ context.Context, level gateway.Level, text string) {
	f.Add(level, text)
}

func (f *Flash) Add(level gateway.Level, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// The same message twice in a row (e.g. parallel calls all hitting 401) shows once.
	if n := len(f.queue); n > 0 && f.queue[n-1] == (Message{Level: level, Text: text}) {
		return
	}
	f.queue = append(f.queue, Message{Level: level, Text: text})
}

func (f *Flash) Success(text string) { f.Add(gateway.LevelSuccess, text) }
func (f *Flash) Info(text string)    { f.Add(gateway.LevelInfo, text) }
func (f *Flash) Error(text string)   { f.Add(gateway.LevelError, text) }

// Failure flashes err, or fallback when err carries no user-facing message.
// A rejected session was already announced by the gateway and a request the
// client abandoned needs no message, so both are skipped.
func (f *Flash) Failure(err error, fallback string) {
	if dErrors.HasCode(err, dErrors.CodeUnauthorized) || errors.Is(err, context.Canceled) {
		return
	}
	msg := err.Error()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		msg = fallback
	}
	f.Error(msg)
}

// Drain returns and removes every queued message.
func (f *Flash) Drain() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.queue
	f.queue = nil
	return out
}

var _ gateway.Notifier = (*Flash)(nil)
