package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrLoopStopped is returned by Call once the loop has exited.
var ErrLoopStopped = errors.New("daemon loop stopped")

// Loop runs posted closures one at a time on a single goroutine. Every
// piece of display state is touched only from inside the loop.
type Loop struct {
	queue  chan func()
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

// NewLoop creates a loop with a queue of size pending closures.
func NewLoop(size int, logger *slog.Logger) *Loop {
	if size <= 0 {
		size = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		queue:  make(chan func(), size),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Post queues fn. It blocks while the queue is full and reports false if
// the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Dispatch is Post without the result, for use as a callback sink.
func (l *Loop) Dispatch(fn func()) {
	if !l.Post(fn) {
		l.logger.Debug("dropped callback after loop stop")
	}
}

// Call runs fn on the loop and waits for its result. It must not be called
// from inside the loop.
func (l *Loop) Call(fn func() error) error {
	result := make(chan error, 1)
	if !l.Post(func() { result <- fn() }) {
		return ErrLoopStopped
	}
	select {
	case err := <-result:
		return err
	case <-l.done:
		// The closure may have run just before shutdown.
		select {
		case err := <-result:
			return err
		default:
			return ErrLoopStopped
		}
	}
}

// Run executes posted closures until ctx is cancelled. A panicking closure
// is logged and does not stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.queue:
			l.run(fn)
		}
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("daemon loop panic recovered", "error", fmt.Sprint(r))
		}
	}()
	fn()
}
