// Package notification fans step-changed facts out to registered handlers.
// The engine only emits facts; delivering them to users is an external
// service's job, so handlers here are expected to enqueue or log, not block.
package notification

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/application/port"
)

// Handler consumes a single step-changed fact.
type Handler func(ctx context.Context, fact port.StepChangedFact)

// Dispatcher implements port.Notifier by fanning facts out to handlers
// asynchronously. Dispatch never blocks the transition that produced the
// fact, and handler failures never propagate back to the engine.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []namedHandler
	logger   *zap.Logger

	wg     sync.WaitGroup
	closed atomic.Bool
}

type namedHandler struct {
	name    string
	handler Handler
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

// Subscribe registers a named handler. Names exist for debugging only.
func (d *Dispatcher) Subscribe(name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers = append(d.handlers, namedHandler{name: name, handler: handler})
	d.logger.Info("Notification handler registered", zap.String("handler", name))
}

// StepChanged hands the fact to all handlers asynchronously, fire-and-forget.
func (d *Dispatcher) StepChanged(ctx context.Context, fact port.StepChangedFact) {
	if d.closed.Load() {
		return
	}

	d.mu.RLock()
	handlers := make([]namedHandler, len(d.handlers))
	copy(handlers, d.handlers)
	d.mu.RUnlock()

	for _, h := range handlers {
		d.wg.Add(1)
		go func(h namedHandler) {
			defer d.wg.Done()
			defer func() {
				if p := recover(); p != nil {
					d.logger.Error("Notification handler panicked",
						zap.String("handler", h.name),
						zap.Any("panic", p))
				}
			}()
			h.handler(context.WithoutCancel(ctx), fact)
		}(h)
	}
}

// Close stops dispatching and waits for in-flight handlers.
func (d *Dispatcher) Close() error {
	d.closed.Store(true)
	d.wg.Wait()
	return nil
}

// LoggingHandler records every fact to the service log. It stands in for the
// external notification service in deployments that have none.
func LoggingHandler(logger *zap.Logger) Handler {
	return func(_ context.Context, fact port.StepChangedFact) {
		logger.Info("Step changed",
			zap.Int64("instance_id", fact.InstanceID),
			zap.Int("step_number", fact.StepNumber),
			zap.String("event_kind", string(fact.EventKind)))
	}
}
