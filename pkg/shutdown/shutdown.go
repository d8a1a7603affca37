// Package shutdown implements a small graceful-shutdown coordinator: one or
// more ShutdownManagers signal that a shutdown was requested (a POSIX signal,
// an admin HTTP call, ...), and every registered ShutdownCallback runs before
// the process exits.
package shutdown

import (
	"sync"

	"github.com/brightpath-edu/iepforge/pkg/logger"
)

// ShutdownManager watches for a shutdown trigger and, once it fires, calls
// the coordinator's StartShutdown.
type ShutdownManager interface {
	Name() string
	Start(gs *GracefulShutdown) error
}

// ShutdownCallback runs once a shutdown has been triggered, in registration
// order. A callback returning an error does not stop the remaining
// callbacks from running.
type ShutdownCallback interface {
	Name() string
	OnShutdown(reason string) error
}

// FuncShutdownCallback adapts a plain function to ShutdownCallback.
type FuncShutdownCallback struct {
	CallbackName string
	Func         func(reason string) error
}

func (f FuncShutdownCallback) Name() string { return f.CallbackName }
func (f FuncShutdownCallback) OnShutdown(reason string) error {
	return f.Func(reason)
}

// GracefulShutdown coordinates managers and callbacks.
type GracefulShutdown struct {
	mu        sync.Mutex
	managers  []ShutdownManager
	callbacks []ShutdownCallback
}

// New builds an empty GracefulShutdown coordinator.
func New() *GracefulShutdown {
	return &GracefulShutdown{}
}

// AddShutdownManager registers a manager and starts it immediately.
func (gs *GracefulShutdown) AddShutdownManager(m ShutdownManager) error {
	gs.mu.Lock()
	gs.managers = append(gs.managers, m)
	gs.mu.Unlock()
	return m.Start(gs)
}

// AddShutdownCallback registers a callback to run on shutdown.
func (gs *GracefulShutdown) AddShutdownCallback(cb ShutdownCallback) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.callbacks = append(gs.callbacks, cb)
}

// StartShutdown is called by a ShutdownManager once it observes a trigger.
// It runs every registered callback and logs (but does not propagate)
// individual callback errors, so one misbehaving module never blocks the
// rest of the shutdown sequence.
func (gs *GracefulShutdown) StartShutdown(mgr ShutdownManager) {
	gs.mu.Lock()
	callbacks := append([]ShutdownCallback(nil), gs.callbacks...)
	gs.mu.Unlock()

	logger.Info("[Shutdown] triggered by %s", mgr.Name())
	for _, cb := range callbacks {
		if err := cb.OnShutdown(mgr.Name()); err != nil {
			logger.Error("[Shutdown] callback %s failed: %v", cb.Name(), err)
		}
	}
}
