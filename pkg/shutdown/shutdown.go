package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/psantana5/focusguard/pkg/logging"
)

type hook struct {
	name string
	fn   func(context.Context) error
}

// Manager handles graceful shutdown
type Manager struct {
	hooks   []hook
	mu      sync.Mutex
	timeout time.Duration
	logger  *logging.Logger
	once    sync.Once
}

// New creates a new shutdown manager
func New(timeout time.Duration, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Manager{
		timeout: timeout,
		logger:  logger,
	}
}

// Register adds a shutdown function
// Functions are called in reverse order (LIFO)
func (m *Manager) Register(name string, fn func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook{name: name, fn: fn})
}

// NotifyContext returns a context canceled on SIGINT or SIGTERM, which is
// what the service manager sends when the agent is unloaded.
func (m *Manager) NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			m.logger.Info(fmt.Sprintf("Received signal %v, shutting down", sig))
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// Shutdown executes all registered shutdown functions once. Errors are
// logged and returned in call order.
func (m *Manager) Shutdown() []error {
	var errs []error
	m.once.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		// Execute shutdown functions in reverse order (LIFO)
		for i := len(m.hooks) - 1; i >= 0; i-- {
			h := m.hooks[i]
			if err := h.fn(ctx); err != nil {
				m.logger.Error(fmt.Sprintf("Shutdown of %s failed: %v", h.name, err))
				errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
			}
		}
	})
	return errs
}
