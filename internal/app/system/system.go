// Package system manages the lifecycle of long-running components.
package system

import (
	"context"
	"fmt"

	"github.com/hustleboard/hustleboard/internal/logging"
)

// Service is a long-running component with a managed lifecycle.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Manager starts services in registration order and stops them in
// reverse. A failed start rolls back the services already running.
type Manager struct {
	services []Service
	started  []Service
	log      *logging.Logger
}

// NewManager creates an empty manager.
func NewManager(log *logging.Logger) *Manager {
	return &Manager{log: log}
}

// Register adds a service. Not safe after Start.
func (m *Manager) Register(svc Service) {
	m.services = append(m.services, svc)
}

// Start starts all registered services.
func (m *Manager) Start(ctx context.Context) error {
	for _, svc := range m.services {
		m.log.WithField("service", svc.Name()).Info("starting service")
		if err := svc.Start(ctx); err != nil {
			m.stopStarted(ctx)
			return fmt.Errorf("start %s: %w", svc.Name(), err)
		}
		m.started = append(m.started, svc)
	}
	return nil
}

// Stop stops all running services in reverse order. The first error is
// returned but every service gets a stop attempt.
func (m *Manager) Stop(ctx context.Context) error {
	var firstErr error
	for i := len(m.started) - 1; i >= 0; i-- {
		svc := m.started[i]
		m.log.WithField("service", svc.Name()).Info("stopping service")
		if err := svc.Stop(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("stop %s: %w", svc.Name(), err)
		}
	}
	m.started = nil
	return firstErr
}

func (m *Manager) stopStarted(ctx context.Context) {
	for i := len(m.started) - 1; i >= 0; i-- {
		if err := m.started[i].Stop(ctx); err != nil {
			m.log.WithError(err).WithField("service", m.started[i].Name()).Warn("rollback stop failed")
		}
	}
	m.started = nil
}
