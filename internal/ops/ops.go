// Package ops serves operational endpoints: health, API request statistics
// and Prometheus metrics.
package ops

import (
	"context"
	"sync"

	"github.com/adsctl/optimizer/internal/infra/ads"
)

// Status represents the health state of the service or a component.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
)

// Component reports one dependency's health.
type Component struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Report contains the full health report.
type Report struct {
	Status     Status      `json:"status"`
	Components []Component `json:"components"`
}

// StatsProvider exposes per-account request statistics.
type StatsProvider interface {
	// StatsSnapshots returns a snapshot per account ID.
	StatsSnapshots() map[string]ads.StatsSnapshot

	// ResetStats zeroes all counters and restarts the windows.
	ResetStats()
}

// Monitor runs registered dependency checks on demand.
type Monitor struct {
	mu     sync.RWMutex
	checks []namedCheck
}

type namedCheck struct {
	name  string
	check func(ctx context.Context) error
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

// Register adds a named dependency check. Registration order is the report
// order.
func (m *Monitor) Register(name string, check func(ctx context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks = append(m.checks, namedCheck{name: name, check: check})
}

// Check runs every registered check. Any failing component degrades the
// overall status.
func (m *Monitor) Check(ctx context.Context) Report {
	m.mu.RLock()
	checks := make([]namedCheck, len(m.checks))
	copy(checks, m.checks)
	m.mu.RUnlock()

	report := Report{Status: StatusHealthy, Components: []Component{}}
	for _, c := range checks {
		component := Component{Name: c.name, Status: StatusHealthy}
		if err := c.check(ctx); err != nil {
			component.Status = StatusDegraded
			component.Error = err.Error()
			report.Status = StatusDegraded
		}
		report.Components = append(report.Components, component)
	}
	return report
}
