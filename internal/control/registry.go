package control

import (
	"sort"
	"sync"

	"github.com/adsctl/optimizer/internal/infra/ads"
	"github.com/adsctl/optimizer/internal/optimize"
	"github.com/adsctl/optimizer/internal/syncer"
)

// Account bundles everything the service holds for one managed account: its
// executor, the REST source, a model engine with the account's own pipelines
// and the metrics sync worker. Pipelines and artifact scopes are never shared
// across accounts.
type Account struct {
	ID       string
	Name     string
	Executor *ads.Executor
	Source   ads.Source
	Applier  ads.ChangeApplier
	Engine   *optimize.Engine
	Syncer   *syncer.Syncer
}

// BuildFunc constructs the bundle for one account ID.
type BuildFunc func(id, name string) (*Account, error)

// Registry maps account IDs to their bundles. Accounts from config are
// registered at startup; unknown IDs are built lazily on first use so CLI
// commands can target accounts that were never configured.
type Registry struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	build    BuildFunc
}

// NewRegistry creates an empty registry backed by build.
func NewRegistry(build BuildFunc) *Registry {
	return &Registry{
		accounts: make(map[string]*Account),
		build:    build,
	}
}

// Register builds and stores the bundle for an account. An already
// registered ID returns the existing bundle unchanged.
func (r *Registry) Register(id, name string) (*Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if acct, ok := r.accounts[id]; ok {
		return acct, nil
	}
	acct, err := r.build(id, name)
	if err != nil {
		return nil, err
	}
	r.accounts[id] = acct
	return acct, nil
}

// Get returns the bundle for id, building it on first use.
func (r *Registry) Get(id string) (*Account, error) {
	r.mu.RLock()
	acct, ok := r.accounts[id]
	r.mu.RUnlock()
	if ok {
		return acct, nil
	}
	return r.Register(id, "")
}

// All returns the registered bundles ordered by account ID.
func (r *Registry) All() []*Account {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := make([]*Account, 0, len(r.accounts))
	for _, acct := range r.accounts {
		accounts = append(accounts, acct)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts
}

// StatsSnapshots returns each account's request counters keyed by account ID.
func (r *Registry) StatsSnapshots() map[string]ads.StatsSnapshot {
	out := make(map[string]ads.StatsSnapshot)
	for _, acct := range r.All() {
		out[acct.ID] = acct.Executor.Stats().Snapshot()
	}
	return out
}

// ResetStats zeroes every account's counters and restarts their windows.
func (r *Registry) ResetStats() {
	for _, acct := range r.All() {
		acct.Executor.Stats().Reset()
	}
}
