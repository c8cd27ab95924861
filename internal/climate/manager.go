package climate

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Manager holds the configured proxy instances and manages their
// lifecycle as a group.
//
// All methods are thread-safe.
type Manager struct {
	proxies map[string]*Proxy
	mu      sync.RWMutex
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		proxies: make(map[string]*Proxy),
	}
}

// Add registers a proxy. Instance IDs must be unique.
func (m *Manager) Add(proxy *Proxy) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.proxies[proxy.InstanceID()]; exists {
		return fmt.Errorf("climate: duplicate instance %q", proxy.InstanceID())
	}
	m.proxies[proxy.InstanceID()] = proxy
	return nil
}

// Get returns the proxy for an instance ID.
// Returns ErrNotFound if no such instance is configured.
func (m *Manager) Get(instanceID string) (*Proxy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	proxy, ok := m.proxies[instanceID]
	if !ok {
		return nil, ErrNotFound
	}
	return proxy, nil
}

// List returns all proxies ordered by instance ID.
func (m *Manager) List() []*Proxy {
	m.mu.RLock()
	defer m.mu.RUnlock()

	proxies := make([]*Proxy, 0, len(m.proxies))
	for _, p := range m.proxies {
		proxies = append(proxies, p)
	}
	sort.Slice(proxies, func(i, j int) bool {
		return proxies[i].InstanceID() < proxies[j].InstanceID()
	})
	return proxies
}

// Count returns the number of registered proxies.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.proxies)
}

// AttachAll attaches every registered proxy.
//
// Stops at the first failure and detaches anything already attached,
// so startup is all-or-nothing.
func (m *Manager) AttachAll(ctx context.Context) error {
	proxies := m.List()

	for i, proxy := range proxies {
		if err := proxy.Attach(ctx); err != nil {
			for _, attached := range proxies[:i] {
				attached.Detach()
			}
			return fmt.Errorf("attaching %q: %w", proxy.InstanceID(), err)
		}
	}
	return nil
}

// DetachAll detaches every registered proxy. Idempotent.
func (m *Manager) DetachAll() {
	for _, proxy := range m.List() {
		proxy.Detach()
	}
}
