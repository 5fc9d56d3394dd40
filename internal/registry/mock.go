package registry

import (
	"context"
	"sync"
	"time"
)

// MockRegistry is an in-memory Registry for development and tests.
type MockRegistry struct {
	mu       sync.RWMutex
	services map[string]*ServiceInfo
}

// NewMockRegistry creates an empty in-memory registry.
func NewMockRegistry() *MockRegistry {
	return &MockRegistry{services: make(map[string]*ServiceInfo)}
}

func (m *MockRegistry) Register(ctx context.Context, info *ServiceInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *info
	copied.Health = HealthHealthy
	copied.LastSeen = time.Now()
	m.services[info.ID] = &copied
	return nil
}

func (m *MockRegistry) Unregister(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.services, id)
	return nil
}

// Get returns a registered service, for test assertions.
func (m *MockRegistry) Get(id string) (*ServiceInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.services[id]
	return info, ok
}
