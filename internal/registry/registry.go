// Package registry publishes the tool's capability metadata so hosting agent
// frameworks can discover and invoke it. The production backend is Redis;
// registrations carry a TTL and are kept alive by a heartbeat loop.
package registry

import (
	"context"
	"time"

	"github.com/itsneelabh/stockbrief/internal/tool"
)

// HealthStatus reflects the registered component's health.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// ServiceInfo is the registration record agents read to find this tool.
type ServiceInfo struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Type         string            `json:"type"`
	Description  string            `json:"description"`
	Address      string            `json:"address"`
	Port         int               `json:"port"`
	Capabilities []tool.Capability `json:"capabilities"`
	Health       HealthStatus      `json:"health"`
	LastSeen     time.Time         `json:"last_seen"`
}

// Registry is registration-only: tools announce themselves but never
// discover other components.
type Registry interface {
	Register(ctx context.Context, info *ServiceInfo) error
	Unregister(ctx context.Context, id string) error
}
