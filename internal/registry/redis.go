package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/itsneelabh/stockbrief/internal/logging"
)

// RedisRegistry stores registrations in Redis under namespaced keys with a
// TTL, so a crashed tool disappears from discovery once the TTL lapses.
type RedisRegistry struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
	logger    logging.Logger
}

// NewRedisRegistry connects to Redis and verifies the connection.
func NewRedisRegistry(redisURL, namespace string, ttl time.Duration, logger logging.Logger) (*RedisRegistry, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 5 * time.Second
	opt.WriteTimeout = 5 * time.Second

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &RedisRegistry{
		client:    client,
		namespace: namespace,
		ttl:       ttl,
		logger:    logger,
	}, nil
}

func (r *RedisRegistry) serviceKey(id string) string {
	return fmt.Sprintf("%s:services:%s", r.namespace, id)
}

func (r *RedisRegistry) capabilityKey(name string) string {
	return fmt.Sprintf("%s:capabilities:%s", r.namespace, name)
}

// Register writes the service record and capability index entries
// atomically, all with the registry TTL.
func (r *RedisRegistry) Register(ctx context.Context, info *ServiceInfo) error {
	info.Health = HealthHealthy
	info.LastSeen = time.Now()

	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal service info: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.serviceKey(info.ID), data, r.ttl)
	for _, cap := range info.Capabilities {
		key := r.capabilityKey(cap.Name)
		pipe.SAdd(ctx, key, info.ID)
		pipe.Expire(ctx, key, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to register service %s: %w", info.ID, err)
	}

	r.logger.Debug("Service registered", map[string]interface{}{
		"service_id":   info.ID,
		"service_name": info.Name,
		"capabilities": len(info.Capabilities),
		"ttl":          r.ttl.String(),
	})
	return nil
}

// Unregister removes the service record and its capability index entries.
func (r *RedisRegistry) Unregister(ctx context.Context, id string) error {
	data, err := r.client.Get(ctx, r.serviceKey(id)).Bytes()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to read service %s: %w", id, err)
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.serviceKey(id))
	if err == nil {
		var info ServiceInfo
		if jsonErr := json.Unmarshal(data, &info); jsonErr == nil {
			for _, cap := range info.Capabilities {
				pipe.SRem(ctx, r.capabilityKey(cap.Name), id)
			}
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to unregister service %s: %w", id, err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (r *RedisRegistry) Close() error {
	return r.client.Close()
}

// StartHeartbeat re-registers the service on the given interval until the
// context is canceled, keeping the TTL from expiring. It returns immediately;
// the loop runs in a goroutine.
func StartHeartbeat(ctx context.Context, reg Registry, info *ServiceInfo, interval time.Duration, logger logging.Logger) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := reg.Register(ctx, info); err != nil {
					logger.Warn("Heartbeat re-registration failed", map[string]interface{}{
						"service_id": info.ID,
						"error":      err,
					})
				}
			}
		}
	}()
}
