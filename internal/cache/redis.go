// Package cache owns the process-wide Redis connection.
//
// The webhook pipeline assumes the cache is reachable; the serve command
// refuses to accept traffic until Connect succeeds.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotInitialized is returned by Client before a successful Connect.
var ErrNotInitialized = errors.New("redis client not initialized, call Connect first")

// Manager holds the single Redis client for the process lifetime.
// Components borrow the client via Client and never close it.
type Manager struct {
	mu     sync.RWMutex
	client *redis.Client
}

func NewManager() *Manager {
	return &Manager{}
}

// Connect establishes and verifies the Redis connection.
func (m *Manager) Connect(ctx context.Context, url string) error {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("connect redis: %w", err)
	}

	m.mu.Lock()
	m.client = client
	m.mu.Unlock()

	slog.Info("redis connected", "addr", opt.Addr)
	return nil
}

// Client returns the connected Redis client, or ErrNotInitialized.
func (m *Manager) Client() (*redis.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.client == nil {
		return nil, ErrNotInitialized
	}
	return m.client, nil
}

// Watch pings Redis on an interval until ctx is cancelled, logging failures.
// A lost cache connection degrades the agent side but must not take the
// webhook listener down, so failures are reported and not propagated.
func (m *Manager) Watch(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			client, err := m.Client()
			if err != nil {
				continue
			}
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err = client.Ping(pingCtx).Err()
			cancel()
			if err != nil {
				slog.Warn("redis health check failed", "error", err)
			}
		}
	}
}

// Close releases the client if one was connected.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return nil
	}
	err := m.client.Close()
	m.client = nil
	return err
}
