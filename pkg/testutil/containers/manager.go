//go:build integration

package containers

import (
	"sync"
	"testing"
)

// Manager hands out one container per backend for the whole test binary.
// Suites share them and isolate themselves by truncating or flushing.
type Manager struct {
	pgOnce sync.Once
	pg     *PostgresContainer

	redisOnce sync.Once
	redis     *RedisContainer

	kafkaOnce sync.Once
	kafka     *RedpandaContainer
}

var manager = &Manager{}

// GetManager returns the process-wide container manager.
func GetManager() *Manager {
	return manager
}

func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	m.pgOnce.Do(func() { m.pg = NewPostgresContainer(t) })
	if m.pg == nil {
		t.Fatal("postgres container failed to start earlier")
	}
	return m.pg
}

func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	t.Helper()
	m.redisOnce.Do(func() { m.redis = NewRedisContainer(t) })
	if m.redis == nil {
		t.Fatal("redis container failed to start earlier")
	}
	return m.redis
}

func (m *Manager) GetRedpanda(t *testing.T) *RedpandaContainer {
	t.Helper()
	m.kafkaOnce.Do(func() { m.kafka = NewRedpandaContainer(t) })
	if m.kafka == nil {
		t.Fatal("redpanda container failed to start earlier")
	}
	return m.kafka
}
