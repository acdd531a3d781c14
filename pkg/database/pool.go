package database

import (
	"fmt"
	"sync"
	"time"
)

// healthCheckInterval bounds how often a warm instance is pinged before reuse
const healthCheckInterval = 30 * time.Second

// pool keeps one store per process so warm serverless invocations reuse
// their connections.
type pool struct {
	mu          sync.Mutex
	instance    DatabaseInterface
	config      DatabaseConfig
	created     time.Time
	lastChecked time.Time
	reuses      int
}

var shared pool

// GetDatabase 获取共享数据库实例，配置变化或健康检查失败时重建
func GetDatabase(config DatabaseConfig) (DatabaseInterface, error) {
	return shared.get(config, NewDatabase)
}

func (p *pool) get(config DatabaseConfig, open func(DatabaseConfig) (DatabaseInterface, error)) (DatabaseInterface, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.instance != nil && p.healthy(config) {
		p.reuses++
		return p.instance, nil
	}
	if p.instance != nil {
		p.instance.Close()
		p.instance = nil
	}

	fmt.Printf("🔄 Creating new database instance\n")
	instance, err := open(config)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	p.instance, p.config, p.created, p.lastChecked, p.reuses = instance, config, now, now, 0
	return instance, nil
}

// healthy reports whether the cached instance can serve config. Caller holds p.mu.
func (p *pool) healthy(config DatabaseConfig) bool {
	if p.config != config {
		fmt.Printf("🔄 Database configuration changed, recreating connection\n")
		return false
	}
	if time.Since(p.lastChecked) < healthCheckInterval {
		return true
	}
	if err := p.instance.HealthCheck(); err != nil {
		fmt.Printf("❌ Database health check failed, recreating: %v\n", err)
		return false
	}
	p.lastChecked = time.Now()
	return true
}

// GetConnectionStats 获取共享实例状态（调试用）
func GetConnectionStats() map[string]interface{} {
	return shared.stats()
}

func (p *pool) stats() map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.instance == nil {
		return map[string]interface{}{"status": "no_connection"}
	}
	return map[string]interface{}{
		"status":       "connected",
		"created":      p.created.Format(time.RFC3339),
		"last_checked": p.lastChecked.Format(time.RFC3339),
		"reuses":       p.reuses,
		"use_local_db": p.config.UseLocalDB,
		"has_postgres": p.config.PostgresDSN != "",
	}
}
