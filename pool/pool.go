// Package pool implements the client-side connection pool keyed by
// ConnectionKey: a per-key FIFO of idle connections with lifetime/idle-time
// health eviction, a background sweep, and hit/miss/eviction statistics.
// It is generic over the pooled connection type so the same shape serves
// both *connection.Stream and a database driver's connection handle.
package pool

import (
	"sync"
	"time"

	"github.com/cespare/xxhash"
)

// Config tunes a Pool's limits.
type Config struct {
	MaxIdlePerKey     int
	MaxLifetime       time.Duration
	IdleTimeout       time.Duration
	ConnectionTimeout time.Duration
	EnablePooling     bool
}

// DefaultConfig matches the original's defaults: 32 idle per key, a 5
// minute max lifetime, a 90 second idle timeout.
func DefaultConfig() Config {
	return Config{
		MaxIdlePerKey:     32,
		MaxLifetime:       5 * time.Minute,
		IdleTimeout:       90 * time.Second,
		ConnectionTimeout: 30 * time.Second,
		EnablePooling:     true,
	}
}

// ConnectionKey identifies a pooled connection's endpoint. BackendKind lets
// the same key shape distinguish, e.g., a plain TCP stream pool from a
// database connection pool sharing the same Pool machinery.
type ConnectionKey struct {
	Host        string
	Port        uint16
	TLS         bool
	BackendKind string
}

// Hash returns a stable fingerprint for k, used where callers want a fixed-
// size key (e.g. sharding pools across goroutines) instead of the struct
// itself.
func (k ConnectionKey) Hash() uint64 {
	var buf [travelBufferSize]byte
	n := copy(buf[:], k.Host)
	h := xxhash.New()
	h.Write(buf[:n])
	h.Write([]byte{byte(k.Port), byte(k.Port >> 8)})
	if k.TLS {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	h.Write([]byte(k.BackendKind))
	return h.Sum64()
}

const travelBufferSize = 256

// Closer is the minimal shape a pooled connection must satisfy.
type Closer interface {
	Close() error
}

type pooledConn[T Closer] struct {
	conn         T
	createdAt    time.Time
	lastUsed     time.Time
	requestCount uint64
}

func newPooledConn[T Closer](conn T) *pooledConn[T] {
	now := time.Now()
	return &pooledConn[T]{conn: conn, createdAt: now, lastUsed: now}
}

func (p *pooledConn[T]) isHealthy(cfg Config) bool {
	now := time.Now()
	if now.Sub(p.createdAt) > cfg.MaxLifetime {
		return false
	}
	if now.Sub(p.lastUsed) > cfg.IdleTimeout {
		return false
	}
	return true
}

type perKeyPool[T Closer] struct {
	mu      sync.Mutex
	conns   []*pooledConn[T]
	maxIdle int
}

func newPerKeyPool[T Closer](maxIdle int) *perKeyPool[T] {
	return &perKeyPool[T]{maxIdle: maxIdle}
}

// get pops from the front of the FIFO, discarding unhealthy connections
// (closing them) until a healthy one is found or the queue is empty.
func (p *perKeyPool[T]) get(cfg Config) (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.conns) > 0 {
		pc := p.conns[0]
		p.conns = p.conns[1:]
		if pc.isHealthy(cfg) {
			pc.lastUsed = time.Now()
			pc.requestCount++
			return pc.conn, true
		}
		pc.conn.Close()
	}
	var zero T
	return zero, false
}

// put appends conn to the back of the FIFO, evicting the oldest entry if
// the key is already at its max-idle limit.
func (p *perKeyPool[T]) put(conn T, cfg Config) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.conns) >= p.maxIdle {
		oldest := p.conns[0]
		p.conns = p.conns[1:]
		oldest.conn.Close()
	}
	p.conns = append(p.conns, newPooledConn(conn))
}

// cleanup removes and closes every unhealthy connection, returning how
// many were evicted.
func (p *perKeyPool[T]) cleanup(cfg Config) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	kept := p.conns[:0]
	evicted := 0
	for _, pc := range p.conns {
		if pc.isHealthy(cfg) {
			kept = append(kept, pc)
		} else {
			pc.conn.Close()
			evicted++
		}
	}
	p.conns = kept
	return evicted
}

func (p *perKeyPool[T]) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

// Stats reports cumulative pool activity.
type Stats struct {
	Hits              uint64
	Misses            uint64
	Evictions         uint64
	PooledConnections int
}

// Pool is a per-key connection pool with FIFO idle queues, lifetime/idle
// health eviction, and a background cleanup sweep.
type Pool[T Closer] struct {
	config Config

	mu    sync.RWMutex
	pools map[ConnectionKey]*perKeyPool[T]

	statsMu sync.Mutex
	stats   Stats

	stopCleanup chan struct{}
}

// New returns a Pool using config. Callers that want the background sweep
// must call StartCleanup.
func New[T Closer](config Config) *Pool[T] {
	return &Pool[T]{
		config: config,
		pools:  map[ConnectionKey]*perKeyPool[T]{},
	}
}

// Get returns a healthy pooled connection for key, or (zero, false) on a
// miss. Pooling can be disabled entirely via Config.EnablePooling, in
// which case Get always misses.
func (p *Pool[T]) Get(key ConnectionKey) (T, bool) {
	var zero T
	if !p.config.EnablePooling {
		return zero, false
	}

	p.mu.RLock()
	pk := p.pools[key]
	p.mu.RUnlock()

	if pk == nil {
		p.recordMiss()
		return zero, false
	}

	conn, ok := pk.get(p.config)
	if ok {
		p.recordHit()
	} else {
		p.recordMiss()
	}
	return conn, ok
}

// Put returns conn to the pool under key, evicting the oldest idle
// connection for that key if it is already at its max-idle limit.
func (p *Pool[T]) Put(key ConnectionKey, conn T) {
	if !p.config.EnablePooling {
		conn.Close()
		return
	}

	p.mu.Lock()
	pk, ok := p.pools[key]
	if !ok {
		pk = newPerKeyPool[T](p.config.MaxIdlePerKey)
		p.pools[key] = pk
	}
	p.mu.Unlock()

	pk.put(conn, p.config)
}

// Cleanup sweeps every key's pool for unhealthy connections, closing and
// removing them, and drops any key left with no idle connections.
func (p *Pool[T]) Cleanup() {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := 0
	for key, pk := range p.pools {
		total += pk.cleanup(p.config)
		if pk.len() == 0 {
			delete(p.pools, key)
		}
	}

	p.statsMu.Lock()
	p.stats.Evictions += uint64(total)
	p.statsMu.Unlock()
}

// Clear closes and drops every pooled connection across every key.
func (p *Pool[T]) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, pk := range p.pools {
		pk.mu.Lock()
		for _, pc := range pk.conns {
			pc.conn.Close()
		}
		pk.conns = nil
		pk.mu.Unlock()
	}
	p.pools = map[ConnectionKey]*perKeyPool[T]{}
}

// Stats returns a snapshot of cumulative pool activity.
func (p *Pool[T]) Stats() Stats {
	p.mu.RLock()
	total := 0
	for _, pk := range p.pools {
		total += pk.len()
	}
	p.mu.RUnlock()

	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	return Stats{Hits: p.stats.Hits, Misses: p.stats.Misses, Evictions: p.stats.Evictions, PooledConnections: total}
}

func (p *Pool[T]) recordHit() {
	p.statsMu.Lock()
	p.stats.Hits++
	p.statsMu.Unlock()
}

func (p *Pool[T]) recordMiss() {
	p.statsMu.Lock()
	p.stats.Misses++
	p.statsMu.Unlock()
}

// StartCleanup launches a background goroutine that calls Cleanup every
// 30 seconds until stop is closed.
func (p *Pool[T]) StartCleanup(stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.Cleanup()
			case <-stop:
				return
			}
		}
	}()
}
