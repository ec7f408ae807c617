package pool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeConn struct {
	closed bool
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func TestPoolGetMissOnEmptyKey(t *testing.T) {
	p := New[*fakeConn](DefaultConfig())
	key := ConnectionKey{Host: "example.com", Port: 443, TLS: true}

	_, ok := p.Get(key)
	assert.False(t, ok)
	assert.Equal(t, uint64(1), p.Stats().Misses)
}

func TestPoolPutThenGetHits(t *testing.T) {
	p := New[*fakeConn](DefaultConfig())
	key := ConnectionKey{Host: "localhost", Port: 8080}

	p.Put(key, &fakeConn{})
	conn, ok := p.Get(key)
	assert.True(t, ok)
	assert.NotNil(t, conn)
	assert.Equal(t, uint64(1), p.Stats().Hits)

	_, ok = p.Get(key)
	assert.False(t, ok, "pool should be drained after the single put")
}

func TestPoolMaxIdleEvictsOldest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxIdlePerKey = 2
	p := New[*fakeConn](cfg)
	key := ConnectionKey{Host: "localhost", Port: 8080}

	first := &fakeConn{}
	p.Put(key, first)
	p.Put(key, &fakeConn{})
	p.Put(key, &fakeConn{})

	assert.Equal(t, 2, p.Stats().PooledConnections)
	assert.True(t, first.closed, "oldest connection should be evicted and closed")
}

func TestPoolStaleConnectionEvictedOnGet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IdleTimeout = 10 * time.Millisecond
	p := New[*fakeConn](cfg)
	key := ConnectionKey{Host: "localhost", Port: 8080}

	p.Put(key, &fakeConn{})
	time.Sleep(30 * time.Millisecond)

	_, ok := p.Get(key)
	assert.False(t, ok)
}

func TestPoolCleanupRemovesStaleAndDropsEmptyKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IdleTimeout = 10 * time.Millisecond
	p := New[*fakeConn](cfg)
	key := ConnectionKey{Host: "localhost", Port: 8080}

	conn := &fakeConn{}
	p.Put(key, conn)
	time.Sleep(30 * time.Millisecond)

	p.Cleanup()

	assert.Equal(t, 0, p.Stats().PooledConnections)
	assert.True(t, conn.closed)
	assert.True(t, p.Stats().Evictions >= 1)
}

func TestPoolClearClosesEverything(t *testing.T) {
	p := New[*fakeConn](DefaultConfig())
	key := ConnectionKey{Host: "localhost", Port: 8080}
	conn := &fakeConn{}
	p.Put(key, conn)

	p.Clear()

	assert.True(t, conn.closed)
	assert.Equal(t, 0, p.Stats().PooledConnections)
}

func TestPoolDisabledNeverCachesAndClosesOnPut(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnablePooling = false
	p := New[*fakeConn](cfg)
	key := ConnectionKey{Host: "localhost", Port: 8080}

	conn := &fakeConn{}
	p.Put(key, conn)
	assert.True(t, conn.closed)

	_, ok := p.Get(key)
	assert.False(t, ok)
}

func TestConnectionKeyHashIsStableAndDistinguishesFields(t *testing.T) {
	a := ConnectionKey{Host: "example.com", Port: 443, TLS: true}
	b := ConnectionKey{Host: "example.com", Port: 443, TLS: true}
	c := ConnectionKey{Host: "example.com", Port: 80, TLS: false}

	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash())
}
