// Package cache provides an opt-in compiled-plan cache.
//
// Plans are keyed by (expression tree hash, dialect). Caching is sound
// because compilation is deterministic and CompiledQuery is immutable.
package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/SiddhanthNB/simple-orm/query/ast"
	"github.com/SiddhanthNB/simple-orm/query/compiler"
	"github.com/SiddhanthNB/simple-orm/query/operators"
)

// Key derives the cache key for a tree under a dialect.
func Key(d operators.Dialect, t ast.Tree) string {
	return fmt.Sprintf("%s:%016x", d, t.Hash())
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits      int64
	Misses    int64
	Size      int
	MaxSize   int
	Evictions int64
	HitRate   float64
}

// PlanCache is an LRU cache of compiled queries with optional TTL.
type PlanCache struct {
	mu         sync.Mutex
	data       map[string]*planNode
	maxSize    int
	defaultTTL time.Duration
	head       *planNode
	tail       *planNode
	stats      Stats
	group      singleflight.Group
}

// planNode is a doubly-linked LRU list node.
type planNode struct {
	key       string
	plan      *compiler.CompiledQuery
	expiresAt time.Time
	prev      *planNode
	next      *planNode
}

func (n *planNode) expired() bool {
	return !n.expiresAt.IsZero() && time.Now().After(n.expiresAt)
}

// New creates a plan cache. A zero defaultTTL means entries never expire.
func New(maxSize int, defaultTTL time.Duration) *PlanCache {
	return &PlanCache{
		data:       make(map[string]*planNode),
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		stats:      Stats{MaxSize: maxSize},
	}
}

// CompileSelect returns the cached plan for (tree, dialect), compiling on a
// miss. Concurrent misses for the same key share one compilation.
func (c *PlanCache) CompileSelect(cmp compiler.Compiler, t ast.Tree) (*compiler.CompiledQuery, error) {
	key := Key(cmp.Dialect(), t)
	if plan, ok := c.Get(key); ok {
		return plan, nil
	}
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		plan, err := cmp.CompileSelect(t)
		if err != nil {
			return nil, err
		}
		c.Put(key, plan)
		return plan, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*compiler.CompiledQuery), nil
}

// Get retrieves a cached plan.
func (c *PlanCache) Get(key string) (*compiler.CompiledQuery, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.data[key]
	if !ok || node.expired() {
		if ok {
			c.remove(node)
		}
		c.stats.Misses++
		return nil, false
	}
	c.moveToFront(node)
	c.stats.Hits++
	return node.plan, true
}

// Put stores a plan under the default TTL.
func (c *PlanCache) Put(key string, plan *compiler.CompiledQuery) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.defaultTTL > 0 {
		expiresAt = time.Now().Add(c.defaultTTL)
	}
	if node, ok := c.data[key]; ok {
		node.plan = plan
		node.expiresAt = expiresAt
		c.moveToFront(node)
		return
	}
	if len(c.data) >= c.maxSize {
		c.evict()
	}
	node := &planNode{key: key, plan: plan, expiresAt: expiresAt}
	c.addToFront(node)
	c.data[key] = node
	c.stats.Size = len(c.data)
}

// Invalidate drops one key.
func (c *PlanCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if node, ok := c.data[key]; ok {
		c.remove(node)
	}
}

// InvalidateDialect drops every plan compiled for one dialect.
func (c *PlanCache) InvalidateDialect(d operators.Dialect) {
	prefix := string(d) + ":"
	c.mu.Lock()
	defer c.mu.Unlock()
	var doomed []*planNode
	for key, node := range c.data {
		if strings.HasPrefix(key, prefix) {
			doomed = append(doomed, node)
		}
	}
	for _, node := range doomed {
		c.remove(node)
	}
}

// Clear drops everything and resets counters.
func (c *PlanCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*planNode)
	c.head = nil
	c.tail = nil
	c.stats = Stats{MaxSize: c.maxSize}
}

// GetStats returns a snapshot of the cache counters.
func (c *PlanCache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats := c.stats
	stats.Size = len(c.data)
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total) * 100
	}
	return stats
}

func (c *PlanCache) addToFront(node *planNode) {
	if c.head == nil {
		c.head = node
		c.tail = node
		return
	}
	node.next = c.head
	c.head.prev = node
	c.head = node
}

func (c *PlanCache) moveToFront(node *planNode) {
	if node == c.head {
		return
	}
	c.unlink(node)
	c.addToFront(node)
}

func (c *PlanCache) remove(node *planNode) {
	c.unlink(node)
	delete(c.data, node.key)
	c.stats.Size = len(c.data)
}

func (c *PlanCache) unlink(node *planNode) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		c.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		c.tail = node.prev
	}
	node.prev = nil
	node.next = nil
}

func (c *PlanCache) evict() {
	if c.tail == nil {
		return
	}
	c.remove(c.tail)
	c.stats.Evictions++
}
