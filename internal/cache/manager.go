package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/nickromney-org/github-release-updater-proxy/internal/descriptor"
	"github.com/nickromney-org/github-release-updater-proxy/pkg/types"
)

// DefaultTTL is the absolute lifetime of an entry
const DefaultTTL = time.Hour

// DefaultSize bounds the number of cached repositories
const DefaultSize = 1024

// Entry is the cached outcome of one resolution
type Entry struct {
	// Release is the selected release (or the most recent one in JSON mode).
	Release *types.Release
	// Descriptor is nil when the release carries no usable instructions.
	Descriptor *descriptor.Descriptor
	// NotFound marks a cached negative result.
	NotFound bool
	// StoredAt is the write time of the entry.
	StoredAt time.Time
}

// Manager is the resolution cache, keyed by "owner/repository".
// Entries expire a fixed time after they were written and are never
// refreshed by reads.
type Manager struct {
	lru *expirable.LRU[string, *Entry]
	ttl time.Duration
	now func() time.Time
}

// NewManager creates a new cache manager
func NewManager(size int, ttl time.Duration) *Manager {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		lru: expirable.NewLRU[string, *Entry](size, nil, ttl),
		ttl: ttl,
		now: time.Now,
	}
}

// Get returns the live entry for key
func (m *Manager) Get(key string) (*Entry, bool) {
	return m.lru.Get(key)
}

// Set stores a resolved release under key
func (m *Manager) Set(key string, release *types.Release, d *descriptor.Descriptor) {
	m.lru.Add(key, &Entry{
		Release:    release,
		Descriptor: d,
		StoredAt:   m.now(),
	})
}

// SetNotFound stores the negative result for key so repeated misses do
// not reach the release source until the entry expires.
func (m *Manager) SetNotFound(key string) {
	m.lru.Add(key, &Entry{
		NotFound: true,
		StoredAt: m.now(),
	})
}

// Bypass reports whether cached entries must be ignored for a caller
func (m *Manager) Bypass(isBetaClient bool) bool {
	return m == nil || isBetaClient
}

// TTL returns the entry lifetime
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Len returns the number of entries, including ones not yet purged
func (m *Manager) Len() int {
	return m.lru.Len()
}

// Purge removes every entry
func (m *Manager) Purge() {
	m.lru.Purge()
}
