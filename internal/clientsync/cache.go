package clientsync

import (
	"sync"

	"github.com/google/uuid"
)

// Cache keys, one per server collection the client mirrors.
const (
	KeyConversations = "conversations"
	KeyProjects      = "projects"
)

func MessagesKey(conversationID uuid.UUID) string {
	return "messages/" + conversationID.String()
}

func ConversationKey(conversationID uuid.UUID) string {
	return "conversation/" + conversationID.String()
}

// Cache is the client-local mirror of server collections. Values stored here
// are treated as immutable: every transformation builds a replacement value
// and swaps it in, so a snapshot is just the old reference and a rollback is
// an exact restore.
type Cache struct {
	mu      sync.Mutex
	entries map[string]any
	stale   map[string]bool
}

func NewCache() *Cache {
	return &Cache{
		entries: map[string]any{},
		stale:   map[string]bool{},
	}
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	delete(c.stale, key)
}

// Invalidate marks a key stale without dropping its value, so the UI can keep
// rendering it until a refetch lands.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		c.stale[k] = true
	}
}

func (c *Cache) IsStale(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale[key]
}

// Snapshot captures the current value of every listed key. Restore puts those
// exact values back, including absence.
type Snapshot struct {
	values  map[string]any
	present map[string]bool
	stale   map[string]bool
}

func (c *Cache) Snapshot(keys ...string) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{
		values:  map[string]any{},
		present: map[string]bool{},
		stale:   map[string]bool{},
	}
	for _, k := range keys {
		v, ok := c.entries[k]
		snap.values[k] = v
		snap.present[k] = ok
		snap.stale[k] = c.stale[k]
	}
	return snap
}

// Restore is the unconditional rollback path: every snapshotted key goes back
// to its captured state, no merging.
func (c *Cache) Restore(snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, present := range snap.present {
		if present {
			c.entries[k] = snap.values[k]
		} else {
			delete(c.entries, k)
		}
		if snap.stale[k] {
			c.stale[k] = true
		} else {
			delete(c.stale, k)
		}
	}
}
