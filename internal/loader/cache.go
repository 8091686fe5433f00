package loader

import "time"

// Messages is one refresh cycle's worth of chat-ready text. Warning is set
// when the store refresh could not be trusted; Today and Future carry the
// formatted birthday blocks.
type Messages struct {
	Warning string
	Today   string
	Future  string
}

// Cache holds the most recently computed messages together with the moment
// they were recorded. Fields and timestamp always change together through
// Record; reads never touch the timestamp. The cache is process-local and
// rebuilt from scratch after a restart.
type Cache struct {
	messages  Messages
	updatedAt time.Time
}

// NewCache returns an empty cache: no messages, no timestamp, never fresh.
func NewCache() *Cache {
	return &Cache{}
}

// Record overwrites the cached messages and stamps them with now in a
// single step.
func (c *Cache) Record(m Messages, now time.Time) {
	c.messages = m
	c.updatedAt = now
}

// IsFresh reports whether the cache was written within period of now.
// A cache that was never written is never fresh.
func (c *Cache) IsFresh(period time.Duration, now time.Time) bool {
	if c.updatedAt.IsZero() {
		return false
	}
	return now.Sub(c.updatedAt) <= period
}

// IsEmpty reports whether no birthday block is set. A lone warning does not
// count: there is no use sending a warning without data.
func (c *Cache) IsEmpty() bool {
	return c.messages.Today == "" && c.messages.Future == ""
}

// List returns the set messages in dispatch order (warning, today, future),
// skipping absent ones.
func (c *Cache) List() []string {
	var out []string
	for _, m := range []string{c.messages.Warning, c.messages.Today, c.messages.Future} {
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}

// LastUpdated returns the timestamp of the last Record, zero if none.
func (c *Cache) LastUpdated() time.Time {
	return c.updatedAt
}
