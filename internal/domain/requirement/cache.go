package requirement

// Cache remembers the last status of each requirement for one run. Entries
// never expire; only the installer invalidates them after acting.
type Cache struct {
	entries map[string]Status
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Status)}
}

// Get returns the cached status of name.
func (c *Cache) Get(name string) (Status, bool) {
	s, ok := c.entries[name]
	return s, ok
}

// Put stores the status of name.
func (c *Cache) Put(name string, s Status) {
	c.entries[name] = s
}

// Invalidate forgets name.
func (c *Cache) Invalidate(name string) {
	delete(c.entries, name)
}

// Clear forgets everything.
func (c *Cache) Clear() {
	c.entries = make(map[string]Status)
}

// Len returns the number of cached statuses.
func (c *Cache) Len() int {
	return len(c.entries)
}
