package chat

import "sync"

// conversationLocks provides one mutex per conversation id so requests for
// the same conversation serialize while distinct conversations run
// concurrently. Locks are never discarded; conversation cardinality is
// expected to stay small for a self-hosted deployment.
type conversationLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newConversationLocks() *conversationLocks {
	return &conversationLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for id, creating it on first use, and returns
// the matching unlock function.
func (c *conversationLocks) lock(id string) func() {
	c.mu.Lock()
	l, ok := c.locks[id]
	if !ok {
		l = &sync.Mutex{}
		c.locks[id] = l
	}
	c.mu.Unlock()

	l.Lock()
	return l.Unlock
}
