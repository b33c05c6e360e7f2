package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MemoryStore keeps submissions in process memory. It is used when no
// DynamoDB table is configured (local development) and in tests.
type MemoryStore struct {
	mu       sync.Mutex
	contacts map[string]ContactSubmission
}

var _ ContactStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{contacts: make(map[string]ContactSubmission)}
}

func (m *MemoryStore) PutContact(ctx context.Context, c *ContactSubmission) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().Unix()
	if c.Status == "" {
		c.Status = StatusNew
	}

	m.mu.Lock()
	m.contacts[c.ID] = *c
	m.mu.Unlock()

	log.Debug().Str("contactId", c.ID).Msg("Contact submission stored in memory")
	return c.ID, nil
}

// Get returns a stored submission by ID.
func (m *MemoryStore) Get(id string) (ContactSubmission, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	return c, ok
}

// Len returns the number of stored submissions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.contacts)
}
