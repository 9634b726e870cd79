package journal

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store]. It is the
// default backend when no database is configured, and the backend used by
// tests. Data does not survive a restart.
type MemStore struct {
	mu        sync.RWMutex
	memories  map[string]map[string]Memory   // userID -> id -> memory
	reminders map[string]map[string]Reminder // userID -> id -> reminder
	contacts  map[string]EmergencyContact    // userID -> contact
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{
		memories:  make(map[string]map[string]Memory),
		reminders: make(map[string]map[string]Reminder),
		contacts:  make(map[string]EmergencyContact),
	}
}

// AddMemory implements [MemoryStore.AddMemory].
func (s *MemStore) AddMemory(ctx context.Context, m Memory) (Memory, error) {
	if err := m.Validate(); err != nil {
		return Memory{}, err
	}
	if m.ID == "" {
		id, err := generateID()
		if err != nil {
			return Memory{}, fmt.Errorf("journal: generate id: %w", err)
		}
		m.ID = id
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.memories[m.UserID]
	if user == nil {
		user = make(map[string]Memory)
		s.memories[m.UserID] = user
	}
	if _, exists := user[m.ID]; exists {
		return Memory{}, ErrDuplicateID
	}
	user[m.ID] = m
	return m, nil
}

// GetMemory implements [MemoryStore.GetMemory].
func (s *MemStore) GetMemory(ctx context.Context, userID, id string) (Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.memories[userID][id]
	if !ok {
		return Memory{}, ErrNotFound
	}
	return m, nil
}

// ListMemories implements [MemoryStore.ListMemories].
func (s *MemStore) ListMemories(ctx context.Context, userID string) ([]Memory, error) {
	return s.SearchMemories(ctx, userID, "")
}

// UpdateMemory implements [MemoryStore.UpdateMemory].
func (s *MemStore) UpdateMemory(ctx context.Context, m Memory) error {
	if err := m.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.memories[m.UserID]
	existing, ok := user[m.ID]
	if !ok {
		return ErrNotFound
	}
	m.CreatedAt = existing.CreatedAt
	user[m.ID] = m
	return nil
}

// DeleteMemory implements [MemoryStore.DeleteMemory].
func (s *MemStore) DeleteMemory(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.memories[userID][id]; !ok {
		return ErrNotFound
	}
	delete(s.memories[userID], id)
	return nil
}

// SearchMemories implements [MemoryStore.SearchMemories] with a
// case-insensitive substring match over title, description, and tags.
func (s *MemStore) SearchMemories(ctx context.Context, userID, query string) ([]Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))
	result := make([]Memory, 0, len(s.memories[userID]))
	for _, m := range s.memories[userID] {
		if query == "" || memoryMatches(m, query) {
			result = append(result, m)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// AddReminder implements [ReminderStore.AddReminder].
func (s *MemStore) AddReminder(ctx context.Context, r Reminder) (Reminder, error) {
	if err := r.Validate(); err != nil {
		return Reminder{}, err
	}
	if r.ID == "" {
		id, err := generateID()
		if err != nil {
			return Reminder{}, fmt.Errorf("journal: generate id: %w", err)
		}
		r.ID = id
	}
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.reminders[r.UserID]
	if user == nil {
		user = make(map[string]Reminder)
		s.reminders[r.UserID] = user
	}
	if _, exists := user[r.ID]; exists {
		return Reminder{}, ErrDuplicateID
	}
	user[r.ID] = r
	return r, nil
}

// GetReminder implements [ReminderStore.GetReminder].
func (s *MemStore) GetReminder(ctx context.Context, userID, id string) (Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reminders[userID][id]
	if !ok {
		return Reminder{}, ErrNotFound
	}
	return r, nil
}

// ListReminders implements [ReminderStore.ListReminders].
func (s *MemStore) ListReminders(ctx context.Context, userID string) ([]Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Reminder, 0, len(s.reminders[userID]))
	for _, r := range s.reminders[userID] {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// UpdateReminder implements [ReminderStore.UpdateReminder].
func (s *MemStore) UpdateReminder(ctx context.Context, r Reminder) error {
	if err := r.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.reminders[r.UserID]
	existing, ok := user[r.ID]
	if !ok {
		return ErrNotFound
	}
	r.CreatedAt = existing.CreatedAt
	r.UpdatedAt = time.Now().UTC()
	user[r.ID] = r
	return nil
}

// DeleteReminder implements [ReminderStore.DeleteReminder].
func (s *MemStore) DeleteReminder(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reminders[userID][id]; !ok {
		return ErrNotFound
	}
	delete(s.reminders[userID], id)
	return nil
}

// SetReminderCompleted implements [ReminderStore.SetReminderCompleted].
func (s *MemStore) SetReminderCompleted(ctx context.Context, userID, id string, completed bool) (Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reminders[userID][id]
	if !ok {
		return Reminder{}, ErrNotFound
	}
	r.IsCompleted = completed
	r.UpdatedAt = time.Now().UTC()
	s.reminders[userID][id] = r
	return r, nil
}

// Contact implements [ContactStore.Contact].
func (s *MemStore) Contact(ctx context.Context, userID string) (*EmergencyContact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.contacts[userID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// SetContact implements [ContactStore.SetContact].
func (s *MemStore) SetContact(ctx context.Context, c EmergencyContact) error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts[c.UserID] = c
	return nil
}

// Ping implements [Store.Ping]. The in-memory store is always reachable.
func (s *MemStore) Ping(ctx context.Context) error { return nil }

// generateID produces a random 16-byte hex string using crypto/rand.
func generateID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// memoryMatches reports whether m's title, description, or any tag contains
// the lowercased query.
func memoryMatches(m Memory, query string) bool {
	if strings.Contains(strings.ToLower(m.Title), query) ||
		strings.Contains(strings.ToLower(m.Description), query) {
		return true
	}
	for _, tag := range m.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}
