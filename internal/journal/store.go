package journal

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the requested entity does not exist for the
// given user.
var ErrNotFound = errors.New("journal: entity not found")

// ErrDuplicateID is returned by Add operations when an entity with the same
// non-empty ID already exists.
var ErrDuplicateID = errors.New("journal: entity with that ID already exists")

// MemoryStore manages stored memories. All operations are scoped by user ID.
// Implementations must be safe for concurrent use.
type MemoryStore interface {
	// AddMemory creates a new memory, generating an ID when the provided one
	// is empty. Returns [ErrDuplicateID] when the ID is already taken.
	AddMemory(ctx context.Context, m Memory) (Memory, error)

	// GetMemory retrieves one memory. Returns [ErrNotFound] when absent.
	GetMemory(ctx context.Context, userID, id string) (Memory, error)

	// ListMemories returns all of the user's memories, newest first.
	ListMemories(ctx context.Context, userID string) ([]Memory, error)

	// UpdateMemory replaces an existing memory. Returns [ErrNotFound] when
	// absent.
	UpdateMemory(ctx context.Context, m Memory) error

	// DeleteMemory removes one memory. Returns [ErrNotFound] when absent.
	DeleteMemory(ctx context.Context, userID, id string) error

	// SearchMemories returns the user's memories whose title, description,
	// or tags contain query, case-insensitive, newest first. An empty query
	// returns all memories.
	SearchMemories(ctx context.Context, userID, query string) ([]Memory, error)
}

// ReminderStore manages reminders. All operations are scoped by user ID.
// Implementations must be safe for concurrent use.
type ReminderStore interface {
	// AddReminder creates a new reminder, generating an ID when the provided
	// one is empty. Returns [ErrDuplicateID] when the ID is already taken.
	AddReminder(ctx context.Context, r Reminder) (Reminder, error)

	// GetReminder retrieves one reminder. Returns [ErrNotFound] when absent.
	GetReminder(ctx context.Context, userID, id string) (Reminder, error)

	// ListReminders returns all of the user's reminders, newest first.
	ListReminders(ctx context.Context, userID string) ([]Reminder, error)

	// UpdateReminder replaces an existing reminder. Returns [ErrNotFound]
	// when absent.
	UpdateReminder(ctx context.Context, r Reminder) error

	// DeleteReminder removes one reminder. Returns [ErrNotFound] when absent.
	DeleteReminder(ctx context.Context, userID, id string) error

	// SetReminderCompleted flips the completion state of one reminder and
	// returns the updated value. Returns [ErrNotFound] when absent.
	SetReminderCompleted(ctx context.Context, userID, id string, completed bool) (Reminder, error)
}

// ContactStore manages the per-user emergency contact singleton.
// Implementations must be safe for concurrent use.
type ContactStore interface {
	// Contact returns the user's emergency contact, or (nil, nil) when none
	// is configured.
	Contact(ctx context.Context, userID string) (*EmergencyContact, error)

	// SetContact creates or replaces the user's emergency contact wholesale.
	SetContact(ctx context.Context, c EmergencyContact) error
}

// Store is the full journal persistence contract.
type Store interface {
	MemoryStore
	ReminderStore
	ContactStore

	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error
}
