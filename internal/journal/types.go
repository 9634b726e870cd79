// Package journal holds the persisted entities of the ReMind assistant:
// memories, reminders, and the emergency contact, together with the store
// contracts and their in-memory and PostgreSQL implementations.
package journal

import (
	"errors"
	"fmt"
	"time"
)

// GuestUserID is the identity used when no authenticated user is present.
// It is an explicit guest session, not a hidden test sentinel; every store
// operation is scoped by user ID and guest data lives under this one.
const GuestUserID = "guest"

// Category classifies a memory.
type Category string

const (
	CategoryPeople Category = "people"
	CategoryPlaces Category = "places"
	CategoryEvents Category = "events"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryPeople, CategoryPlaces, CategoryEvents:
		return true
	}
	return false
}

// Priority ranks a reminder's urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Memory is one stored memory: a person, place, or event the user wants to
// hold on to.
type Memory struct {
	ID          string   `json:"id"`
	UserID      string   `json:"userId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	ImageURL    string   `json:"imageUrl"`
	// Date is the user-facing date of the memory, free-form as entered
	// ("June 2019", "2024-03-12").
	Date string   `json:"date"`
	Tags []string `json:"tags"`
	// AudioNote is an optional URL to a recorded voice note.
	AudioNote string    `json:"audioNote,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate checks the fields a memory must carry before it is stored.
func (m *Memory) Validate() error {
	var errs []error
	if m.Title == "" {
		errs = append(errs, errors.New("title is required"))
	}
	if !m.Category.Valid() {
		errs = append(errs, fmt.Errorf("category %q is not one of people, places, events", m.Category))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("journal: invalid memory: %w", err)
	}
	return nil
}

// Reminder is a scheduled prompt with a priority and completion state.
// IsCompleted is toggled only by explicit user action, never by the server.
type Reminder struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// Date is the due date in YYYY-MM-DD form; Time the due time HH:MM.
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Priority    Priority  `json:"priority"`
	IsCompleted bool      `json:"isCompleted"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Validate checks the fields a reminder must carry before it is stored.
func (r *Reminder) Validate() error {
	var errs []error
	if r.Title == "" {
		errs = append(errs, errors.New("title is required"))
	}
	if !r.Priority.Valid() {
		errs = append(errs, fmt.Errorf("priority %q is not one of low, medium, high", r.Priority))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("journal: invalid reminder: %w", err)
	}
	return nil
}

// EmergencyContact is the single SOS contact per user, replaced wholesale on
// every save.
type EmergencyContact struct {
	UserID       string    `json:"userId"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	VoiceNoteURL string    `json:"voiceNoteUrl,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Validate checks the fields an emergency contact must carry.
func (c *EmergencyContact) Validate() error {
	var errs []error
	if c.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if c.Phone == "" {
		errs = append(errs, errors.New("phone is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("journal: invalid emergency contact: %w", err)
	}
	return nil
}
