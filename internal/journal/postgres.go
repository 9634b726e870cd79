package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the journal tables. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS memories (
    id          TEXT         PRIMARY KEY,
    user_id     TEXT         NOT NULL,
    title       TEXT         NOT NULL,
    description TEXT         NOT NULL DEFAULT '',
    category    TEXT         NOT NULL,
    image_url   TEXT         NOT NULL DEFAULT '',
    date        TEXT         NOT NULL DEFAULT '',
    tags        JSONB        NOT NULL DEFAULT '[]',
    audio_note  TEXT         NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_memories_user ON memories (user_id);
CREATE INDEX IF NOT EXISTS idx_memories_user_created ON memories (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS reminders (
    id           TEXT         PRIMARY KEY,
    user_id      TEXT         NOT NULL,
    title        TEXT         NOT NULL,
    description  TEXT         NOT NULL DEFAULT '',
    date         TEXT         NOT NULL DEFAULT '',
    time         TEXT         NOT NULL DEFAULT '',
    priority     TEXT         NOT NULL DEFAULT 'medium',
    is_completed BOOLEAN      NOT NULL DEFAULT FALSE,
    created_at   TIMESTAMPTZ  NOT NULL DEFAULT now(),
    updated_at   TIMESTAMPTZ  NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_reminders_user ON reminders (user_id);
CREATE INDEX IF NOT EXISTS idx_reminders_user_created ON reminders (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS sos_contacts (
    user_id        TEXT         PRIMARY KEY,
    name           TEXT         NOT NULL,
    phone          TEXT         NOT NULL,
    email          TEXT         NOT NULL DEFAULT '',
    notes          TEXT         NOT NULL DEFAULT '',
    image_url      TEXT         NOT NULL DEFAULT '',
    voice_note_url TEXT         NOT NULL DEFAULT '',
    updated_at     TIMESTAMPTZ  NOT NULL DEFAULT now()
);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy it.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by PostgreSQL. Memory tags are stored as
// JSONB. The store does not own the connection; the caller closes the pool.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a [PostgresStore] using the given connection or
// pool. Call [PostgresStore.Migrate] before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL. Idempotent; safe on every start.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("journal: migrate: %w", err)
	}
	return nil
}

// Ping implements [Store.Ping].
func (s *PostgresStore) Ping(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, "SELECT 1"); err != nil {
		return fmt.Errorf("journal: ping: %w", err)
	}
	return nil
}

// AddMemory implements [MemoryStore.AddMemory].
func (s *PostgresStore) AddMemory(ctx context.Context, m Memory) (Memory, error) {
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

	tagsJSON, err := json.Marshal(emptyTags(m.Tags))
	if err != nil {
		return Memory{}, fmt.Errorf("journal: marshal tags: %w", err)
	}

	const query = `
		INSERT INTO memories (id, user_id, title, description, category, image_url, date, tags, audio_note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at`

	err = s.db.QueryRow(ctx, query,
		m.ID, m.UserID, m.Title, m.Description, string(m.Category),
		m.ImageURL, m.Date, tagsJSON, m.AudioNote,
	).Scan(&m.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return Memory{}, ErrDuplicateID
		}
		return Memory{}, fmt.Errorf("journal: add memory: %w", err)
	}
	return m, nil
}

// GetMemory implements [MemoryStore.GetMemory].
func (s *PostgresStore) GetMemory(ctx context.Context, userID, id string) (Memory, error) {
	const query = `
		SELECT id, user_id, title, description, category, image_url, date, tags, audio_note, created_at
		FROM memories
		WHERE user_id = $1 AND id = $2`

	m, err := scanMemory(s.db.QueryRow(ctx, query, userID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Memory{}, ErrNotFound
		}
		return Memory{}, fmt.Errorf("journal: get memory %q: %w", id, err)
	}
	return m, nil
}

// ListMemories implements [MemoryStore.ListMemories].
func (s *PostgresStore) ListMemories(ctx context.Context, userID string) ([]Memory, error) {
	const query = `
		SELECT id, user_id, title, description, category, image_url, date, tags, audio_note, created_at
		FROM memories
		WHERE user_id = $1
		ORDER BY created_at DESC, id`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("journal: list memories: %w", err)
	}
	return collectMemories(rows)
}

// SearchMemories implements [MemoryStore.SearchMemories] with ILIKE over
// title, description, and the flattened tags.
func (s *PostgresStore) SearchMemories(ctx context.Context, userID, query string) ([]Memory, error) {
	if query == "" {
		return s.ListMemories(ctx, userID)
	}

	const q = `
		SELECT id, user_id, title, description, category, image_url, date, tags, audio_note, created_at
		FROM memories
		WHERE user_id = $1
		  AND (title ILIKE $2 OR description ILIKE $2 OR tags::text ILIKE $2)
		ORDER BY created_at DESC, id`

	rows, err := s.db.Query(ctx, q, userID, "%"+query+"%")
	if err != nil {
		return nil, fmt.Errorf("journal: search memories: %w", err)
	}
	return collectMemories(rows)
}

// UpdateMemory implements [MemoryStore.UpdateMemory].
func (s *PostgresStore) UpdateMemory(ctx context.Context, m Memory) error {
	if err := m.Validate(); err != nil {
		return err
	}

	tagsJSON, err := json.Marshal(emptyTags(m.Tags))
	if err != nil {
		return fmt.Errorf("journal: marshal tags: %w", err)
	}

	const query = `
		UPDATE memories SET
			title = $3, description = $4, category = $5, image_url = $6,
			date = $7, tags = $8, audio_note = $9
		WHERE user_id = $1 AND id = $2
		RETURNING created_at`

	err = s.db.QueryRow(ctx, query,
		m.UserID, m.ID, m.Title, m.Description, string(m.Category),
		m.ImageURL, m.Date, tagsJSON, m.AudioNote,
	).Scan(&m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("journal: update memory: %w", err)
	}
	return nil
}

// DeleteMemory implements [MemoryStore.DeleteMemory].
func (s *PostgresStore) DeleteMemory(ctx context.Context, userID, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM memories WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("journal: delete memory %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddReminder implements [ReminderStore.AddReminder].
func (s *PostgresStore) AddReminder(ctx context.Context, r Reminder) (Reminder, error) {
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

	const query = `
		INSERT INTO reminders (id, user_id, title, description, date, time, priority, is_completed)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`

	err := s.db.QueryRow(ctx, query,
		r.ID, r.UserID, r.Title, r.Description, r.Date, r.Time,
		string(r.Priority), r.IsCompleted,
	).Scan(&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return Reminder{}, ErrDuplicateID
		}
		return Reminder{}, fmt.Errorf("journal: add reminder: %w", err)
	}
	return r, nil
}

// GetReminder implements [ReminderStore.GetReminder].
func (s *PostgresStore) GetReminder(ctx context.Context, userID, id string) (Reminder, error) {
	const query = `
		SELECT id, user_id, title, description, date, time, priority, is_completed, created_at, updated_at
		FROM reminders
		WHERE user_id = $1 AND id = $2`

	r, err := scanReminder(s.db.QueryRow(ctx, query, userID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Reminder{}, ErrNotFound
		}
		return Reminder{}, fmt.Errorf("journal: get reminder %q: %w", id, err)
	}
	return r, nil
}

// ListReminders implements [ReminderStore.ListReminders].
func (s *PostgresStore) ListReminders(ctx context.Context, userID string) ([]Reminder, error) {
	const query = `
		SELECT id, user_id, title, description, date, time, priority, is_completed, created_at, updated_at
		FROM reminders
		WHERE user_id = $1
		ORDER BY created_at DESC, id`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("journal: list reminders: %w", err)
	}
	defer rows.Close()

	reminders := []Reminder{}
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("journal: list reminders scan: %w", err)
		}
		reminders = append(reminders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: list reminders: %w", err)
	}
	return reminders, nil
}

// UpdateReminder implements [ReminderStore.UpdateReminder].
func (s *PostgresStore) UpdateReminder(ctx context.Context, r Reminder) error {
	if err := r.Validate(); err != nil {
		return err
	}

	const query = `
		UPDATE reminders SET
			title = $3, description = $4, date = $5, time = $6,
			priority = $7, is_completed = $8, updated_at = now()
		WHERE user_id = $1 AND id = $2
		RETURNING created_at, updated_at`

	err := s.db.QueryRow(ctx, query,
		r.UserID, r.ID, r.Title, r.Description, r.Date, r.Time,
		string(r.Priority), r.IsCompleted,
	).Scan(&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("journal: update reminder: %w", err)
	}
	return nil
}

// DeleteReminder implements [ReminderStore.DeleteReminder].
func (s *PostgresStore) DeleteReminder(ctx context.Context, userID, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM reminders WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("journal: delete reminder %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetReminderCompleted implements [ReminderStore.SetReminderCompleted].
func (s *PostgresStore) SetReminderCompleted(ctx context.Context, userID, id string, completed bool) (Reminder, error) {
	const query = `
		UPDATE reminders SET is_completed = $3, updated_at = now()
		WHERE user_id = $1 AND id = $2
		RETURNING id, user_id, title, description, date, time, priority, is_completed, created_at, updated_at`

	r, err := scanReminder(s.db.QueryRow(ctx, query, userID, id, completed))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Reminder{}, ErrNotFound
		}
		return Reminder{}, fmt.Errorf("journal: set reminder completed: %w", err)
	}
	return r, nil
}

// Contact implements [ContactStore.Contact].
func (s *PostgresStore) Contact(ctx context.Context, userID string) (*EmergencyContact, error) {
	const query = `
		SELECT user_id, name, phone, email, notes, image_url, voice_note_url, updated_at
		FROM sos_contacts
		WHERE user_id = $1`

	var c EmergencyContact
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&c.UserID, &c.Name, &c.Phone, &c.Email, &c.Notes,
		&c.ImageURL, &c.VoiceNoteURL, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("journal: get contact: %w", err)
	}
	return &c, nil
}

// SetContact implements [ContactStore.SetContact] as a wholesale upsert.
func (s *PostgresStore) SetContact(ctx context.Context, c EmergencyContact) error {
	if err := c.Validate(); err != nil {
		return err
	}

	const query = `
		INSERT INTO sos_contacts (user_id, name, phone, email, notes, image_url, voice_note_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			notes = EXCLUDED.notes,
			image_url = EXCLUDED.image_url,
			voice_note_url = EXCLUDED.voice_note_url,
			updated_at = now()`

	if _, err := s.db.Exec(ctx, query,
		c.UserID, c.Name, c.Phone, c.Email, c.Notes, c.ImageURL, c.VoiceNoteURL,
	); err != nil {
		return fmt.Errorf("journal: set contact: %w", err)
	}
	return nil
}

// row is the subset of pgx.Row shared by pgx.Row and pgx.Rows.
type row interface {
	Scan(dest ...any) error
}

// scanMemory reads one memories row, decoding the JSONB tags column.
func scanMemory(r row) (Memory, error) {
	var (
		m        Memory
		category string
		tagsJSON []byte
	)
	if err := r.Scan(
		&m.ID, &m.UserID, &m.Title, &m.Description, &category,
		&m.ImageURL, &m.Date, &tagsJSON, &m.AudioNote, &m.CreatedAt,
	); err != nil {
		return Memory{}, err
	}
	m.Category = Category(category)
	if err := json.Unmarshal(tagsJSON, &m.Tags); err != nil {
		return Memory{}, fmt.Errorf("unmarshal tags: %w", err)
	}
	return m, nil
}

// scanReminder reads one reminders row.
func scanReminder(r row) (Reminder, error) {
	var (
		rem      Reminder
		priority string
	)
	if err := r.Scan(
		&rem.ID, &rem.UserID, &rem.Title, &rem.Description, &rem.Date, &rem.Time,
		&priority, &rem.IsCompleted, &rem.CreatedAt, &rem.UpdatedAt,
	); err != nil {
		return Reminder{}, err
	}
	rem.Priority = Priority(priority)
	return rem, nil
}

// collectMemories drains rows into a slice, always returning a non-nil
// slice so handlers marshal "[]" instead of "null".
func collectMemories(rows pgx.Rows) ([]Memory, error) {
	defer rows.Close()

	memories := []Memory{}
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("journal: memories scan: %w", err)
		}
		memories = append(memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: memories rows: %w", err)
	}
	return memories, nil
}

// emptyTags returns tags if non-nil, otherwise an empty non-nil slice so
// JSON marshalling produces "[]" instead of "null".
func emptyTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// isDuplicateKeyError checks whether a PostgreSQL error is a
// unique-violation (SQLSTATE 23505).
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
