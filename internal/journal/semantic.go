package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	pgvector "github.com/pgvector/pgvector-go"

	"github.com/remindai/remind/pkg/provider/embeddings"
)

// SemanticHit is one semantic search result: the memory plus its cosine
// distance to the query (smaller is more similar).
type SemanticHit struct {
	Memory   Memory  `json:"memory"`
	Distance float64 `json:"distance"`
}

// SemanticIndex maintains a pgvector embedding per memory so "search
// memories" finds entries by meaning, not just substring. It embeds the
// title and description together and stores the vector alongside a foreign
// key into the memories table.
//
// All methods are safe for concurrent use.
type SemanticIndex struct {
	db       DB
	embedder embeddings.Provider
}

// NewSemanticIndex returns a SemanticIndex over db using embedder.
func NewSemanticIndex(db DB, embedder embeddings.Provider) *SemanticIndex {
	return &SemanticIndex{db: db, embedder: embedder}
}

// semanticSchema returns the DDL with the embedding dimension substituted.
// The vector dimension is baked into the column type at schema creation
// time; changing the embedding model requires a manual schema change.
func semanticSchema(dimensions int) string {
	return fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS memory_embeddings (
    memory_id  TEXT  PRIMARY KEY REFERENCES memories (id) ON DELETE CASCADE,
    user_id    TEXT  NOT NULL,
    embedding  vector(%d)
);

CREATE INDEX IF NOT EXISTS idx_memory_embeddings_user
    ON memory_embeddings (user_id);

CREATE INDEX IF NOT EXISTS idx_memory_embeddings_embedding
    ON memory_embeddings USING hnsw (embedding vector_cosine_ops);
`, dimensions)
}

// Migrate creates the embeddings table and HNSW index. Idempotent.
func (s *SemanticIndex) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, semanticSchema(s.embedder.Dimensions())); err != nil {
		return fmt.Errorf("journal: semantic migrate: %w", err)
	}
	return nil
}

// IndexMemory embeds m and upserts its vector. Call after every memory
// create or update.
func (s *SemanticIndex) IndexMemory(ctx context.Context, m Memory) error {
	vec, err := s.embedder.Embed(ctx, embeddingText(m))
	if err != nil {
		return fmt.Errorf("journal: embed memory %q: %w", m.ID, err)
	}

	const query = `
		INSERT INTO memory_embeddings (memory_id, user_id, embedding)
		VALUES ($1, $2, $3)
		ON CONFLICT (memory_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			embedding = EXCLUDED.embedding`

	if _, err := s.db.Exec(ctx, query, m.ID, m.UserID, pgvector.NewVector(vec)); err != nil {
		return fmt.Errorf("journal: index memory %q: %w", m.ID, err)
	}
	return nil
}

// RemoveMemory drops the vector for a deleted memory. Missing vectors are
// not an error; the foreign key cascade usually removes them first.
func (s *SemanticIndex) RemoveMemory(ctx context.Context, memoryID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM memory_embeddings WHERE memory_id = $1`, memoryID); err != nil {
		return fmt.Errorf("journal: remove memory embedding %q: %w", memoryID, err)
	}
	return nil
}

// Search embeds the query and returns the user's topK most similar
// memories, ordered by ascending cosine distance.
func (s *SemanticIndex) Search(ctx context.Context, userID, query string, topK int) ([]SemanticHit, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("journal: embed query: %w", err)
	}

	const q = `
		SELECT m.id, m.user_id, m.title, m.description, m.category, m.image_url,
		       m.date, m.tags, m.audio_note, m.created_at,
		       e.embedding <=> $1 AS distance
		FROM memory_embeddings e
		JOIN memories m ON m.id = e.memory_id
		WHERE e.user_id = $2
		ORDER BY distance
		LIMIT $3`

	rows, err := s.db.Query(ctx, q, pgvector.NewVector(vec), userID, topK)
	if err != nil {
		return nil, fmt.Errorf("journal: semantic search: %w", err)
	}
	defer rows.Close()

	hits := []SemanticHit{}
	for rows.Next() {
		var (
			hit      SemanticHit
			category string
			tagsJSON []byte
		)
		if err := rows.Scan(
			&hit.Memory.ID, &hit.Memory.UserID, &hit.Memory.Title, &hit.Memory.Description,
			&category, &hit.Memory.ImageURL, &hit.Memory.Date, &tagsJSON,
			&hit.Memory.AudioNote, &hit.Memory.CreatedAt, &hit.Distance,
		); err != nil {
			return nil, fmt.Errorf("journal: semantic search scan: %w", err)
		}
		hit.Memory.Category = Category(category)
		if err := json.Unmarshal(tagsJSON, &hit.Memory.Tags); err != nil {
			return nil, fmt.Errorf("journal: unmarshal tags: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: semantic search: %w", err)
	}
	return hits, nil
}

// embeddingText flattens a memory into the text that gets embedded.
func embeddingText(m Memory) string {
	parts := []string{m.Title}
	if m.Description != "" {
		parts = append(parts, m.Description)
	}
	if len(m.Tags) > 0 {
		parts = append(parts, strings.Join(m.Tags, " "))
	}
	return strings.Join(parts, ". ")
}
