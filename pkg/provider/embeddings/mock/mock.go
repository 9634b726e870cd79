// Package mock provides a test double for the embeddings.Provider interface.
//
// Use Provider to return deterministic vectors and to verify the texts passed
// to the embedding backend.
package mock

import (
	"context"
	"sync"

	"github.com/remindai/remind/pkg/provider/embeddings"
)

// Provider is a mock implementation of embeddings.Provider. Vectors are
// deterministic per input length unless Vector is set.
type Provider struct {
	mu sync.Mutex

	// Dims is the dimensionality of returned vectors. Defaults to 4 when zero.
	Dims int

	// Vector, when non-nil, is returned for every Embed call (and every
	// element of EmbedBatch).
	Vector []float32

	// EmbedErr, if non-nil, is returned from Embed and EmbedBatch.
	EmbedErr error

	// EmbedCalls records every text passed to Embed or EmbedBatch, in order.
	EmbedCalls []string
}

func (p *Provider) dims() int {
	if p.Dims <= 0 {
		return 4
	}
	return p.Dims
}

func (p *Provider) vectorFor(text string) []float32 {
	if p.Vector != nil {
		v := make([]float32, len(p.Vector))
		copy(v, p.Vector)
		return v
	}
	// Deterministic pseudo-embedding from the byte content.
	v := make([]float32, p.dims())
	for i, b := range []byte(text) {
		v[i%len(v)] += float32(b) / 255.0
	}
	return v
}

// Embed implements embeddings.Provider.
func (p *Provider) Embed(_ context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.EmbedCalls = append(p.EmbedCalls, text)
	if p.EmbedErr != nil {
		return nil, p.EmbedErr
	}
	return p.vectorFor(text), nil
}

// EmbedBatch implements embeddings.Provider.
func (p *Provider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.EmbedCalls = append(p.EmbedCalls, texts...)
	if p.EmbedErr != nil {
		return nil, p.EmbedErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = p.vectorFor(t)
	}
	return out, nil
}

// Dimensions implements embeddings.Provider.
func (p *Provider) Dimensions() int { return p.dims() }

// ModelID implements embeddings.Provider.
func (p *Provider) ModelID() string { return "mock" }

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.EmbedCalls = nil
}

// Ensure Provider implements embeddings.Provider at compile time.
var _ embeddings.Provider = (*Provider)(nil)
