// Package memory provides in-memory store implementations. They back
// tests and serve as the reference semantics for the SQLite stores.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
	"github.com/custodia-labs/mailrag-cli/internal/core/ports/driven"
	"github.com/custodia-labs/mailrag-cli/internal/vector"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// slotKey identifies a chunk's slot; a second write to the same slot
// replaces the first.
type slotKey struct {
	userID   string
	source   domain.SourceKind
	sourceID string
	position int
}

// ChunkStore is an in-memory implementation of driven.ChunkStore.
type ChunkStore struct {
	mu     sync.RWMutex
	chunks map[slotKey]domain.Chunk
	metric vector.Metric
}

// NewChunkStore creates a new in-memory chunk store using L2 distance.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		chunks: make(map[slotKey]domain.Chunk),
		metric: vector.MetricL2,
	}
}

// NewChunkStoreWithMetric creates a chunk store with a specific metric.
func NewChunkStoreWithMetric(m vector.Metric) *ChunkStore {
	s := NewChunkStore()
	s.metric = m
	return s
}

// SaveChunks stores a batch of chunks, replacing earlier chunks in the
// same slots.
func (s *ChunkStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		key := slotKey{c.UserID, c.Source, c.SourceID, c.Position}
		s.chunks[key] = c
	}
	return nil
}

// NearestChunks returns up to k chunks closest to the query embedding,
// ascending by distance with chunk ID as the tie-break.
func (s *ChunkStore) NearestChunks(_ context.Context, userID string, query []float32, filter domain.ChunkFilter, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		k = domain.DefaultK
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var scored []domain.ScoredChunk
	for _, c := range s.chunks {
		if c.UserID != userID || !filter.Matches(&c) {
			continue
		}
		dist, err := s.metric.Distance(query, c.Embedding)
		if err != nil {
			return nil, err
		}
		scored = append(scored, domain.ScoredChunk{Chunk: c, Distance: dist})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Distance != scored[j].Distance {
			return scored[i].Distance < scored[j].Distance
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// RecentChunks returns up to limit chunks for a user and source,
// newest first.
func (s *ChunkStore) RecentChunks(_ context.Context, userID string, source domain.SourceKind, limit int) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Chunk
	for _, c := range s.chunks {
		if c.UserID == userID && c.Source == source {
			result = append(result, c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// CountChunks reports the number of stored chunks for a user.
func (s *ChunkStore) CountChunks(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, c := range s.chunks {
		if c.UserID == userID {
			count++
		}
	}
	return count, nil
}

// DeleteUser removes all chunks belonging to a user.
func (s *ChunkStore) DeleteUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.chunks {
		if key.userID == userID {
			delete(s.chunks, key)
		}
	}
	return nil
}
