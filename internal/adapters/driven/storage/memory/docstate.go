package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
	"github.com/custodia-labs/mailrag-cli/internal/core/ports/driven"
)

// Ensure DocumentStateStore implements the interface.
var _ driven.DocumentStateStore = (*DocumentStateStore)(nil)

type docKey struct {
	userID   string
	source   domain.SourceKind
	sourceID string
}

// DocumentStateStore is an in-memory implementation of
// driven.DocumentStateStore.
type DocumentStateStore struct {
	mu   sync.Mutex
	docs map[docKey]domain.SourceDocument

	// SaveErrs, when non-empty, is consumed one entry per SaveDocument
	// call. Useful for exercising retry paths in tests.
	SaveErrs []error
}

// NewDocumentStateStore creates a new in-memory document state store.
func NewDocumentStateStore() *DocumentStateStore {
	return &DocumentStateStore{
		docs: make(map[docKey]domain.SourceDocument),
	}
}

// GetDocument retrieves document state.
func (s *DocumentStateStore) GetDocument(_ context.Context, userID string, source domain.SourceKind, sourceID string) (*domain.SourceDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[docKey{userID, source, sourceID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// SaveDocument stores or updates document metadata, preserving the
// processed flag and claim of an existing record.
func (s *DocumentStateStore) SaveDocument(_ context.Context, doc *domain.SourceDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.SaveErrs) > 0 {
		err := s.SaveErrs[0]
		s.SaveErrs = s.SaveErrs[1:]
		if err != nil {
			return err
		}
	}

	key := docKey{doc.UserID, doc.Source, doc.SourceID}
	stored := *doc
	if existing, ok := s.docs[key]; ok {
		stored.Processed = existing.Processed
		stored.ClaimedAt = existing.ClaimedAt
		stored.CreatedAt = existing.CreatedAt
	}
	s.docs[key] = stored
	return nil
}

// TryClaim atomically claims a document for processing.
func (s *DocumentStateStore) TryClaim(_ context.Context, userID string, source domain.SourceKind, sourceID string, now time.Time, staleAfter time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := docKey{userID, source, sourceID}
	doc, ok := s.docs[key]
	if !ok {
		return domain.ErrNotFound
	}
	if doc.ClaimedAt != nil && now.Sub(*doc.ClaimedAt) < staleAfter {
		return domain.ErrClaimHeld
	}
	doc.ClaimedAt = &now
	s.docs[key] = doc
	return nil
}

// ReleaseClaim drops a claim without marking the document processed.
func (s *DocumentStateStore) ReleaseClaim(_ context.Context, userID string, source domain.SourceKind, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := docKey{userID, source, sourceID}
	doc, ok := s.docs[key]
	if !ok {
		return domain.ErrNotFound
	}
	doc.ClaimedAt = nil
	s.docs[key] = doc
	return nil
}

// MarkProcessed sets the processed flag and releases any claim.
func (s *DocumentStateStore) MarkProcessed(_ context.Context, userID string, source domain.SourceKind, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := docKey{userID, source, sourceID}
	doc, ok := s.docs[key]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Processed = true
	doc.ClaimedAt = nil
	s.docs[key] = doc
	return nil
}

// DeleteUser removes all document state belonging to a user.
func (s *DocumentStateStore) DeleteUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.docs {
		if key.userID == userID {
			delete(s.docs, key)
		}
	}
	return nil
}
