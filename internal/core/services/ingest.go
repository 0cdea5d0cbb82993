package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
	"github.com/custodia-labs/mailrag-cli/internal/core/ports/driven"
	"github.com/custodia-labs/mailrag-cli/internal/core/ports/driving"
	"github.com/custodia-labs/mailrag-cli/internal/logger"
	"github.com/custodia-labs/mailrag-cli/internal/segmenter"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

const (
	// defaultClaimTTL is how long a document claim is honoured before
	// it is considered abandoned by a crashed run.
	defaultClaimTTL = 10 * time.Minute

	// metadataRetryAttempts bounds retries of document metadata writes.
	metadataRetryAttempts = 3
)

// IngestService pulls messages from configured sources and turns them
// into embedded chunks.
type IngestService struct {
	sources    []driven.MailboxSource
	docStore   driven.DocumentStateStore
	chunkStore driven.ChunkStore
	runStore   driven.IngestRunStore
	embedder   driven.EmbeddingService
	seg        *segmenter.Segmenter

	claimTTL  time.Duration
	retryBase time.Duration
	now       func() time.Time
}

// IngestOption configures an IngestService.
type IngestOption func(*IngestService)

// WithClaimTTL overrides how long document claims are honoured.
func WithClaimTTL(ttl time.Duration) IngestOption {
	return func(s *IngestService) {
		if ttl > 0 {
			s.claimTTL = ttl
		}
	}
}

// WithRetryBase overrides the initial backoff for metadata write retries.
func WithRetryBase(d time.Duration) IngestOption {
	return func(s *IngestService) {
		if d > 0 {
			s.retryBase = d
		}
	}
}

// WithClock overrides the time source. Useful for testing.
func WithClock(now func() time.Time) IngestOption {
	return func(s *IngestService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	sources []driven.MailboxSource,
	docStore driven.DocumentStateStore,
	chunkStore driven.ChunkStore,
	runStore driven.IngestRunStore,
	embedder driven.EmbeddingService,
	seg *segmenter.Segmenter,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		sources:    sources,
		docStore:   docStore,
		chunkStore: chunkStore,
		runStore:   runStore,
		embedder:   embedder,
		seg:        seg,
		claimTTL:   defaultClaimTTL,
		retryBase:  500 * time.Millisecond,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartIngest begins a background ingestion run and returns its ID
// immediately. The run record is persisted before this returns, so the
// ID can be polled straight away with Status.
func (s *IngestService) StartIngest(ctx context.Context, userID string, limit int) (string, error) {
	run, err := s.createRun(ctx, userID)
	if err != nil {
		return "", err
	}

	// The run outlives the request that started it.
	bg := context.WithoutCancel(ctx)
	go func() {
		s.execute(bg, run, limit)
	}()

	return run.ID, nil
}

// Ingest runs an ingestion pass synchronously.
func (s *IngestService) Ingest(ctx context.Context, userID string, limit int) (*domain.IngestRun, error) {
	run, err := s.createRun(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.execute(ctx, run, limit)
	return run, nil
}

// Status reports the state of a run by ID.
func (s *IngestService) Status(ctx context.Context, runID string) (*domain.IngestRun, error) {
	return s.runStore.GetRun(ctx, runID)
}

// LatestStatus reports the most recent run for a user.
func (s *IngestService) LatestStatus(ctx context.Context, userID string) (*domain.IngestRun, error) {
	return s.runStore.LatestRun(ctx, userID)
}

// PurgeUser deletes all ingested data for a user: chunks, document
// state, and run history. Refused while a run for the user is in
// flight, since that run would repopulate the stores mid-delete.
func (s *IngestService) PurgeUser(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user ID is required", domain.ErrInvalidInput)
	}

	if active, err := s.runStore.ActiveRun(ctx, userID); err == nil && active != nil {
		return fmt.Errorf("%w: run %s", domain.ErrIngestInProgress, active.ID)
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("check active run: %w", err)
	}

	if err := s.chunkStore.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if err := s.docStore.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	if err := s.runStore.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("delete runs: %w", err)
	}

	logger.Info("Purged all data for user %s", userID)
	return nil
}

// createRun persists a queued run record, refusing when a run for the
// user is already in flight.
func (s *IngestService) createRun(ctx context.Context, userID string) (*domain.IngestRun, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", domain.ErrInvalidInput)
	}

	if active, err := s.runStore.ActiveRun(ctx, userID); err == nil && active != nil {
		return nil, fmt.Errorf("%w: run %s", domain.ErrIngestInProgress, active.ID)
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check active run: %w", err)
	}

	run := &domain.IngestRun{
		ID:        uuid.New().String(),
		UserID:    userID,
		State:     domain.RunQueued,
		CreatedAt: s.now(),
	}
	if err := s.runStore.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}
	return run, nil
}

// execute drives a run to a terminal state. Individual document
// failures are counted but never abort the run; only a source that
// cannot be reached at all fails it.
func (s *IngestService) execute(ctx context.Context, run *domain.IngestRun, limit int) {
	logger.Section("Ingestion Run")
	logger.Info("Run %s started for user %s", run.ID, run.UserID)

	run.State = domain.RunRunning
	run.StartedAt = s.now()
	if err := s.runStore.SaveRun(ctx, run); err != nil {
		logger.Warn("Failed to persist run state: %v", err)
	}

	var sourceErrs []error
	for _, src := range s.sources {
		if err := s.ingestSource(ctx, run, src, limit); err != nil {
			logger.Warn("Source %s failed: %v", src.Source(), err)
			sourceErrs = append(sourceErrs, fmt.Errorf("%s: %w", src.Source(), err))
		}
		// Checkpoint between sources so pollers see progress.
		if err := s.runStore.SaveRun(ctx, run); err != nil {
			logger.Warn("Failed to checkpoint run: %v", err)
		}
	}

	run.FinishedAt = s.now()
	if len(sourceErrs) == len(s.sources) && len(s.sources) > 0 {
		run.State = domain.RunFailed
		run.Error = errors.Join(sourceErrs...).Error()
	} else {
		run.State = domain.RunSucceeded
		if len(sourceErrs) > 0 {
			run.Error = errors.Join(sourceErrs...).Error()
		}
	}

	if err := s.runStore.SaveRun(ctx, run); err != nil {
		logger.Warn("Failed to persist final run state: %v", err)
	}
	logger.Info("Run %s finished: %d processed, %d skipped, %d chunks, %d errors",
		run.ID, run.DocumentsProcessed, run.DocumentsSkipped, run.ChunksStored, run.ErrorCount)
}

// ingestSource fetches recent messages from one source and processes
// them sequentially.
func (s *IngestService) ingestSource(ctx context.Context, run *domain.IngestRun, src driven.MailboxSource, limit int) error {
	messages, err := src.FetchRecent(ctx, limit)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrMailboxUnavailable, err)
	}
	logger.Info("Fetched %d messages from %s", len(messages), src.Source())

	for i := range messages {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		switch err := s.processMessage(ctx, run.UserID, &messages[i], run); {
		case err == nil:
		case errors.Is(err, errAlreadyProcessed), errors.Is(err, domain.ErrClaimHeld):
			run.DocumentsSkipped++
		default:
			run.ErrorCount++
			logger.Debug("Failed to process %s/%s: %v", messages[i].Source, messages[i].ID, err)
		}
	}
	return nil
}

// errAlreadyProcessed signals a document that was fully ingested by an
// earlier run.
var errAlreadyProcessed = errors.New("document already processed")

// processMessage runs the per-document pipeline: metadata upsert,
// claim, segment, embed, store, mark processed.
func (s *IngestService) processMessage(ctx context.Context, userID string, msg *domain.Message, run *domain.IngestRun) error {
	doc := msg.SourceDocument(userID)

	existing, err := s.docStore.GetDocument(ctx, userID, msg.Source, msg.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("get document state: %w", err)
	}
	if existing != nil && existing.Processed {
		return errAlreadyProcessed
	}

	if err := s.saveDocumentWithRetry(ctx, &doc); err != nil {
		return fmt.Errorf("save document state: %w", err)
	}

	if err := s.docStore.TryClaim(ctx, userID, msg.Source, msg.ID, s.now(), s.claimTTL); err != nil {
		return err
	}

	chunks, err := s.chunkMessage(userID, msg)
	if err == nil && len(chunks) > 0 {
		err = s.embedChunks(ctx, chunks)
		if err == nil {
			err = s.chunkStore.SaveChunks(ctx, chunks)
			if err != nil {
				err = fmt.Errorf("%w: save chunks: %w", domain.ErrStorage, err)
			}
		}
	}
	if err != nil {
		if relErr := s.docStore.ReleaseClaim(ctx, userID, msg.Source, msg.ID); relErr != nil {
			logger.Debug("Failed to release claim for %s/%s: %v", msg.Source, msg.ID, relErr)
		}
		return err
	}

	// The processed flag is only set after chunks are durably stored,
	// so a crash between the two re-ingests rather than drops.
	if err := s.docStore.MarkProcessed(ctx, userID, msg.Source, msg.ID); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}

	run.DocumentsProcessed++
	run.ChunksStored += len(chunks)
	return nil
}

// chunkMessage segments a message body into chunks carrying the
// message's metadata. Messages that clean down to nothing produce no
// chunks and are still marked processed.
func (s *IngestService) chunkMessage(userID string, msg *domain.Message) ([]domain.Chunk, error) {
	segments := s.seg.Segment(msg.Body)
	if len(segments) == 0 {
		logger.Debug("Message %s/%s is empty after cleaning", msg.Source, msg.ID)
		return nil, nil
	}

	meta := msg.Metadata()
	meta["embedding_model"] = s.embedder.ModelName()
	created := s.now()
	chunks := make([]domain.Chunk, len(segments))
	for i, content := range segments {
		chunks[i] = domain.Chunk{
			ID:        uuid.New().String(),
			UserID:    userID,
			Source:    msg.Source,
			SourceID:  msg.ID,
			Position:  i,
			Content:   content,
			Metadata:  meta,
			CreatedAt: created,
		}
	}
	return chunks, nil
}

// embedChunks fills in embeddings for a batch of chunks.
func (s *IngestService) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("%w: got %d embeddings for %d chunks",
			domain.ErrEmbeddingService, len(embeddings), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}
	return nil
}

// saveDocumentWithRetry writes document metadata with bounded
// exponential backoff. Transient storage contention is the common
// failure here and almost always clears within a retry or two.
func (s *IngestService) saveDocumentWithRetry(ctx context.Context, doc *domain.SourceDocument) error {
	backoff := s.retryBase
	var lastErr error
	for attempt := 1; attempt <= metadataRetryAttempts; attempt++ {
		lastErr = s.docStore.SaveDocument(ctx, doc)
		if lastErr == nil {
			return nil
		}
		if attempt == metadataRetryAttempts {
			break
		}
		logger.Debug("Metadata write attempt %d failed: %v", attempt, lastErr)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return fmt.Errorf("%w: %w", domain.ErrStorage, lastErr)
}
