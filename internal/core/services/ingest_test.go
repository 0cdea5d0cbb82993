package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mailrag-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
	"github.com/custodia-labs/mailrag-cli/internal/core/ports/driven"
	"github.com/custodia-labs/mailrag-cli/internal/segmenter"
)

// --- Mock implementations for ingest testing ---

// ingestMockSource implements driven.MailboxSource.
type ingestMockSource struct {
	source   domain.SourceKind
	messages []domain.Message
	fetchErr error
	closed   bool
}

func (m *ingestMockSource) Source() domain.SourceKind { return m.source }

func (m *ingestMockSource) FetchRecent(_ context.Context, limit int) ([]domain.Message, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	if limit > 0 && len(m.messages) > limit {
		return m.messages[:limit], nil
	}
	return m.messages, nil
}

func (m *ingestMockSource) Close() error {
	m.closed = true
	return nil
}

// ingestMockEmbedder implements driven.EmbeddingService.
type ingestMockEmbedder struct {
	embedErr   error
	shortBatch bool
	calls      int
}

func (m *ingestMockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (m *ingestMockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	n := len(texts)
	if m.shortBatch && n > 0 {
		n--
	}
	vecs := make([][]float32, n)
	for i := range vecs {
		vecs[i] = []float32{float32(len(texts[i])), 1}
	}
	return vecs, nil
}

func (m *ingestMockEmbedder) Dimensions() int              { return 2 }
func (m *ingestMockEmbedder) ModelName() string            { return "mock-embed" }
func (m *ingestMockEmbedder) Ping(_ context.Context) error { return nil }
func (m *ingestMockEmbedder) Close() error                 { return nil }

var _ driven.EmbeddingService = (*ingestMockEmbedder)(nil)
var _ driven.MailboxSource = (*ingestMockSource)(nil)

func testMessage(id, body string) domain.Message {
	return domain.Message{
		ID:        id,
		ThreadID:  "thread-" + id,
		Subject:   "Subject " + id,
		Sender:    "alice@example.com",
		Body:      body,
		Timestamp: time.Now(),
		Source:    domain.SourceEmail,
	}
}

func newTestIngest(sources []driven.MailboxSource, embedder driven.EmbeddingService, opts ...IngestOption) (*IngestService, *memory.ChunkStore, *memory.DocumentStateStore, *memory.IngestRunStore) {
	chunkStore := memory.NewChunkStore()
	docStore := memory.NewDocumentStateStore()
	runStore := memory.NewIngestRunStore()
	svc := NewIngestService(
		sources, docStore, chunkStore, runStore, embedder,
		segmenter.New(),
		append([]IngestOption{WithRetryBase(time.Millisecond)}, opts...)...,
	)
	return svc, chunkStore, docStore, runStore
}

func TestIngest_StoresChunks(t *testing.T) {
	src := &ingestMockSource{
		source: domain.SourceEmail,
		messages: []domain.Message{
			testMessage("msg-1", "Lunch at noon tomorrow. Bring the slides."),
			testMessage("msg-2", "The contract is signed. We start Monday."),
		},
	}
	svc, chunkStore, docStore, _ := newTestIngest([]driven.MailboxSource{src}, &ingestMockEmbedder{})

	run, err := svc.Ingest(context.Background(), "user-1", 0)
	require.NoError(t, err)

	assert.Equal(t, domain.RunSucceeded, run.State)
	assert.Equal(t, 2, run.DocumentsProcessed)
	assert.Zero(t, run.ErrorCount)
	assert.Equal(t, run.ChunksStored, 2)

	count, err := chunkStore.CountChunks(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	doc, err := docStore.GetDocument(context.Background(), "user-1", domain.SourceEmail, "msg-1")
	require.NoError(t, err)
	assert.True(t, doc.Processed)
}

func TestIngest_StampsChunksAtIngestTime(t *testing.T) {
	msg := testMessage("msg-1", "The meeting moved to Friday. Same room as before.")
	msg.Timestamp = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	src := &ingestMockSource{source: domain.SourceEmail, messages: []domain.Message{msg}}

	ingestedAt := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc, chunkStore, _, _ := newTestIngest([]driven.MailboxSource{src}, &ingestMockEmbedder{},
		WithClock(func() time.Time { return ingestedAt }))

	_, err := svc.Ingest(context.Background(), "user-1", 0)
	require.NoError(t, err)

	chunks, err := chunkStore.RecentChunks(context.Background(), "user-1", domain.SourceEmail, 0)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		// CreatedAt records when the chunk was embedded and stored; the
		// message date stays available under the timestamp metadata key.
		assert.Equal(t, ingestedAt, chunk.CreatedAt)
		assert.Equal(t, msg.Timestamp.UnixMilli(), chunk.Metadata["timestamp"])
	}
}

func TestIngest_RecordsEmbeddingModelInMetadata(t *testing.T) {
	src := &ingestMockSource{
		source:   domain.SourceEmail,
		messages: []domain.Message{testMessage("msg-1", "Budget approved. Invoices go out Thursday.")},
	}
	svc, chunkStore, _, _ := newTestIngest([]driven.MailboxSource{src}, &ingestMockEmbedder{})

	_, err := svc.Ingest(context.Background(), "user-1", 0)
	require.NoError(t, err)

	chunks, err := chunkStore.RecentChunks(context.Background(), "user-1", domain.SourceEmail, 0)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.Equal(t, "mock-embed", chunk.Metadata["embedding_model"])
	}
}

func TestIngest_SkipsProcessedDocuments(t *testing.T) {
	src := &ingestMockSource{
		source:   domain.SourceEmail,
		messages: []domain.Message{testMessage("msg-1", "Same message both runs.")},
	}
	embedder := &ingestMockEmbedder{}
	svc, _, _, _ := newTestIngest([]driven.MailboxSource{src}, embedder)

	run1, err := svc.Ingest(context.Background(), "user-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, run1.DocumentsProcessed)

	run2, err := svc.Ingest(context.Background(), "user-1", 0)
	require.NoError(t, err)
	assert.Zero(t, run2.DocumentsProcessed)
	assert.Equal(t, 1, run2.DocumentsSkipped)
	assert.Equal(t, 1, embedder.calls, "processed documents must not be re-embedded")
}

func TestIngest_DocumentFailureDoesNotAbortRun(t *testing.T) {
	src := &ingestMockSource{
		source: domain.SourceEmail,
		messages: []domain.Message{
			testMessage("msg-1", "First message survives."),
			testMessage("msg-2", "Second message fails to embed."),
			testMessage("msg-3", "Third message survives too."),
		},
	}
	embedder := &ingestMockEmbedder{}
	svc, chunkStore, docStore, _ := newTestIngest([]driven.MailboxSource{src}, embedder)

	// Fail only the second document's embedding call.
	failing := &flakyEmbedder{inner: embedder, failOn: 2}
	svc.embedder = failing

	run, err := svc.Ingest(context.Background(), "user-1", 0)
	require.NoError(t, err)

	assert.Equal(t, domain.RunSucceeded, run.State)
	assert.Equal(t, 2, run.DocumentsProcessed)
	assert.Equal(t, 1, run.ErrorCount)

	count, err := chunkStore.CountChunks(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// The failed document keeps its metadata but stays unprocessed and
	// unclaimed, so the next run picks it up again.
	doc, err := docStore.GetDocument(context.Background(), "user-1", domain.SourceEmail, "msg-2")
	require.NoError(t, err)
	assert.False(t, doc.Processed)
	assert.Nil(t, doc.ClaimedAt)
}

// flakyEmbedder fails the nth EmbedBatch call.
type flakyEmbedder struct {
	inner  *ingestMockEmbedder
	failOn int
	calls  int
}

func (f *flakyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.inner.Embed(ctx, text)
}

func (f *flakyEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.calls == f.failOn {
		return nil, errors.New("embedding backend down")
	}
	return f.inner.EmbedBatch(ctx, texts)
}

func (f *flakyEmbedder) Dimensions() int                { return f.inner.Dimensions() }
func (f *flakyEmbedder) ModelName() string              { return f.inner.ModelName() }
func (f *flakyEmbedder) Ping(ctx context.Context) error { return f.inner.Ping(ctx) }
func (f *flakyEmbedder) Close() error                   { return nil }

func TestIngest_EmbeddingCountMismatch(t *testing.T) {
	src := &ingestMockSource{
		source:   domain.SourceEmail,
		messages: []domain.Message{testMessage("msg-1", "One message.")},
	}
	svc, chunkStore, _, _ := newTestIngest([]driven.MailboxSource{src}, &ingestMockEmbedder{shortBatch: true})

	run, err := svc.Ingest(context.Background(), "user-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, run.ErrorCount)

	count, err := chunkStore.CountChunks(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Zero(t, count, "mismatched batch must not be stored")
}

func TestIngest_EmptyBodyMarkedProcessed(t *testing.T) {
	src := &ingestMockSource{
		source:   domain.SourceEmail,
		messages: []domain.Message{testMessage("msg-1", "--\nJust a signature\nNothing else")},
	}
	svc, chunkStore, docStore, _ := newTestIngest([]driven.MailboxSource{src}, &ingestMockEmbedder{})

	run, err := svc.Ingest(context.Background(), "user-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, run.DocumentsProcessed)
	assert.Zero(t, run.ChunksStored)

	count, err := chunkStore.CountChunks(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Zero(t, count)

	doc, err := docStore.GetDocument(context.Background(), "user-1", domain.SourceEmail, "msg-1")
	require.NoError(t, err)
	assert.True(t, doc.Processed, "empty documents are marked processed so they are not refetched")
}

func TestIngest_SourceUnavailableFailsRun(t *testing.T) {
	src := &ingestMockSource{
		source:   domain.SourceEmail,
		fetchErr: errors.New("connection refused"),
	}
	svc, _, _, _ := newTestIngest([]driven.MailboxSource{src}, &ingestMockEmbedder{})

	run, err := svc.Ingest(context.Background(), "user-1", 0)
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, run.State)
	assert.Contains(t, run.Error, "connection refused")
}

func TestIngest_PartialSourceFailure(t *testing.T) {
	good := &ingestMockSource{
		source:   domain.SourceEmail,
		messages: []domain.Message{testMessage("msg-1", "Email works fine.")},
	}
	bad := &ingestMockSource{
		source:   domain.SourceDrive,
		fetchErr: errors.New("quota exceeded"),
	}
	svc, _, _, _ := newTestIngest([]driven.MailboxSource{good, bad}, &ingestMockEmbedder{})

	run, err := svc.Ingest(context.Background(), "user-1", 0)
	require.NoError(t, err)

	// One source out of two succeeded, so the run still succeeds with
	// the failure recorded.
	assert.Equal(t, domain.RunSucceeded, run.State)
	assert.Equal(t, 1, run.DocumentsProcessed)
	assert.Contains(t, run.Error, "quota exceeded")
}

func TestIngest_MetadataWriteRetries(t *testing.T) {
	src := &ingestMockSource{
		source:   domain.SourceEmail,
		messages: []domain.Message{testMessage("msg-1", "Retry me.")},
	}
	svc, _, docStore, _ := newTestIngest([]driven.MailboxSource{src}, &ingestMockEmbedder{})

	// Two transient failures, then success: within the retry budget.
	docStore.SaveErrs = []error{errors.New("database is locked"), errors.New("database is locked")}

	run, err := svc.Ingest(context.Background(), "user-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, run.DocumentsProcessed)
	assert.Zero(t, run.ErrorCount)
}

func TestIngest_MetadataWriteExhaustsRetries(t *testing.T) {
	src := &ingestMockSource{
		source:   domain.SourceEmail,
		messages: []domain.Message{testMessage("msg-1", "Never stored.")},
	}
	svc, _, docStore, _ := newTestIngest([]driven.MailboxSource{src}, &ingestMockEmbedder{})

	docStore.SaveErrs = []error{
		errors.New("database is locked"),
		errors.New("database is locked"),
		errors.New("database is locked"),
	}

	run, err := svc.Ingest(context.Background(), "user-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, run.ErrorCount)
	assert.Zero(t, run.DocumentsProcessed)
}

func TestStartIngest_ReturnsImmediately(t *testing.T) {
	var messages []domain.Message
	for i := 0; i < 20; i++ {
		messages = append(messages, testMessage(fmt.Sprintf("msg-%d", i), "Some message body."))
	}
	src := &ingestMockSource{source: domain.SourceEmail, messages: messages}
	svc, _, _, runStore := newTestIngest([]driven.MailboxSource{src}, &ingestMockEmbedder{})

	runID, err := svc.StartIngest(context.Background(), "user-1", 0)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	// The run record is pollable straight away.
	run, err := runStore.GetRun(context.Background(), runID)
	require.NoError(t, err)
	assert.NotNil(t, run)

	// And eventually reaches a terminal state.
	require.Eventually(t, func() bool {
		run, err := runStore.GetRun(context.Background(), runID)
		return err == nil && run.Terminal()
	}, 5*time.Second, 10*time.Millisecond)

	final, err := svc.Status(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunSucceeded, final.State)
	assert.Equal(t, 20, final.DocumentsProcessed)
}

func TestStartIngest_RefusesConcurrentRun(t *testing.T) {
	svc, _, _, runStore := newTestIngest(nil, &ingestMockEmbedder{})

	require.NoError(t, runStore.SaveRun(context.Background(), &domain.IngestRun{
		ID: "run-1", UserID: "user-1", State: domain.RunRunning,
	}))

	_, err := svc.StartIngest(context.Background(), "user-1", 0)
	assert.ErrorIs(t, err, domain.ErrIngestInProgress)
}

func TestIngest_RequiresUserID(t *testing.T) {
	svc, _, _, _ := newTestIngest(nil, &ingestMockEmbedder{})

	_, err := svc.Ingest(context.Background(), "", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPurgeUser_DeletesChunksDocumentsAndRuns(t *testing.T) {
	ctx := context.Background()
	src := &ingestMockSource{
		source:   domain.SourceEmail,
		messages: []domain.Message{testMessage("msg-1", "Quarterly numbers attached. Review before Friday.")},
	}
	svc, chunkStore, docStore, runStore := newTestIngest([]driven.MailboxSource{src}, &ingestMockEmbedder{})

	_, err := svc.Ingest(ctx, "user-1", 0)
	require.NoError(t, err)

	require.NoError(t, svc.PurgeUser(ctx, "user-1"))

	count, err := chunkStore.CountChunks(ctx, "user-1")
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = docStore.GetDocument(ctx, "user-1", domain.SourceEmail, "msg-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = runStore.LatestRun(ctx, "user-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPurgeUser_LeavesOtherUsersIntact(t *testing.T) {
	ctx := context.Background()
	src := &ingestMockSource{
		source:   domain.SourceEmail,
		messages: []domain.Message{testMessage("msg-1", "Shared agenda for the offsite next month.")},
	}
	svc, chunkStore, _, _ := newTestIngest([]driven.MailboxSource{src}, &ingestMockEmbedder{})

	_, err := svc.Ingest(ctx, "user-1", 0)
	require.NoError(t, err)

	require.NoError(t, svc.PurgeUser(ctx, "user-2"))

	count, err := chunkStore.CountChunks(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPurgeUser_RefusedWhileRunActive(t *testing.T) {
	ctx := context.Background()
	svc, _, _, runStore := newTestIngest(nil, &ingestMockEmbedder{})

	require.NoError(t, runStore.SaveRun(ctx, &domain.IngestRun{
		ID:     "run-1",
		UserID: "user-1",
		State:  domain.RunRunning,
	}))

	err := svc.PurgeUser(ctx, "user-1")
	assert.ErrorIs(t, err, domain.ErrIngestInProgress)
}

func TestPurgeUser_RequiresUserID(t *testing.T) {
	svc, _, _, _ := newTestIngest(nil, &ingestMockEmbedder{})

	err := svc.PurgeUser(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
