package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
)

func testDoc(userID, sourceID string) *domain.SourceDocument {
	return &domain.SourceDocument{
		UserID:    userID,
		Source:    domain.SourceEmail,
		SourceID:  sourceID,
		Subject:   "Quarterly review",
		Sender:    "alice@example.com",
		Timestamp: time.Now(),
	}
}

func TestDocumentStateStore_SavePreservesProcessed(t *testing.T) {
	store := NewDocumentStateStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDoc("user-1", "msg-1")))
	require.NoError(t, store.MarkProcessed(ctx, "user-1", domain.SourceEmail, "msg-1"))

	// A later metadata refresh must not clear the processed flag.
	updated := testDoc("user-1", "msg-1")
	updated.Subject = "Quarterly review (updated)"
	require.NoError(t, store.SaveDocument(ctx, updated))

	doc, err := store.GetDocument(ctx, "user-1", domain.SourceEmail, "msg-1")
	require.NoError(t, err)
	assert.True(t, doc.Processed)
	assert.Equal(t, "Quarterly review (updated)", doc.Subject)
}

func TestDocumentStateStore_GetDocument_NotFound(t *testing.T) {
	store := NewDocumentStateStore()

	_, err := store.GetDocument(context.Background(), "user-1", domain.SourceEmail, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStateStore_TryClaim(t *testing.T) {
	store := NewDocumentStateStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.SaveDocument(ctx, testDoc("user-1", "msg-1")))

	t.Run("first claim succeeds", func(t *testing.T) {
		err := store.TryClaim(ctx, "user-1", domain.SourceEmail, "msg-1", now, 10*time.Minute)
		require.NoError(t, err)
	})

	t.Run("second claim is refused", func(t *testing.T) {
		err := store.TryClaim(ctx, "user-1", domain.SourceEmail, "msg-1", now.Add(time.Minute), 10*time.Minute)
		assert.ErrorIs(t, err, domain.ErrClaimHeld)
	})

	t.Run("stale claim can be taken over", func(t *testing.T) {
		err := store.TryClaim(ctx, "user-1", domain.SourceEmail, "msg-1", now.Add(time.Hour), 10*time.Minute)
		require.NoError(t, err)
	})

	t.Run("unknown document", func(t *testing.T) {
		err := store.TryClaim(ctx, "user-1", domain.SourceEmail, "missing", now, 10*time.Minute)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestDocumentStateStore_ReleaseClaim(t *testing.T) {
	store := NewDocumentStateStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.SaveDocument(ctx, testDoc("user-1", "msg-1")))
	require.NoError(t, store.TryClaim(ctx, "user-1", domain.SourceEmail, "msg-1", now, 10*time.Minute))
	require.NoError(t, store.ReleaseClaim(ctx, "user-1", domain.SourceEmail, "msg-1"))

	// Released claim frees the slot for the next run.
	err := store.TryClaim(ctx, "user-1", domain.SourceEmail, "msg-1", now.Add(time.Second), 10*time.Minute)
	require.NoError(t, err)

	doc, err := store.GetDocument(ctx, "user-1", domain.SourceEmail, "msg-1")
	require.NoError(t, err)
	assert.False(t, doc.Processed)
}

func TestDocumentStateStore_MarkProcessed_ReleasesClaim(t *testing.T) {
	store := NewDocumentStateStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDoc("user-1", "msg-1")))
	require.NoError(t, store.TryClaim(ctx, "user-1", domain.SourceEmail, "msg-1", time.Now(), 10*time.Minute))
	require.NoError(t, store.MarkProcessed(ctx, "user-1", domain.SourceEmail, "msg-1"))

	doc, err := store.GetDocument(ctx, "user-1", domain.SourceEmail, "msg-1")
	require.NoError(t, err)
	assert.True(t, doc.Processed)
	assert.Nil(t, doc.ClaimedAt)
}

func TestDocumentStateStore_DeleteUser(t *testing.T) {
	store := NewDocumentStateStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDoc("user-1", "msg-1")))
	require.NoError(t, store.SaveDocument(ctx, testDoc("user-1", "msg-2")))
	require.NoError(t, store.SaveDocument(ctx, testDoc("user-2", "msg-1")))

	require.NoError(t, store.DeleteUser(ctx, "user-1"))

	_, err := store.GetDocument(ctx, "user-1", domain.SourceEmail, "msg-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.GetDocument(ctx, "user-1", domain.SourceEmail, "msg-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.GetDocument(ctx, "user-2", domain.SourceEmail, "msg-1")
	assert.NoError(t, err)
}
