package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/mailrag-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
	"github.com/custodia-labs/mailrag-cli/internal/core/ports/driven"
	"github.com/custodia-labs/mailrag-cli/internal/vector"
)

// Store is a unified SQLite-based storage that provides access to the
// chunk, document state, and run store interfaces through wrapper types.
type Store struct {
	db     *sql.DB
	path   string
	metric vector.Metric
}

// Option configures a Store.
type Option func(*Store)

// WithMetric sets the distance metric used for retrieval. Defaults to
// L2 distance.
func WithMetric(m vector.Metric) Option {
	return func(s *Store) {
		s.metric = m
	}
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.mailrag/data/mailrag.db.
func NewStore(dataDir string, opts ...Option) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".mailrag", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "mailrag.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:     db,
		path:   dbPath,
		metric: vector.MetricL2,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ChunkStore returns a ChunkStore interface backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{store: s}
}

// DocumentStateStore returns a DocumentStateStore interface backed by this store.
func (s *Store) DocumentStateStore() driven.DocumentStateStore {
	return &documentStateStore{store: s}
}

// IngestRunStore returns an IngestRunStore interface backed by this store.
func (s *Store) IngestRunStore() driven.IngestRunStore {
	return &ingestRunStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Chunk Store ====================

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// SaveChunks stores a batch of chunks in a single transaction. A chunk
// replaces any earlier chunk occupying the same slot.
func (s *chunkStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, user_id, source, source_id, position, content, metadata, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, source, source_id, position) DO UPDATE SET
			id = excluded.id,
			content = excluded.content,
			metadata = excluded.metadata,
			embedding = excluded.embedding,
			created_at = excluded.created_at
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		c := &chunks[i]
		metadataJSON, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}

		_, err = stmt.ExecContext(ctx,
			c.ID, c.UserID, string(c.Source), c.SourceID, c.Position,
			c.Content, string(metadataJSON), float32SliceToBytes(c.Embedding),
			c.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("saving chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing chunks: %w", err)
	}
	return nil
}

// NearestChunks returns up to k chunks closest to the query embedding.
// SQL predicates narrow the candidate set; distances are computed in
// process and sorted ascending with chunk ID as the tie-break.
func (s *chunkStore) NearestChunks(ctx context.Context, userID string, query []float32, filter domain.ChunkFilter, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		k = domain.DefaultK
	}

	sqlQuery := `
		SELECT id, user_id, source, source_id, position, content, metadata, embedding, created_at
		FROM chunks WHERE user_id = ?`
	args := []any{userID}

	if filter.CreatedAfter != nil {
		sqlQuery += " AND created_at >= ?"
		args = append(args, filter.CreatedAfter.UTC())
	}
	if filter.Source != nil {
		sqlQuery += " AND source = ?"
		args = append(args, string(*filter.Source))
	}

	rows, err := s.store.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var scored []domain.ScoredChunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		dist, err := s.store.metric.Distance(query, chunk.Embedding)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", chunk.ID, err)
		}
		scored = append(scored, domain.ScoredChunk{Chunk: *chunk, Distance: dist})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
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
func (s *chunkStore) RecentChunks(ctx context.Context, userID string, source domain.SourceKind, limit int) ([]domain.Chunk, error) {
	if limit <= 0 {
		limit = domain.StyleSampleLimit
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, user_id, source, source_id, position, content, metadata, embedding, created_at
		FROM chunks
		WHERE user_id = ? AND source = ?
		ORDER BY created_at DESC, id ASC
		LIMIT ?
	`, userID, string(source), limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recent chunks: %w", err)
	}

	return chunks, nil
}

// CountChunks reports the number of stored chunks for a user.
func (s *chunkStore) CountChunks(ctx context.Context, userID string) (int, error) {
	var count int
	row := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks WHERE user_id = ?", userID)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// DeleteUser removes all chunks belonging to a user.
func (s *chunkStore) DeleteUser(ctx context.Context, userID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// scanChunk reads one chunk row.
func scanChunk(rows *sql.Rows) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var source, metadataJSON string
	var embedding []byte
	var createdAt sql.NullTime

	if err := rows.Scan(&chunk.ID, &chunk.UserID, &source, &chunk.SourceID,
		&chunk.Position, &chunk.Content, &metadataJSON, &embedding, &createdAt); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Source = domain.SourceKind(source)
	chunk.Embedding = bytesToFloat32Slice(embedding)
	if createdAt.Valid {
		chunk.CreatedAt = createdAt.Time
	}
	if metadataJSON != "" && metadataJSON != "null" {
		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}

	return &chunk, nil
}

// ==================== Document State Store ====================

// documentStateStore implements driven.DocumentStateStore.
type documentStateStore struct {
	store *Store
}

var _ driven.DocumentStateStore = (*documentStateStore)(nil)

// GetDocument retrieves document state.
func (s *documentStateStore) GetDocument(ctx context.Context, userID string, source domain.SourceKind, sourceID string) (*domain.SourceDocument, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT user_id, source, source_id, thread_id, subject, sender, recipients, labels,
		       timestamp, processed, claimed_at, created_at
		FROM source_documents
		WHERE user_id = ? AND source = ? AND source_id = ?
	`, userID, string(source), sourceID)

	var doc domain.SourceDocument
	var src string
	var threadID, subject, sender, recipientsJSON, labelsJSON sql.NullString
	var timestamp, claimedAt, createdAt sql.NullTime
	var processed int

	err := row.Scan(&doc.UserID, &src, &doc.SourceID, &threadID, &subject, &sender,
		&recipientsJSON, &labelsJSON, &timestamp, &processed, &claimedAt, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Source = domain.SourceKind(src)
	doc.ThreadID = threadID.String
	doc.Subject = subject.String
	doc.Sender = sender.String
	doc.Processed = processed != 0
	if recipientsJSON.Valid && recipientsJSON.String != "" {
		if err := json.Unmarshal([]byte(recipientsJSON.String), &doc.Recipients); err != nil {
			return nil, fmt.Errorf("unmarshaling recipients: %w", err)
		}
	}
	if labelsJSON.Valid && labelsJSON.String != "" {
		if err := json.Unmarshal([]byte(labelsJSON.String), &doc.Labels); err != nil {
			return nil, fmt.Errorf("unmarshaling labels: %w", err)
		}
	}
	if timestamp.Valid {
		doc.Timestamp = timestamp.Time
	}
	if claimedAt.Valid {
		t := claimedAt.Time
		doc.ClaimedAt = &t
	}
	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time
	}

	return &doc, nil
}

// SaveDocument stores or updates document metadata. The processed flag
// and claim of an existing row are preserved.
func (s *documentStateStore) SaveDocument(ctx context.Context, doc *domain.SourceDocument) error {
	recipientsJSON, err := json.Marshal(doc.Recipients)
	if err != nil {
		return fmt.Errorf("marshalling recipients: %w", err)
	}
	labelsJSON, err := json.Marshal(doc.Labels)
	if err != nil {
		return fmt.Errorf("marshalling labels: %w", err)
	}

	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO source_documents
			(user_id, source, source_id, thread_id, subject, sender, recipients, labels, timestamp, processed, claimed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, NULL, ?)
		ON CONFLICT(user_id, source, source_id) DO UPDATE SET
			thread_id = excluded.thread_id,
			subject = excluded.subject,
			sender = excluded.sender,
			recipients = excluded.recipients,
			labels = excluded.labels,
			timestamp = excluded.timestamp
	`, doc.UserID, string(doc.Source), doc.SourceID, doc.ThreadID, doc.Subject, doc.Sender,
		string(recipientsJSON), string(labelsJSON), doc.Timestamp.UTC(), createdAt.UTC())
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// TryClaim atomically claims a document for processing. The update
// only lands when no claim is held or the held claim has gone stale,
// so concurrent runs cannot both win.
func (s *documentStateStore) TryClaim(ctx context.Context, userID string, source domain.SourceKind, sourceID string, now time.Time, staleAfter time.Duration) error {
	staleBefore := now.Add(-staleAfter)

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE source_documents
		SET claimed_at = ?
		WHERE user_id = ? AND source = ? AND source_id = ?
		  AND (claimed_at IS NULL OR claimed_at <= ?)
	`, now.UTC(), userID, string(source), sourceID, staleBefore.UTC())
	if err != nil {
		return fmt.Errorf("claiming document: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking claim result: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Distinguish a missing row from a live claim.
	var exists int
	row := s.store.db.QueryRowContext(ctx, `
		SELECT 1 FROM source_documents WHERE user_id = ? AND source = ? AND source_id = ?
	`, userID, string(source), sourceID)
	if err := row.Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("checking document: %w", err)
	}
	return domain.ErrClaimHeld
}

// ReleaseClaim drops a claim without marking the document processed.
func (s *documentStateStore) ReleaseClaim(ctx context.Context, userID string, source domain.SourceKind, sourceID string) error {
	_, err := s.store.db.ExecContext(ctx, `
		UPDATE source_documents SET claimed_at = NULL
		WHERE user_id = ? AND source = ? AND source_id = ?
	`, userID, string(source), sourceID)
	if err != nil {
		return fmt.Errorf("releasing claim: %w", err)
	}
	return nil
}

// MarkProcessed sets the processed flag and releases any claim.
func (s *documentStateStore) MarkProcessed(ctx context.Context, userID string, source domain.SourceKind, sourceID string) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE source_documents SET processed = 1, claimed_at = NULL
		WHERE user_id = ? AND source = ? AND source_id = ?
	`, userID, string(source), sourceID)
	if err != nil {
		return fmt.Errorf("marking processed: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking mark result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteUser removes all document state belonging to a user.
func (s *documentStateStore) DeleteUser(ctx context.Context, userID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM source_documents WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}
	return nil
}

// ==================== Ingest Run Store ====================

// ingestRunStore implements driven.IngestRunStore.
type ingestRunStore struct {
	store *Store
}

var _ driven.IngestRunStore = (*ingestRunStore)(nil)

// SaveRun stores or updates a run record.
func (s *ingestRunStore) SaveRun(ctx context.Context, run *domain.IngestRun) error {
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO ingest_runs
			(id, user_id, state, documents_processed, documents_skipped, chunks_stored, error_count, error, started_at, finished_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			documents_processed = excluded.documents_processed,
			documents_skipped = excluded.documents_skipped,
			chunks_stored = excluded.chunks_stored,
			error_count = excluded.error_count,
			error = excluded.error,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at
	`, run.ID, run.UserID, string(run.State), run.DocumentsProcessed, run.DocumentsSkipped,
		run.ChunksStored, run.ErrorCount, run.Error,
		nullTime(run.StartedAt), nullTime(run.FinishedAt), createdAt.UTC())
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *ingestRunStore) GetRun(ctx context.Context, id string) (*domain.IngestRun, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, user_id, state, documents_processed, documents_skipped, chunks_stored, error_count, error, started_at, finished_at, created_at
		FROM ingest_runs WHERE id = ?
	`, id)
	return scanRun(row)
}

// LatestRun retrieves the most recently created run for a user.
func (s *ingestRunStore) LatestRun(ctx context.Context, userID string) (*domain.IngestRun, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, user_id, state, documents_processed, documents_skipped, chunks_stored, error_count, error, started_at, finished_at, created_at
		FROM ingest_runs WHERE user_id = ?
		ORDER BY created_at DESC, id DESC LIMIT 1
	`, userID)
	return scanRun(row)
}

// ActiveRun retrieves a queued or running run for a user.
func (s *ingestRunStore) ActiveRun(ctx context.Context, userID string) (*domain.IngestRun, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, user_id, state, documents_processed, documents_skipped, chunks_stored, error_count, error, started_at, finished_at, created_at
		FROM ingest_runs WHERE user_id = ? AND state IN (?, ?)
		ORDER BY created_at DESC, id DESC LIMIT 1
	`, userID, string(domain.RunQueued), string(domain.RunRunning))
	return scanRun(row)
}

// DeleteUser removes all run records belonging to a user.
func (s *ingestRunStore) DeleteUser(ctx context.Context, userID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM ingest_runs WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("deleting runs: %w", err)
	}
	return nil
}

// scanRun reads one run row.
func scanRun(row *sql.Row) (*domain.IngestRun, error) {
	var run domain.IngestRun
	var state string
	var errMsg sql.NullString
	var startedAt, finishedAt, createdAt sql.NullTime

	err := row.Scan(&run.ID, &run.UserID, &state, &run.DocumentsProcessed, &run.DocumentsSkipped,
		&run.ChunksStored, &run.ErrorCount, &errMsg, &startedAt, &finishedAt, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	run.State = domain.RunState(state)
	run.Error = errMsg.String
	if startedAt.Valid {
		run.StartedAt = startedAt.Time
	}
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	if createdAt.Valid {
		run.CreatedAt = createdAt.Time
	}

	return &run, nil
}

// ==================== Helpers ====================

// nullTime converts a zero time to NULL for storage.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
