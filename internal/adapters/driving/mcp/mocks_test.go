package mcp

import (
	"context"

	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
)

// mockAssistantService implements driving.AssistantService for tests.
type mockAssistantService struct {
	answer  string
	scored  []domain.ScoredChunk
	profile *domain.StyleProfile
	err     error

	lastQuery domain.QueryContext
}

func (m *mockAssistantService) Query(
	_ context.Context, qc domain.QueryContext,
) (string, []domain.ScoredChunk, error) {
	m.lastQuery = qc
	if m.err != nil {
		return "", nil, m.err
	}
	return m.answer, m.scored, nil
}

func (m *mockAssistantService) AnalyzeStyle(
	_ context.Context, _ string,
) (*domain.StyleProfile, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.profile, nil
}

// mockIngestService implements driving.IngestService for tests.
type mockIngestService struct {
	run *domain.IngestRun
	err error
}

func (m *mockIngestService) StartIngest(_ context.Context, _ string, _ int) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.run.ID, nil
}

func (m *mockIngestService) Ingest(_ context.Context, _ string, _ int) (*domain.IngestRun, error) {
	return m.run, m.err
}

func (m *mockIngestService) Status(_ context.Context, _ string) (*domain.IngestRun, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.run, nil
}

func (m *mockIngestService) LatestStatus(_ context.Context, _ string) (*domain.IngestRun, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.run, nil
}

func (m *mockIngestService) PurgeUser(_ context.Context, _ string) error {
	return m.err
}
