package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
)

// uriScheme is the custom URI scheme for ingestion resources.
const uriScheme = "mailrag://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for the most recent ingestion run.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "runs/latest",
		Name:        "latest-run",
		Description: "Status of the most recent ingestion run",
		MIMEType:    "application/json",
	}, s.handleLatestRunResource)

	// Template for a specific run.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "runs/{runId}",
		Name:        "run-status",
		Description: "Status of a specific ingestion run",
		MIMEType:    "application/json",
	}, s.handleRunResource)
}

// runInfo is the serialised shape of a run record.
type runInfo struct {
	ID                 string `json:"id"`
	State              string `json:"state"`
	DocumentsProcessed int    `json:"documents_processed"`
	DocumentsSkipped   int    `json:"documents_skipped"`
	ChunksStored       int    `json:"chunks_stored"`
	ErrorCount         int    `json:"error_count"`
	Error              string `json:"error,omitempty"`
	StartedAt          string `json:"started_at,omitempty"`
	FinishedAt         string `json:"finished_at,omitempty"`
}

// handleLatestRunResource returns the most recent ingestion run.
func (s *Server) handleLatestRunResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Ingest == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	run, err := s.ports.Ingest.LatestStatus(ctx, s.ports.UserID)
	if err != nil {
		return nil, fmt.Errorf("fetching latest run: %w", err)
	}

	return runResult(req.Params.URI, run)
}

// handleRunResource returns a specific ingestion run by ID.
func (s *Server) handleRunResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Ingest == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	runID := extractRunID(req.Params.URI)
	if runID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	run, err := s.ports.Ingest.Status(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("fetching run %s: %w", runID, err)
	}

	return runResult(req.Params.URI, run)
}

func runResult(uri string, run *domain.IngestRun) (*mcp.ReadResourceResult, error) {
	info := runInfo{
		ID:                 run.ID,
		State:              string(run.State),
		DocumentsProcessed: run.DocumentsProcessed,
		DocumentsSkipped:   run.DocumentsSkipped,
		ChunksStored:       run.ChunksStored,
		ErrorCount:         run.ErrorCount,
		Error:              run.Error,
	}
	if !run.StartedAt.IsZero() {
		info.StartedAt = run.StartedAt.Format(time.RFC3339)
	}
	if !run.FinishedAt.IsZero() {
		info.FinishedAt = run.FinishedAt.Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling run: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractRunID extracts the run ID from a URI like mailrag://runs/{runId}.
func extractRunID(uri string) string {
	const prefix = uriScheme + "runs/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if id == "latest" || strings.Contains(id, "/") {
		return ""
	}
	return id
}
