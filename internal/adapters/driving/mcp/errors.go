// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants query a user's ingested mail and documents.
package mcp

import "errors"

// ErrMissingAssistantService is returned when the assistant service is not provided.
var ErrMissingAssistantService = errors.New("mcp: assistant service is required")

// ErrMissingUserID is returned when no default user is configured.
var ErrMissingUserID = errors.New("mcp: default user id is required")
