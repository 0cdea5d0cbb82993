package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version reported to MCP clients during initialisation.
const Version = "0.1.0"

// Server exposes the assistant over the Model Context Protocol: ask
// and analyze_style as tools, ingestion runs as resources.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer wires the tool and resource handlers onto a fresh MCP
// server. Fails when a required port is missing.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{
		ports: ports,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "mailrag",
			Version: Version,
		}, nil),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves MCP over stdio until ctx ends. This is the mode desktop
// assistants launch the binary in.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves MCP over streamable HTTP on addr until ctx ends,
// mainly for MCP Inspector sessions.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr: addr,
		Handler: mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
			return s.server
		}, nil),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// userID resolves the account a call operates on: the caller's
// explicit choice, or the configured default.
func (s *Server) userID(override string) string {
	if override != "" {
		return override
	}
	return s.ports.UserID
}
