package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/agent-skills/internal/logger"
)

// Version is reported to clients in the initialize handshake.
const Version = "0.1.0"

// shutdownTimeout bounds how long in-flight HTTP sessions get after cancellation.
const shutdownTimeout = 5 * time.Second

// Server exposes the installer to MCP clients.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer registers the skill tools and resources. Ports must carry a SkillService.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(&mcp.Implementation{Name: "agent-skills", Version: Version}, nil),
	}
	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve speaks JSON-RPC over stdio when addr is empty and streamable HTTP
// otherwise. It returns when ctx is cancelled or the transport fails.
func (s *Server) Serve(ctx context.Context, addr string) error {
	if addr == "" {
		logger.Debug("mcp: serving on stdio")
		return s.server.Run(ctx, &mcp.StdioTransport{})
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves streamable HTTP on ln until ctx is cancelled.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("mcp: shutdown: %v", err)
		}
	}()

	logger.Info("mcp: listening on %s", ln.Addr())
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-stopped
		return nil
	}
	return err
}
