// Package mcp exposes a hive to agents as a Model Context Protocol server.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/hivemesh/internal/logging"
	"github.com/aretw0/hivemesh/pkg/domain"
	"github.com/aretw0/hivemesh/pkg/scx"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// StatusURI names the hive status resource.
const StatusURI = "hive://status"

// Orchestrator is the hive surface exposed as tools.
type Orchestrator interface {
	CreateShard(ctx context.Context, def any) (domain.ShardSummary, error)
	RouteToShard(ctx context.Context, shard, method, path string, data any) (any, error)
	Status() domain.Status
	ListShards() []domain.ShardSummary
}

// Server wraps an Orchestrator and exposes it as an MCP Server.
type Server struct {
	hive      Orchestrator
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger. Stdio transports must not log to stdout.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(hive Orchestrator, version string, opts ...Option) *Server {
	s := &Server{
		hive:      hive,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("hivemesh-mcp", version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("mesh_call",
		mcp.WithDescription("Route a call to a shard handler and return its result."),
		mcp.WithString("shard", mcp.Required(), mcp.Description("Shard id or virtual port")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Route path, e.g. /list")),
		mcp.WithString("method", mcp.Description("HTTP-style method, defaults to GET")),
		mcp.WithString("data", mcp.Description("JSON payload passed to the handler")),
	), s.handleMeshCall)

	s.mcpServer.AddTool(mcp.NewTool("hive_status",
		mcp.WithDescription("Snapshot of the hive: id, mesh and registry."),
	), s.handleStatus)

	s.mcpServer.AddTool(mcp.NewTool("list_shards",
		mcp.WithDescription("List registered shards with their routes."),
	), s.handleListShards)

	s.mcpServer.AddTool(mcp.NewTool("create_shard",
		mcp.WithDescription("Create or replace a shard from a JSON, YAML or compact definition."),
		mcp.WithString("definition", mcp.Required(), mcp.Description("Shard definition text")),
	), s.handleCreateShard)

	s.mcpServer.AddTool(mcp.NewTool("encode",
		mcp.WithDescription("Encode JSON or plain text into the compact form."),
		mcp.WithString("input", mcp.Required(), mcp.Description("JSON document or text")),
	), s.handleEncode)

	s.mcpServer.AddTool(mcp.NewTool("decode",
		mcp.WithDescription("Decode compact text into JSON."),
		mcp.WithString("input", mcp.Required(), mcp.Description("Compact-encoded text")),
	), s.handleDecode)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("result not encodable: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleMeshCall(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	shard, err := req.RequireString("shard")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	method := req.GetString("method", domain.DefaultRouteMethod)

	var data any
	if raw := req.GetString("data", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("data is not valid JSON: %v", err)), nil
		}
	}

	out, err := s.hive.RouteToShard(ctx, shard, method, path, data)
	if err != nil {
		s.logger.Warn("mcp mesh call failed", "shard", shard, "path", path, "err", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(out)
}

func (s *Server) handleStatus(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.hive.Status())
}

func (s *Server) handleListShards(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.hive.ListShards())
}

func (s *Server) handleCreateShard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	def, err := req.RequireString("definition")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sum, err := s.hive.CreateShard(ctx, def)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("create failed: %v", err)), nil
	}
	return jsonResult(sum)
}

func (s *Server) handleEncode(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := req.RequireString("input")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := scx.Encode(input)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) handleDecode(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := req.RequireString("input")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := scx.Decode(input)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(out)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(StatusURI, "Hive Status",
		mcp.WithMIMEType("application/json"),
	), s.readStatus)
}

func (s *Server) readStatus(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(s.hive.Status())
	if err != nil {
		return nil, fmt.Errorf("failed to encode status: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: StatusURI, MIMEType: "application/json", Text: string(data)},
	}, nil
}
