// Package tools exposes GIMS automation operations as MCP tools over a
// stdio transport. Every handler goes through a common wrapper that tags
// the call with a request id, logs it, renders the result as indented JSON
// and enforces the response size limit.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gimsops/gims-mcp/gims"
	"github.com/gimsops/gims-mcp/gitsync"
	"github.com/gimsops/gims-mcp/govern"
)

// DefaultLogStreamTimeout bounds log collection when the caller does not
// pass a timeout of their own.
const DefaultLogStreamTimeout = 60 * time.Second

// Config assembles a tool server.
type Config struct {
	// Client is the GIMS API client. Required.
	Client *gims.Client

	// Limiter caps tool response sizes. The zero value applies the
	// default limit.
	Limiter govern.Limiter

	// Logger receives tool call logs. Required.
	Logger *slog.Logger

	// LogStreamTimeout is the default overall timeout for log collection.
	// Zero means DefaultLogStreamTimeout.
	LogStreamTimeout time.Duration

	// Name and Version identify the server during the MCP handshake.
	Name    string
	Version string
}

// Server wires the tool handlers to an MCP server instance.
type Server struct {
	client  *gims.Client
	limiter govern.Limiter
	syncer  *gitsync.Syncer
	log     *slog.Logger

	logStreamTimeout time.Duration

	mcp *mcp.Server
}

// New builds a Server and registers the full tool set.
func New(cfg Config) (*Server, error) {
	if cfg.Client == nil {
		return nil, errors.New("tools: client is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("tools: logger is required")
	}
	timeout := cfg.LogStreamTimeout
	if timeout == 0 {
		timeout = DefaultLogStreamTimeout
	}
	limiter := cfg.Limiter
	if limiter.MaxBytes() == 0 {
		limiter = govern.NewLimiter(0)
	}
	s := &Server{
		client:           cfg.Client,
		limiter:          limiter,
		syncer:           gitsync.NewSyncer(cfg.Client),
		log:              cfg.Logger,
		logStreamTimeout: timeout,
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
	}
	s.registerScriptTools()
	s.registerDatasourceTools()
	s.registerActivatorTools()
	s.registerReferenceTools()
	s.registerLogTools()
	s.registerSyncTools()
	return s, nil
}

// Run serves MCP over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// rawText marks a handler result that is already plain text and bypasses
// JSON rendering and the size limiter. Log output enforces its own cap.
type rawText string

// addTool registers one handler. The input schema is inferred from In's
// struct tags. Handler errors become in-band tool errors so the model sees
// them; they never tear down the session.
func addTool[In any](s *Server, name, description string, fn func(ctx context.Context, in In) (any, error)) {
	tool := &mcp.Tool{Name: name, Description: description}
	mcp.AddTool(s.mcp, tool, func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		log := s.log.With("tool", name, "request_id", uuid.NewString())
		log.Debug("tool call started")

		start := time.Now()
		out, err := fn(ctx, in)
		if err != nil {
			log.Warn("tool call failed", "error", err, "duration", time.Since(start))
			return errorResult(err), nil, nil
		}

		var text string
		if rt, ok := out.(rawText); ok {
			text = string(rt)
		} else {
			text, err = s.limiter.Guard(out)
			if err != nil {
				log.Warn("tool response rejected", "error", err)
				return errorResult(err), nil, nil
			}
		}
		log.Debug("tool call finished", "duration", time.Since(start), "response_bytes", len(text))
		return textResult(text), nil, nil
	})
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// errorResult renders err the way tool consumers expect: API errors keep
// their message and sanitized detail on separate lines, everything else is
// a single prefixed line.
func errorResult(err error) *mcp.CallToolResult {
	var apiErr *gims.APIError
	var text string
	switch {
	case errors.As(err, &apiErr):
		text = fmt.Sprintf("Error: %s\nDetail: %s", apiErr.Message, apiErr.Detail)
	default:
		text = "Error: " + err.Error()
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
