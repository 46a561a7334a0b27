package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/HabtB/Pharmacy-Pickup/internal/extract"
	"github.com/HabtB/Pharmacy-Pickup/internal/imaging"
	"github.com/HabtB/Pharmacy-Pickup/internal/locate"
	"github.com/HabtB/Pharmacy-Pickup/internal/logging"
	"github.com/HabtB/Pharmacy-Pickup/internal/ocr"
)

// ServerName is reported in the MCP handshake.
const ServerName = "pickup-mcp"

// PageReader turns a preprocessed photo into an extraction page.
// *ocr.Engine is the production implementation.
type PageReader interface {
	ExtractPage(ctx context.Context, id string, img image.Image) (extract.Page, error)
	Info() ocr.Info
}

// ReferenceInfo describes the loaded location reference table.
type ReferenceInfo struct {
	Path string `json:"path,omitempty"`
	Kind string `json:"kind,omitempty"`
	Rows int    `json:"rows"`
}

// Options wires a Server to its collaborators.
type Options struct {
	Engine   *extract.Engine
	Resolver *locate.Resolver
	Reader   PageReader

	Preprocess     imaging.PreprocessOptions
	SkipPreprocess bool

	Reference ReferenceInfo
	Version   string
}

// Server handles MCP protocol communication
type Server struct {
	cache    *imaging.ImageCache
	engine   *extract.Engine
	resolver *locate.Resolver
	reader   PageReader
	prep     imaging.PreprocessOptions
	skipPrep bool
	ref      ReferenceInfo
	version  string
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a server. A nil Engine uses extract.DefaultOptions, a nil
// Resolver has an empty reference table (only the fridge rule resolves) and a
// nil Reader uses Tesseract with English language data.
func New(opts Options) (*Server, error) {
	if opts.Engine == nil {
		e, err := extract.NewEngine(extract.DefaultOptions())
		if err != nil {
			return nil, err
		}
		opts.Engine = e
	}
	if opts.Resolver == nil {
		opts.Resolver = locate.NewResolver(nil, locate.Options{})
	}
	if opts.Reader == nil {
		opts.Reader = ocr.NewEngine(ocr.Options{})
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	return &Server{
		cache:    imaging.NewImageCache(),
		engine:   opts.Engine,
		resolver: opts.Resolver,
		reader:   opts.Reader,
		prep:     opts.Preprocess,
		skipPrep: opts.SkipPreprocess,
		ref:      opts.Reference,
		version:  opts.Version,
	}, nil
}

// Run serves MCP over stdin and stdout until stdin closes or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to w.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)

	encoder := json.NewEncoder(w)
	log := logging.Logger()

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Warn("failed to parse request", "error", err)
			if err := encoder.Encode(s.errorResponse(nil, -32700, "Parse error", err.Error())); err != nil {
				log.Error("failed to encode response", "error", err)
			}
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				log.Error("failed to encode response", "error", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	logging.Logger().Debug("mcp request", "method", req.Method, "id", req.ID)
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    ServerName,
				"version": s.version,
			},
		},
	}
}
