package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HabtB/Pharmacy-Pickup/internal/extract"
	"github.com/HabtB/Pharmacy-Pickup/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "pick_list_extract").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "pick_list_extract":
		return s.handlePickListExtract(ctx, args)
	case "pick_list_parse":
		return s.handlePickListParse(ctx, args)
	case "location_lookup":
		return s.handleLocationLookup(args)
	case "ocr_page":
		return s.handleOCRPage(ctx, args)
	case "image_info":
		return s.handleImageInfo(args)
	case "reference_info":
		return s.Reference(), nil
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes tool arguments, treating missing arguments as {}.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return nil
}

// boolOr returns *b, or def when the argument was omitted.
func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

type pickListExtractArgs struct {
	Paths  []string `json:"paths"`
	Lookup *bool    `json:"lookup"`
}

func (s *Server) handlePickListExtract(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pickListExtractArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return s.ExtractPhotos(ctx, a.Paths, boolOr(a.Lookup, true))
}

type pickListParseArgs struct {
	Pages  []extract.Page `json:"pages"`
	Lookup *bool          `json:"lookup"`
}

func (s *Server) handlePickListParse(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pickListParseArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return s.ParsePages(ctx, a.Pages, boolOr(a.Lookup, true))
}

type locationLookupArgs struct {
	Name     string `json:"name"`
	Strength string `json:"strength"`
	Form     string `json:"form"`
}

func (s *Server) handleLocationLookup(args json.RawMessage) (interface{}, error) {
	var a locationLookupArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return s.LookupLocation(a.Name, a.Strength, a.Form)
}

type ocrPageArgs struct {
	Path       string `json:"path"`
	Preprocess *bool  `json:"preprocess"`
}

func (s *Server) handleOCRPage(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a ocrPageArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return s.ReadPhoto(ctx, a.Path, boolOr(a.Preprocess, true))
}

type imageInfoArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a imageInfoArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("%w: path is required", ErrInvalidArgument)
	}
	defer s.cache.Evict(a.Path)
	return imaging.LoadImageInfo(s.cache, a.Path)
}
