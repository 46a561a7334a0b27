// Package server exposes pick-list extraction over MCP and HTTP.
//
// # Protocol
//
// The MCP server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Extraction:
//   - pick_list_extract: photos in, merged items with floors and locations out
//   - pick_list_parse: the same from already-recognized pages
//
// Lookup:
//   - location_lookup: storage location for one medication
//
// Diagnostics:
//   - ocr_page: recognized words and text for one photo
//   - image_info: photo dimensions and format
//   - reference_info: reference table, lookup cache and OCR status
//
// # Pipeline
//
// Each photo is decoded through the image cache, preprocessed, and read by
// the PageReader. The pages go to extract.Engine.ExtractBatch, and every
// merged item is resolved by locate.Resolver. Photos are evicted from the
// cache when the call returns.
//
// # HTTP
//
// Handler serves the same operations as JSON under /v1 using chi. See
// Handler for the routes.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: the Go error string
//
// Over HTTP, ErrInvalidArgument maps to 400 and other failures to 500.
package server
