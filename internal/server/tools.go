package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the pick-list photo",
}

var lookupProperty = map[string]interface{}{
	"type":        "boolean",
	"description": "Resolve a storage location for every item. Default true",
	"default":     true,
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Extraction
		{
			Name:        "pick_list_extract",
			Description: "Read one or more photos of a printed pharmacy pick list and return the medications to pick, merged across photos with per-floor amounts and storage locations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       pathProperty,
						"description": "Photos of the pick list, one page each",
					},
					"lookup": lookupProperty,
				},
				"required": []string{"paths"},
			},
		},
		{
			Name:        "pick_list_parse",
			Description: "Extract pick-list records from pages that were already recognized: word tokens with pixel boxes, page text, or both.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"pages": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"id":        map[string]interface{}{"type": "string"},
								"full_text": map[string]interface{}{"type": "string", "description": "Recognized page text, one printed line per line"},
								"tokens": map[string]interface{}{
									"type": "array",
									"items": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"text": map[string]interface{}{"type": "string"},
											"bounds": map[string]interface{}{
												"type": "object",
												"properties": map[string]interface{}{
													"x1": map[string]interface{}{"type": "integer"},
													"y1": map[string]interface{}{"type": "integer"},
													"x2": map[string]interface{}{"type": "integer"},
													"y2": map[string]interface{}{"type": "integer"},
												},
											},
										},
										"required": []string{"text", "bounds"},
									},
								},
							},
						},
						"description": "Pages to extract",
					},
					"lookup": lookupProperty,
				},
				"required": []string{"pages"},
			},
		},

		// Lookup
		{
			Name:        "location_lookup",
			Description: "Find where a medication is stored. Refrigerated items always resolve to the fridge.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Medication name, e.g. \"gabapentin\"",
					},
					"strength": map[string]interface{}{
						"type":        "string",
						"description": "Optional strength, e.g. \"100 mg\"",
					},
					"form": map[string]interface{}{
						"type":        "string",
						"description": "Optional dosage form, e.g. \"capsule\"",
					},
				},
				"required": []string{"name"},
			},
		},

		// Diagnostics
		{
			Name:        "ocr_page",
			Description: "Run OCR on one photo and return the recognized words with pixel boxes, the page text and the preprocessing applied.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"preprocess": map[string]interface{}{
						"type":        "boolean",
						"description": "Clean up the photo before OCR. Default true",
						"default":     true,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_info",
			Description: "Get the width, height, format and file size of a photo.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "reference_info",
			Description: "Describe the loaded location reference table, the lookup cache and OCR availability.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
