package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// imageProperties are the input image selectors shared by every tool.
func imageProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the image file. Takes precedence over image.",
		},
		"image": map[string]interface{}{
			"type":        "string",
			"description": "Inline image as base64 or a data URL (data:image/jpeg;base64,...)",
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	detectProps := imageProperties()
	detectProps["preview"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Also return a JPEG data URL of the image with every polygon outlined and numbered by rank",
		"default":     false,
	}

	rectifyProps := imageProperties()
	rectifyProps["points"] = map[string]interface{}{
		"type":        "array",
		"description": "Exactly four corners in any order, each [x, y] or {\"x\": x, \"y\": y}",
		"minItems":    4,
		"maxItems":    4,
		"items": map[string]interface{}{
			"oneOf": []interface{}{
				map[string]interface{}{
					"type":     "array",
					"items":    map[string]interface{}{"type": "number"},
					"minItems": 2,
					"maxItems": 2,
				},
				map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"x": map[string]interface{}{"type": "number"},
						"y": map[string]interface{}{"type": "number"},
					},
					"required": []string{"x", "y"},
				},
			},
		},
	}
	rectifyProps["normalized"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Points are fractions of the image width and height in [0,1]",
		"default":     false,
	}
	rectifyProps["detect_inner"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Run polygon detection on the rectified page",
		"default":     false,
	}
	rectifyProps["ocr"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Recognize the text of the rectified page with Tesseract",
		"default":     false,
	}
	rectifyProps["quality"] = map[string]interface{}{
		"type":        "integer",
		"description": "JPEG quality of the returned page (1-100). Default from server configuration",
		"minimum":     1,
		"maximum":     100,
	}

	return []Tool{
		{
			Name: "document_detect",
			Description: "Find document-like polygons (pages, cards, receipts) in a photo. Returns polygons with " +
				"their corner points, contour area and bounding box, quadrilaterals first and larger ones first. " +
				"Pass the points of a 4-vertex polygon to document_rectify to flatten it.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": detectProps,
			},
		},
		{
			Name: "document_rectify",
			Description: "Perspective-correct a quadrilateral region into an upright rectangle. The output size " +
				"follows the longer of each pair of opposite edges, capped at 2500 pixels per side. Returns " +
				"the page as a JPEG data URL.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": rectifyProps,
				"required":   []string{"points"},
			},
		},
		{
			Name: "document_edges",
			Description: "Return the dilated edge map the polygon detector traces, as a PNG data URL. Useful to " +
				"understand why a document edge was or was not found.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": imageProperties(),
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
