package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/docscan/internal/geometry"
	"github.com/ironsheep/docscan/internal/imaging"
	"github.com/ironsheep/docscan/internal/rectify"
	"github.com/ironsheep/docscan/internal/scanner"
)

// errInvalidArgs marks tool arguments that are missing or malformed.
var errInvalidArgs = errors.New("invalid arguments")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "document_detect").
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
// Bad arguments, undecodable images and invalid corners return code -32602.
// Any other tool failure returns -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warn().Err(err).Str("tool", params.Name).Msg("tool failed")
		if isInvalidParams(err) {
			return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, codeToolFailure, "Tool execution failed", err.Error())
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

func isInvalidParams(err error) bool {
	return errors.Is(err, errInvalidArgs) ||
		errors.Is(err, imaging.ErrDecode) ||
		errors.Is(err, rectify.ErrInvalidPolygon)
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "document_detect":
		return s.handleDocumentDetect(ctx, args)
	case "document_rectify":
		return s.handleDocumentRectify(ctx, args)
	case "document_edges":
		return s.handleDocumentEdges(ctx, args)
	default:
		return nil, fmt.Errorf("%w: unknown tool: %s", errInvalidArgs, name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// imageArgs selects the input image: a file path or an inline base64 /
// data URL payload. Path wins when both are set.
type imageArgs struct {
	Path  string `json:"path"`
	Image string `json:"image"`
}

func (a imageArgs) load() (image.Image, error) {
	switch {
	case a.Path != "":
		return imaging.Open(a.Path)
	case a.Image != "":
		return imaging.DecodeBase64(a.Image)
	default:
		return nil, fmt.Errorf("%w: either path or image is required", errInvalidArgs)
	}
}

func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return nil
}

type documentDetectArgs struct {
	imageArgs
	Preview bool `json:"preview"`
}

func (s *Server) handleDocumentDetect(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a documentDetectArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := a.load()
	if err != nil {
		return nil, err
	}
	return s.scanner.Detect(ctx, img, a.Preview)
}

type documentRectifyArgs struct {
	imageArgs
	Points      []geometry.Point `json:"points"`
	Normalized  bool             `json:"normalized"`
	DetectInner bool             `json:"detect_inner"`
	OCR         bool             `json:"ocr"`
	Quality     int              `json:"quality"`
}

func (s *Server) handleDocumentRectify(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a documentRectifyArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := a.load()
	if err != nil {
		return nil, err
	}
	return s.scanner.Rectify(ctx, img, scanner.RectifyOptions{
		Points:      a.Points,
		Normalized:  a.Normalized,
		DetectInner: a.DetectInner,
		OCR:         a.OCR,
		Quality:     a.Quality,
	})
}

func (s *Server) handleDocumentEdges(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := a.load()
	if err != nil {
		return nil, err
	}
	return s.scanner.Edges(ctx, img)
}
