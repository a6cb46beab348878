package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// createTestImageFile writes a white rectangle on black to a temp PNG file
// and returns its path.
func createTestImageFile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "scan.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, createRectangleImage()); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func createRectangleImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 300, 400))
	for y := 0; y < 400; y++ {
		for x := 0; x < 300; x++ {
			c := color.RGBA{0, 0, 0, 255}
			if x >= 50 && x < 150 && y >= 50 && y < 250 {
				c = color.RGBA{255, 255, 255, 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func inlineImage(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, createRectangleImage()); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// callTool runs tools/call and returns the response.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()
	params, _ := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  params,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// toolResult unpacks the JSON text content of a successful tool call.
func toolResult(t *testing.T, resp *MCPResponse) map[string]interface{} {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content: %v", content)
	}

	var out map[string]interface{}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), &out); err != nil {
		t.Fatalf("tool result is not JSON: %v", err)
	}
	return out
}

func TestHandleToolsCall_DocumentDetect(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"path", map[string]interface{}{"path": createTestImageFile(t)}},
		{"inline image", map[string]interface{}{"image": inlineImage(t)}},
		{"with preview", map[string]interface{}{"image": inlineImage(t), "preview": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := toolResult(t, callTool(t, s, "document_detect", tt.args))

			if out["message"] != "Detected 1 polygons" {
				t.Errorf("message: got %v", out["message"])
			}
			polys := out["polygons"].([]interface{})
			if len(polys) != 1 {
				t.Fatalf("polygons: got %d, want 1", len(polys))
			}
			_, hasPreview := out["preview"]
			if hasPreview != (tt.args["preview"] == true) {
				t.Errorf("preview present: %v", hasPreview)
			}
		})
	}
}

func TestHandleToolsCall_DocumentRectify(t *testing.T) {
	s := newTestServer()
	out := toolResult(t, callTool(t, s, "document_rectify", map[string]interface{}{
		"path":   createTestImageFile(t),
		"points": []interface{}{[]float64{50, 50}, map[string]float64{"x": 149, "y": 50}, []float64{149, 249}, []float64{50, 249}},
	}))

	if out["width"] != float64(99) || out["height"] != float64(199) {
		t.Errorf("size: got %vx%v, want 99x199", out["width"], out["height"])
	}
	if s, _ := out["image"].(string); !strings.HasPrefix(s, "data:image/jpeg;base64,") {
		t.Errorf("image: got %.40q", s)
	}
}

func TestHandleToolsCall_DocumentEdges(t *testing.T) {
	out := toolResult(t, callTool(t, newTestServer(), "document_edges", map[string]interface{}{"image": inlineImage(t)}))

	if s, _ := out["image"].(string); !strings.HasPrefix(s, "data:image/png;base64,") {
		t.Errorf("image: got %.40q", s)
	}
	if out["edge_pixels"].(float64) <= 0 {
		t.Error("expected edge pixels")
	}
}

func TestHandleToolsCall_Errors(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t)

	tests := []struct {
		name     string
		tool     string
		args     map[string]interface{}
		wantCode int
	}{
		{"unknown tool", "image_crop", map[string]interface{}{"path": path}, codeInvalidParams},
		{"no image", "document_detect", map[string]interface{}{}, codeInvalidParams},
		{"missing file", "document_detect", map[string]interface{}{"path": "/nonexistent/scan.png"}, codeInvalidParams},
		{"bad base64", "document_edges", map[string]interface{}{"image": "%%%"}, codeInvalidParams},
		{"three points", "document_rectify", map[string]interface{}{"path": path, "points": [][]float64{{0, 0}, {1, 0}, {1, 1}}}, codeInvalidParams},
		{"wrong type", "document_rectify", map[string]interface{}{"path": path, "points": "four corners"}, codeInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, tt.tool, tt.args)
			if resp.Error == nil {
				t.Fatal("expected error")
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("code: got %d, want %d (%v)", resp.Error.Code, tt.wantCode, resp.Error.Data)
			}
		})
	}
}

func TestHandleToolsCall_ToolFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	params, _ := json.Marshal(map[string]interface{}{
		"name":      "document_detect",
		"arguments": map[string]interface{}{"image": inlineImage(t)},
	})
	resp := newTestServer().handleToolsCall(ctx, &MCPRequest{JSONRPC: "2.0", ID: 7, Method: "tools/call", Params: params})

	if resp.Error == nil || resp.Error.Code != codeToolFailure {
		t.Fatalf("got %+v, want code %d", resp.Error, codeToolFailure)
	}
	if resp.ID != 7 {
		t.Errorf("ID: got %v", resp.ID)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	resp := newTestServer().handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Errorf("got %+v, want code %d", resp.Error, codeInvalidParams)
	}
}
