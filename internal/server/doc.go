// Package server implements the MCP (Model Context Protocol) front end of the
// document scanner.
//
// This package provides a JSON-RPC 2.0 server that exposes the scanner's
// operations as MCP tools, so an assistant can find and flatten documents in
// photos the same way the HTTP API does.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
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
//   - document_detect: Find document polygons, optionally with a preview image
//   - document_rectify: Flatten a quadrilateral, optionally detecting inside
//     it and running OCR
//   - document_edges: Show the detector's edge map
//
// Every tool takes its image either as a file path or inline as base64 / a
// data URL. Nothing is cached between calls.
//
// # Error Handling
//
// Tool errors are returned as JSON-RPC error responses with:
//   - code: -32602 for missing or malformed arguments, undecodable images and
//     invalid corners; -32000 for any other tool failure
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(sc, version, log)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal().Err(err).Msg("mcp server")
//	}
package server
