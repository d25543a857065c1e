// Package server implements the MCP (Model Context Protocol) server for lane detection tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the lane detection
// pipeline through the MCP protocol, so MCP clients can run detection on
// images and videos and inspect the intermediate stages.
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
// Detection:
//   - lanes_detect_image: Detect lanes in one image, optionally writing or
//     returning the annotated frame
//   - lanes_detect_video: Annotate every frame of a video
//
// Stage inspection:
//   - lanes_edges: Masked Canny edge map and the thresholds used
//   - lanes_segments: Raw Hough segments before averaging
//
// Every tool accepts optional overrides of the pipeline parameters
// (kernel_size, sigma, grayscale, threshold, min_line_length, max_line_gap,
// region). Calls without overrides share one pipeline built at startup.
//
// # Image Caching
//
// Input images are cached by path and reused across tool calls. Writing an
// output image evicts any cached copy of that path.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// Unparseable request lines get a -32700 response with a null id.
//
// # Usage
//
//	srv, err := server.New(server.WithParams(params), server.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	return srv.Serve(ctx, os.Stdin, os.Stdout)
package server
