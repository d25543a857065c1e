package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// tuningProperties are the optional pipeline overrides accepted by every
// image tool.
func tuningProperties() map[string]interface{} {
	return map[string]interface{}{
		"kernel_size": map[string]interface{}{
			"type":        "integer",
			"description": "Gaussian blur kernel size, odd. Default 5",
		},
		"sigma": map[string]interface{}{
			"type":        "number",
			"description": "Canny threshold spread around the median intensity. Default 0.33",
		},
		"grayscale": map[string]interface{}{
			"type":        "boolean",
			"description": "Detect edges on the grayscale frame instead of the color frame. Default false",
		},
		"threshold": map[string]interface{}{
			"type":        "integer",
			"description": "Minimum Hough accumulator votes for a line. Default 70",
		},
		"min_line_length": map[string]interface{}{
			"type":        "integer",
			"description": "Minimum segment length in pixels. Default 40",
		},
		"max_line_gap": map[string]interface{}{
			"type":        "integer",
			"description": "Maximum gap in pixels bridged inside one segment. Default 50",
		},
		"region": map[string]interface{}{
			"type":        "array",
			"description": "Region of interest as [[x, y], ...] with at least 3 vertices. Default is the triangle from the bottom corners to the image center",
			"items": map[string]interface{}{
				"type":     "array",
				"items":    map[string]interface{}{"type": "integer"},
				"minItems": 2,
				"maxItems": 2,
			},
		},
	}
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func withTuning(props map[string]interface{}) map[string]interface{} {
	for k, v := range tuningProperties() {
		props[k] = v
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "lanes_detect_image",
			Description: "Detect the left and right lane lines in a road image. Returns the fitted slope/intercept and extrapolated endpoints of each lane, and optionally writes or returns the annotated image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withTuning(map[string]interface{}{
					"path": pathProperty(),
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to write the annotated image. The format follows the extension",
					},
					"return_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the annotated image as base64-encoded PNG. Default false",
						"default":     false,
					},
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Lane color as #RRGGBB. Default #ff0000",
					},
					"thickness": map[string]interface{}{
						"type":        "integer",
						"description": "Lane stroke width in pixels. Default 15",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "lanes_detect_video",
			Description: "Detect lanes on every frame of a video and write the annotated video. GIF is handled natively; other containers need ffmpeg. The output has no audio.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withTuning(map[string]interface{}{
					"input_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the input video",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the output video",
					},
					"workers": map[string]interface{}{
						"type":        "integer",
						"description": "Frames processed concurrently. Defaults to the server setting",
					},
				}),
				"required": []string{"input_path", "output_path"},
			},
		},
		{
			Name:        "lanes_edges",
			Description: "Run blur, Canny edge detection and the region mask on an image. Returns the thresholds used, edge pixel counts and the masked edge map as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withTuning(map[string]interface{}{
					"path": pathProperty(),
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to write the masked edge map",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "lanes_segments",
			Description: "Return the raw probabilistic Hough segments found in the masked edge map of an image, before lane averaging, with the length of the longest one.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withTuning(map[string]interface{}{
					"path": pathProperty(),
					"max_lines": map[string]interface{}{
						"type":        "integer",
						"description": "Stop after this many segments. 0 means no limit",
						"default":     0,
					},
				}),
				"required": []string{"path"},
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
