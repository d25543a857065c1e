package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/ironsheep/lane-detector/internal/detection"
	"github.com/ironsheep/lane-detector/internal/imaging"
	"github.com/ironsheep/lane-detector/internal/pipeline"
	"github.com/ironsheep/lane-detector/internal/video"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "lanes_detect_image").
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

	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	s.logger.Debug("tool completed",
		"tool", params.Name,
		"elapsed", time.Since(start),
		"cached_images", s.cache.Len(),
	)

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
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	case "lanes_detect_image":
		return s.handleDetectImage(args)
	case "lanes_detect_video":
		return s.handleDetectVideo(ctx, args)
	case "lanes_edges":
		return s.handleEdges(args)
	case "lanes_segments":
		return s.handleSegments(args)
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

// === Pipeline Overrides ===

// tuningArgs holds the optional per-call overrides of the server parameters.
type tuningArgs struct {
	KernelSize    *int     `json:"kernel_size"`
	Sigma         *float64 `json:"sigma"`
	Grayscale     *bool    `json:"grayscale"`
	Threshold     *int     `json:"threshold"`
	MinLineLength *int     `json:"min_line_length"`
	MaxLineGap    *int     `json:"max_line_gap"`
	MaxLines      *int     `json:"max_lines"`
	Region        [][]int  `json:"region"`
	Color         string   `json:"color"`
	Thickness     *int     `json:"thickness"`
}

func (t *tuningArgs) isZero() bool {
	return t.KernelSize == nil && t.Sigma == nil && t.Grayscale == nil &&
		t.Threshold == nil && t.MinLineLength == nil && t.MaxLineGap == nil &&
		t.MaxLines == nil && t.Region == nil && t.Color == "" && t.Thickness == nil
}

// pipelineFor returns the server pipeline, or a new one when t overrides
// any parameter.
func (s *Server) pipelineFor(t tuningArgs) (*pipeline.Pipeline, error) {
	if t.isZero() {
		return s.pipeline, nil
	}

	p := s.params
	if t.KernelSize != nil {
		p.KernelSize = *t.KernelSize
	}
	if t.Sigma != nil {
		p.CannySigma = *t.Sigma
	}
	if t.Grayscale != nil {
		p.GrayscaleEdges = *t.Grayscale
	}
	if t.Threshold != nil {
		p.Hough.Threshold = *t.Threshold
	}
	if t.MinLineLength != nil {
		p.Hough.MinLineLength = *t.MinLineLength
	}
	if t.MaxLineGap != nil {
		p.Hough.MaxLineGap = *t.MaxLineGap
	}
	if t.MaxLines != nil {
		p.Hough.MaxLines = *t.MaxLines
	}
	if t.Region != nil {
		region := make(imaging.Polygon, len(t.Region))
		for i, pt := range t.Region {
			if len(pt) != 2 {
				return nil, fmt.Errorf("region vertex %d must be [x, y], got %v", i, pt)
			}
			region[i] = image.Pt(pt[0], pt[1])
		}
		p.Region = region
	}
	if t.Color != "" {
		c, err := imaging.ParseColor(t.Color)
		if err != nil {
			return nil, err
		}
		p.Draw.Color = c
	}
	if t.Thickness != nil {
		p.Draw.Thickness = *t.Thickness
	}

	return pipeline.New(p, pipeline.WithLogger(s.logger))
}

// saveImage writes img to path and drops any cached copy of path.
func (s *Server) saveImage(img image.Image, path string) error {
	if !imaging.IsImagePath(path) {
		return fmt.Errorf("unsupported output image format: %s", path)
	}
	if err := imaging.Save(img, path); err != nil {
		return err
	}
	s.cache.Evict(path)
	return nil
}

// === Lane Detection Handlers ===

type detectImageArgs struct {
	Path        string `json:"path"`
	OutputPath  string `json:"output_path"`
	ReturnImage bool   `json:"return_image"`
	tuningArgs
}

type detectImageResult struct {
	Width        int                `json:"width"`
	Height       int                `json:"height"`
	Thresholds   imaging.Thresholds `json:"thresholds"`
	SegmentCount int                `json:"segment_count"`
	Lanes        []detection.Lane   `json:"lanes"`
	OutputPath   string             `json:"output_path,omitempty"`
	ImageBase64  string             `json:"image_base64,omitempty"`
}

func (s *Server) handleDetectImage(args json.RawMessage) (interface{}, error) {
	var a detectImageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}

	p, err := s.pipelineFor(a.tuningArgs)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	r, err := p.Detect(img)
	if err != nil {
		return nil, err
	}

	res := &detectImageResult{
		Width:        r.Image.Rect.Dx(),
		Height:       r.Image.Rect.Dy(),
		Thresholds:   r.Thresholds,
		SegmentCount: len(r.Segments),
		Lanes:        r.Lanes,
	}
	if res.Lanes == nil {
		res.Lanes = []detection.Lane{}
	}
	if a.OutputPath != "" {
		if err := s.saveImage(r.Image, a.OutputPath); err != nil {
			return nil, err
		}
		res.OutputPath = a.OutputPath
	}
	if a.ReturnImage {
		if res.ImageBase64, err = imaging.EncodePNGBase64(r.Image); err != nil {
			return nil, err
		}
	}
	return res, nil
}

type detectVideoArgs struct {
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path"`
	Workers    int    `json:"workers"`
	tuningArgs
}

type detectVideoResult struct {
	Frames     int     `json:"frames"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	FrameRate  float64 `json:"fps"`
	OutputPath string  `json:"output_path"`
	ElapsedMS  int64   `json:"elapsed_ms"`
}

func (s *Server) handleDetectVideo(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a detectVideoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.InputPath == "" || a.OutputPath == "" {
		return nil, errors.New("input_path and output_path are required")
	}
	if a.Workers <= 0 {
		a.Workers = s.workers
	}

	p, err := s.pipelineFor(a.tuningArgs)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	sum, err := video.ConvertFile(ctx, a.InputPath, a.OutputPath, p.Process,
		video.WithWorkers(a.Workers),
		video.WithLogger(s.logger),
	)
	if err != nil {
		return nil, err
	}

	return &detectVideoResult{
		Frames:     sum.Frames,
		Width:      sum.Size.X,
		Height:     sum.Size.Y,
		FrameRate:  sum.FrameRate,
		OutputPath: a.OutputPath,
		ElapsedMS:  time.Since(start).Milliseconds(),
	}, nil
}

// === Intermediate Stage Handlers ===

type edgesArgs struct {
	Path       string `json:"path"`
	OutputPath string `json:"output_path"`
	tuningArgs
}

type edgesResult struct {
	Width        int                `json:"width"`
	Height       int                `json:"height"`
	Thresholds   imaging.Thresholds `json:"thresholds"`
	EdgePixels   int                `json:"edge_pixels"`
	MaskedPixels int                `json:"masked_pixels"`
	OutputPath   string             `json:"output_path,omitempty"`
	ImageBase64  string             `json:"image_base64"`
}

func (s *Server) handleEdges(args json.RawMessage) (interface{}, error) {
	var a edgesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}

	p, err := s.pipelineFor(a.tuningArgs)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	r, err := p.Edges(img)
	if err != nil {
		return nil, err
	}

	res := &edgesResult{
		Width:        r.Masked.Rect.Dx(),
		Height:       r.Masked.Rect.Dy(),
		Thresholds:   r.Thresholds,
		EdgePixels:   countSet(r.Edges),
		MaskedPixels: countSet(r.Masked),
	}
	if a.OutputPath != "" {
		if err := s.saveImage(r.Masked, a.OutputPath); err != nil {
			return nil, err
		}
		res.OutputPath = a.OutputPath
	}
	if res.ImageBase64, err = imaging.EncodePNGBase64(r.Masked); err != nil {
		return nil, err
	}
	return res, nil
}

type segmentsArgs struct {
	Path string `json:"path"`
	tuningArgs
}

type segmentsResult struct {
	Thresholds imaging.Thresholds  `json:"thresholds"`
	Count      int                 `json:"count"`
	Longest    float64             `json:"longest"`
	Segments   []detection.Segment `json:"segments"`
}

func (s *Server) handleSegments(args json.RawMessage) (interface{}, error) {
	var a segmentsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}

	p, err := s.pipelineFor(a.tuningArgs)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	r, err := p.Segments(img)
	if err != nil {
		return nil, err
	}

	longest := 0.0
	for _, seg := range r.Segments {
		longest = math.Max(longest, seg.Length())
	}

	return &segmentsResult{
		Thresholds: r.Thresholds,
		Count:      len(r.Segments),
		Longest:    longest,
		Segments:   r.Segments,
	}, nil
}

// countSet returns the number of non-zero pixels in g.
func countSet(g *image.Gray) int {
	n := 0
	w := g.Rect.Dx()
	for y := 0; y < g.Rect.Dy(); y++ {
		for _, v := range g.Pix[y*g.Stride : y*g.Stride+w] {
			if v != 0 {
				n++
			}
		}
	}
	return n
}
