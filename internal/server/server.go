package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ironsheep/coin-measure-mcp/internal/detection"
	"github.com/ironsheep/coin-measure-mcp/internal/imaging"
	"github.com/ironsheep/coin-measure-mcp/internal/measure"
	"github.com/ironsheep/coin-measure-mcp/internal/metrics"
)

// Server handles MCP protocol communication and owns the measurement session
// of the active image.
type Server struct {
	cache    *imaging.ImageCache
	detector *detection.Detector
	session  *measure.Session
	log      zerolog.Logger
	metrics  *metrics.Metrics
	version  string
	preset   string

	coinDiameterMM float64
	batchWorkers   int

	mu        sync.Mutex // guards active and collector
	active    string
	collector *measure.Collector
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMetrics records tool calls and calibrations in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithCoinDiameter sets the real diameter of the reference coin.
func WithCoinDiameter(mm float64) Option {
	return func(s *Server) {
		if mm > 0 {
			s.coinDiameterMM = mm
		}
	}
}

// WithBatchWorkers caps concurrent images in batch detection.
func WithBatchWorkers(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.batchWorkers = n
		}
	}
}

// WithCloseRadius sets how near the first vertex a click closes a polygon.
func WithCloseRadius(r float64) Option {
	return func(s *Server) {
		if r > 0 {
			s.collector.CloseRadius = r
		}
	}
}

// WithPreset records the name of the detection preset for status reports.
func WithPreset(name string) Option {
	return func(s *Server) { s.preset = name }
}

// WithVersion sets the version reported during the handshake.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// New creates a new MCP server around det.
func New(det *detection.Detector, opts ...Option) *Server {
	s := &Server{
		cache:          imaging.NewImageCache(),
		detector:       det,
		log:            zerolog.Nop(),
		version:        "dev",
		coinDiameterMM: measure.CoinDiameterMM,
		batchWorkers:   4,
		collector:      measure.NewCollector(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.session = measure.NewSessionWithDiameter(s.coinDiameterMM)
	return s
}

// Run serves MCP over stdin and stdout until stdin closes or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to w.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.Warn().Err(err).Msg("failed to parse request")
			if err := encoder.Encode(s.errorResponse(nil, -32700, "Parse error", err.Error())); err != nil {
				s.log.Error().Err(err).Msg("failed to encode response")
			}
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.log.Error().Err(err).Msg("failed to encode response")
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "coin-measure-mcp",
				"version": s.version,
			},
		},
	}
}

// handleToolsList responds with every tool definition.
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
