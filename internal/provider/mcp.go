package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/runebook/ambient/internal/sanitize"
)

const mcpAnalyzeTool = "analyze_failure"

// MCP posts a tool call to a JSON-RPC style HTTP endpoint. Any server
// exposing an analyze_failure tool can act as a backend; the sanitized
// context is the only payload transmitted.
type MCP struct {
	cfg       *Config
	retry     RetryConfig
	sanitizer *sanitize.Sanitizer
	client    *http.Client
	requestID atomic.Int64
}

// NewMCP creates the generic tool-call backend.
func NewMCP(cfg *Config) (*MCP, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("mcp provider requires an endpoint")
	}
	return &MCP{
		cfg:       cfg,
		retry:     DefaultRetryConfig(),
		sanitizer: sanitize.New(),
		client:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (m *MCP) Name() string { return string(KindMCP) }

func (m *MCP) SanitizeContext(raw sanitize.AnalysisContext) *sanitize.SanitizedContext {
	return m.sanitizer.Sanitize(raw)
}

type mcpRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int64       `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

type mcpResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *mcpError       `json:"error,omitempty"`
}

type mcpError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// IsAvailable probes the server's tool list and checks that the
// analysis tool is among them.
func (m *MCP) IsAvailable(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	resp, err := m.call(probeCtx, "tools/list", nil)
	if err != nil || resp.Error != nil {
		return false
	}

	var result struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return false
	}
	for _, tool := range result.Tools {
		if tool.Name == mcpAnalyzeTool {
			return true
		}
	}
	return false
}

// Analyze invokes the analysis tool and parses suggestions out of its
// text content.
func (m *MCP) Analyze(ctx context.Context, req *Request) (*Result, error) {
	params := map[string]interface{}{
		"name": mcpAnalyzeTool,
		"arguments": map[string]interface{}{
			"prompt": buildPrompt(req, m.cfg.Safety.MaxContextLength),
		},
	}

	var resp *mcpResponse
	err := retryWithBackoff(ctx, m.retry, "mcp tool call", func(ctx context.Context) error {
		r, callErr := m.call(ctx, "tools/call", params)
		if callErr != nil {
			return callErr
		}
		if r.Error != nil {
			return fmt.Errorf("mcp server error %d: %s", r.Error.Code, r.Error.Message)
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to parse tool result: %w", err)
	}

	var text string
	for _, block := range result.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	now := time.Now().UTC()
	suggestions, err := parseSuggestions(text, m.Name(), req.CommandID, now)
	if err != nil {
		return nil, err
	}

	return &Result{
		Suggestions: suggestions,
		Provenance: Provenance{
			Provider:  m.Name(),
			Model:     m.cfg.Model,
			Timestamp: now,
		},
	}, nil
}

func (m *MCP) call(ctx context.Context, method string, params interface{}) (*mcpResponse, error) {
	body, err := json.Marshal(mcpRequest{
		JSONRPC: "2.0",
		ID:      m.requestID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", m.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := m.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		return nil, fmt.Errorf("mcp server returned status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var resp mcpResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}
