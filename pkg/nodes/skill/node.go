// Package skill provides the node that invokes an externally hosted skill
// over HTTP.
package skill

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/template"
)

// DefaultTimeoutSeconds caps a single skill call unless configured.
const DefaultTimeoutSeconds = 30

// SkillNode issues an HTTP call to the skill's configured endpoint with a
// template-resolved payload.
type SkillNode struct {
	id     string
	config SkillConfig
}

// SkillConfig defines the configuration for skill nodes.
type SkillConfig struct {
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers,omitempty"`
	AuthToken string            `json:"auth_token,omitempty"`
	Body      string            `json:"body,omitempty"`
	Timeout   int               `json:"timeout,omitempty"`
}

// NewSkillNode creates a new skill node.
func NewSkillNode(id string, config map[string]any) (*SkillNode, error) {
	parsed := SkillConfig{
		Method:  http.MethodPost,
		Headers: make(map[string]string),
		Timeout: DefaultTimeoutSeconds,
	}

	url, ok := config["url"].(string)
	if !ok || url == "" {
		return nil, errors.New("missing required field 'url'")
	}

	parsed.URL = url

	if method, ok := config["method"].(string); ok && method != "" {
		parsed.Method = strings.ToUpper(method)
	}

	if headers, ok := config["headers"].(map[string]any); ok {
		for k, v := range headers {
			if s, ok := v.(string); ok {
				parsed.Headers[k] = s
			}
		}
	}

	if token, ok := config["auth_token"].(string); ok {
		parsed.AuthToken = token
	}

	if body, ok := config["body"].(string); ok {
		parsed.Body = body
	}

	if timeout, ok := intValue(config["timeout"]); ok && timeout > 0 {
		parsed.Timeout = timeout
	}

	return &SkillNode{id: id, config: parsed}, nil
}

// intValue accepts both Go-constructed and JSON-decoded numerics.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// NewSkillNodeForEndpoint builds a skill node directly from a persisted
// skill record plus an already-resolved payload. The agentic loop uses this
// to dispatch model-requested invocations through the same handler contract.
func NewSkillNodeForEndpoint(id string, endpoint models.SkillEndpoint, payload string) *SkillNode {
	method := endpoint.Method
	if method == "" {
		method = http.MethodPost
	}

	timeout := endpoint.TimeoutSeconds
	if timeout <= 0 {
		timeout = DefaultTimeoutSeconds
	}

	headers := make(map[string]string, len(endpoint.Headers))
	for k, v := range endpoint.Headers {
		headers[k] = v
	}

	return &SkillNode{
		id: id,
		config: SkillConfig{
			URL:       endpoint.URL,
			Method:    strings.ToUpper(method),
			Headers:   headers,
			AuthToken: endpoint.AuthToken,
			Body:      payload,
			Timeout:   timeout,
		},
	}
}

// ID returns the node ID.
func (n *SkillNode) ID() string {
	return n.id
}

// Kind returns the node kind.
func (n *SkillNode) Kind() models.NodeKind {
	return models.NodeKindSkill
}

// Execute resolves the payload, performs the HTTP call and increments the
// run's external-call counter. Non-2xx responses and timeouts produce an
// error-status result with the payload echoed in the error detail.
func (n *SkillNode) Execute(ctx context.Context, state *models.RunState) (map[string]models.NodeResult, error) {
	started := time.Now()

	url := template.Resolve(n.config.URL, state)
	body := template.Resolve(n.config.Body, state)

	state.IncCalls()

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(n.config.Timeout)*time.Second)
	defer cancel()

	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(callCtx, n.config.Method, url, reqBody)
	if err != nil {
		return n.errorResult(body, started, fmt.Sprintf("failed to create request: %v", err)), nil
	}

	for key, value := range n.config.Headers {
		req.Header.Set(key, template.Resolve(value, state))
	}

	if body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if n.config.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+n.config.AuthToken)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return n.errorResult(body, started, fmt.Sprintf("skill call failed: %v", err)), nil
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return n.errorResult(body, started, fmt.Sprintf("failed to read response: %v", err)), nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := fmt.Sprintf("skill returned status %d: %s", resp.StatusCode, truncate(string(respBody), 512))

		return n.errorResult(body, started, detail), nil
	}

	output := map[string]any{
		"status_code": resp.StatusCode,
		"body":        string(respBody),
	}

	var jsonBody any
	if err := json.Unmarshal(respBody, &jsonBody); err == nil {
		output["json"] = jsonBody
	}

	return map[string]models.NodeResult{
		models.HandleMain: {
			NodeID:    n.id,
			Kind:      models.NodeKindSkill,
			Status:    models.NodeStatusSuccess,
			Input:     body,
			Output:    output,
			Duration:  time.Since(started),
			Timestamp: started,
		},
	}, nil
}

func (n *SkillNode) errorResult(payload string, started time.Time, message string) map[string]models.NodeResult {
	if payload != "" {
		message = fmt.Sprintf("%s (payload: %s)", message, truncate(payload, 256))
	}

	return map[string]models.NodeResult{
		models.HandleMain: {
			NodeID:    n.id,
			Kind:      models.NodeKindSkill,
			Status:    models.NodeStatusError,
			Input:     payload,
			Error:     message,
			Duration:  time.Since(started),
			Timestamp: started,
		},
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	return s[:max] + "..."
}
