package skill

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxionhq/fluxion/pkg/models"
)

func TestNewSkillNode_MissingURL(t *testing.T) {
	_, err := NewSkillNode("call", map[string]any{})
	require.Error(t, err)
	assert.Equal(t, "missing required field 'url'", err.Error())
}

func TestSkillNode_Execute_Success(t *testing.T) {
	var gotBody string

	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotAuth = r.Header.Get("Authorization")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer":42}`))
	}))
	defer server.Close()

	state := models.NewRunState("exec-1", "what is the answer", models.RunOptions{})

	node, err := NewSkillNode("call", map[string]any{
		"url":        server.URL,
		"body":       `{"q":"{{input}}"}`,
		"auth_token": "secret",
	})
	require.NoError(t, err)

	outputs, err := node.Execute(context.Background(), state)
	require.NoError(t, err)

	result := outputs[models.HandleMain]
	require.Equal(t, models.NodeStatusSuccess, result.Status)
	assert.Equal(t, `{"q":"what is the answer"}`, gotBody)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, 200, result.Output["status_code"])
	assert.Equal(t, `{"answer":42}`, result.Output["body"])
	assert.Equal(t, map[string]any{"answer": float64(42)}, result.Output["json"])
	assert.Equal(t, 1, state.Calls())
}

func TestSkillNode_Execute_Non2xxIsErrorResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	state := models.NewRunState("exec-1", nil, models.RunOptions{})

	node, err := NewSkillNode("call", map[string]any{
		"url":  server.URL,
		"body": `{"a":1}`,
	})
	require.NoError(t, err)

	outputs, err := node.Execute(context.Background(), state)
	require.NoError(t, err, "handler failures must not surface as Go errors")

	result := outputs[models.HandleMain]
	assert.Equal(t, models.NodeStatusError, result.Status)
	assert.Contains(t, result.Error, "status 502")
	assert.Contains(t, result.Error, `{"a":1}`, "error detail should echo the payload")
	assert.Equal(t, 1, state.Calls(), "failed calls still count")
}

func TestSkillNode_Execute_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	state := models.NewRunState("exec-1", nil, models.RunOptions{})

	node := NewSkillNodeForEndpoint("call", models.SkillEndpoint{URL: server.URL}, "")

	// A caller deadline tighter than the server delay trips first.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	outputs, err := node.Execute(ctx, state)
	require.NoError(t, err)

	result := outputs[models.HandleMain]
	assert.Equal(t, models.NodeStatusError, result.Status)
	assert.Contains(t, result.Error, "skill call failed")
}

func TestSkillNode_Execute_HeaderTemplates(t *testing.T) {
	var gotHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Session")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	state := models.NewRunState("exec-1", "abc", models.RunOptions{})

	node, err := NewSkillNode("call", map[string]any{
		"url":     server.URL,
		"method":  "GET",
		"headers": map[string]any{"X-Session": "{{input}}"},
	})
	require.NoError(t, err)

	outputs, err := node.Execute(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, models.NodeStatusSuccess, outputs[models.HandleMain].Status)
	assert.Equal(t, "abc", gotHeader)
}

func TestNewSkillNodeForEndpoint_Defaults(t *testing.T) {
	node := NewSkillNodeForEndpoint("tc-1", models.SkillEndpoint{URL: "http://skills.local/sum"}, `{"a":1}`)

	assert.Equal(t, "tc-1", node.ID())
	assert.Equal(t, http.MethodPost, node.config.Method)
	assert.Equal(t, DefaultTimeoutSeconds, node.config.Timeout)
	assert.Equal(t, `{"a":1}`, node.config.Body)
}

func TestNewSkillNode_NumericTimeoutForms(t *testing.T) {
	// Go-constructed config carries int, JSON-decoded config float64.
	fromGo, err := NewSkillNode("call", map[string]any{
		"url":     "http://skills.local/sum",
		"timeout": 5,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, fromGo.config.Timeout)

	fromJSON, err := NewSkillNode("call", map[string]any{
		"url":     "http://skills.local/sum",
		"timeout": float64(7),
	})
	require.NoError(t, err)
	assert.Equal(t, 7, fromJSON.config.Timeout)
}
