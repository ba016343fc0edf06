// Package template substitutes named placeholders into node-configured text
// using accumulated run state.
package template

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/fluxionhq/fluxion/pkg/models"
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`)

// Resolve substitutes placeholders of the form {{name}} in tmpl:
//
//	{{input}}       the original run input
//	{{context}}     serialized prior node outputs, or retrieved memory when
//	                the agentic loop injected one
//	{{node.<id>}}   the named node's last output
//
// Unknown placeholders are left verbatim. Template authors get predictable
// partial substitution instead of a crash on a typo; this lenient policy is
// the reference behavior.
func Resolve(tmpl string, state *models.RunState) string {
	if state == nil || !strings.Contains(tmpl, "{{") {
		return tmpl
	}

	return placeholder.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := placeholder.FindStringSubmatch(match)[1]

		switch {
		case name == "input":
			return state.InputString()
		case name == "context":
			if memCtx := state.MemoryContext(); memCtx != "" {
				return memCtx
			}

			return state.ContextJSON()
		case strings.HasPrefix(name, "node."):
			if out, ok := nodeOutput(state, strings.TrimPrefix(name, "node.")); ok {
				return out
			}

			return match
		default:
			return match
		}
	})
}

func nodeOutput(state *models.RunState, nodeID string) (string, bool) {
	res, ok := state.Result(nodeID)
	if !ok || res.Status != models.NodeStatusSuccess {
		return "", false
	}

	// A single-value output renders bare, anything larger as JSON.
	if len(res.Output) == 1 {
		for _, v := range res.Output {
			if s, ok := v.(string); ok {
				return s, true
			}
		}
	}

	data, err := json.Marshal(res.Output)
	if err != nil {
		return "", false
	}

	return string(data), true
}
