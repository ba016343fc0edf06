package registry

import (
	"log/slog"

	"github.com/fluxionhq/fluxion/pkg/llm"
	conditionnode "github.com/fluxionhq/fluxion/pkg/nodes/condition"
	inputnode "github.com/fluxionhq/fluxion/pkg/nodes/input"
	llmnode "github.com/fluxionhq/fluxion/pkg/nodes/llm"
	outputnode "github.com/fluxionhq/fluxion/pkg/nodes/output"
	skillnode "github.com/fluxionhq/fluxion/pkg/nodes/skill"
	transformnode "github.com/fluxionhq/fluxion/pkg/nodes/transform"
)

// NewDefaultRegistry registers every built-in node kind. The llm factory is
// bound to the given chat backend client.
func NewDefaultRegistry(logger *slog.Logger, client llm.Client) *Registry {
	r := NewRegistry(logger)

	r.Register(inputnode.NewInputNodeFactory())
	r.Register(llmnode.NewLLMNodeFactory(client))
	r.Register(skillnode.NewSkillNodeFactory())
	r.Register(transformnode.NewTransformNodeFactory())
	r.Register(outputnode.NewOutputNodeFactory())
	r.Register(conditionnode.NewConditionNodeFactory())

	return r
}
