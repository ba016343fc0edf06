package models

// SkillEndpoint describes how to invoke a skill over HTTP.
type SkillEndpoint struct {
	URL     string            `json:"url"     validate:"required,url"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	// AuthToken, when set, is sent as a bearer Authorization header.
	AuthToken string `json:"auth_token,omitempty"`
	// TimeoutSeconds caps the call; zero means the 30s default.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
}

// Skill is an externally callable capability, invocable as a graph node or
// via agentic tool-calling. Parameters is a JSON schema describing the
// arguments the model may supply.
type Skill struct {
	Name        string         `json:"name"        validate:"required"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Endpoint    SkillEndpoint  `json:"endpoint"    validate:"required"`
}

// Validate checks struct-level skill constraints.
func (s *Skill) Validate() error {
	return validate.Struct(s)
}

// AgenticSession groups one chat turn's working state. It is created per
// turn, seeded from the memory gateway, and discarded afterwards; durable
// conversation state lives only in the external memory store.
type AgenticSession struct {
	WorkflowID string    `json:"workflow_id"`
	SessionID  string    `json:"session_id"`
	Skills     []Skill   `json:"skills,omitempty"`
	State      *RunState `json:"state"`

	// LastInvocation holds the most recent skill call result, if any.
	LastInvocation *NodeResult `json:"last_invocation,omitempty"`
}
