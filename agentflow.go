// Package agentflow converts between the visual workflow editor's graph and
// the agent-flow backend's workflow document, and guards the outbound
// direction with a structural check.
//
// The converters are pure: they read their argument, never mutate it, and do
// no I/O. Persistence and transport live in the postgres, redis, server and
// client packages.
package agentflow

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"
)

// AgentFlow is a stored flow as returned by the backend.
type AgentFlow struct {
	ID          int64     `json:"id"`
	AgentFlowID string    `json:"agent_flow_id"`
	Name        string    `json:"name"`
	Goal        string    `json:"goal"`
	Workflow    Workflow  `json:"workflow"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateRequest is the body of a create call.
type CreateRequest struct {
	AgentFlowID string   `json:"agent_flow_id"`
	Name        string   `json:"name"`
	Goal        string   `json:"goal"`
	Workflow    Workflow `json:"workflow"`
}

// UpdateRequest is the body of an update call. Nil fields are left unchanged.
type UpdateRequest struct {
	Name     *string   `json:"name,omitempty"`
	Goal     *string   `json:"goal,omitempty"`
	Workflow *Workflow `json:"workflow,omitempty"`
}

// Summary is a flow without its workflow, as listed by the backend.
type Summary struct {
	ID          int64     `json:"id"`
	AgentFlowID string    `json:"agent_flow_id"`
	Name        string    `json:"name"`
	Goal        string    `json:"goal"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListResponse is one page of summaries. TotalCount counts every match.
type ListResponse struct {
	Items      []Summary `json:"items"`
	TotalCount int       `json:"total_count"`
}

// ListOptions filters and pages a listing. Zero values mean "no limit",
// "from the start" and "no filter".
type ListOptions struct {
	Limit  int
	Offset int
	Search string
}

// Summary drops the workflow.
func (f *AgentFlow) Summary() Summary {
	return Summary{
		ID:          f.ID,
		AgentFlowID: f.AgentFlowID,
		Name:        f.Name,
		Goal:        f.Goal,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Apply copies the set fields of req onto f. It does not touch timestamps.
func (f *AgentFlow) Apply(req *UpdateRequest) {
	if req.Name != nil {
		f.Name = *req.Name
	}
	if req.Goal != nil {
		f.Goal = *req.Goal
	}
	if req.Workflow != nil {
		f.Workflow = *req.Workflow
	}
}

// GenerateAgentFlowID returns a new flow id of the form
// agent_flow_<unix millis>_<9 base36 chars>.
func GenerateAgentFlowID() string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return fmt.Sprintf("agent_flow_%s_%s", strconv.FormatInt(time.Now().UnixMilli(), 10), suffix)
}
