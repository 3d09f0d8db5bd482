package agentflow_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/meikuraledutech/agentflow"
	"github.com/stretchr/testify/assert"
)

func TestGenerateAgentFlowID(t *testing.T) {
	pattern := regexp.MustCompile(`^agent_flow_\d{13}_[0-9a-z]{9}$`)

	seen := map[string]bool{}
	for range 100 {
		id := agentflow.GenerateAgentFlowID()
		assert.Regexp(t, pattern, id)
		seen[id] = true
	}
	assert.Len(t, seen, 100)
}

func TestAgentFlow_ApplyAndSummary(t *testing.T) {
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	f := &agentflow.AgentFlow{
		ID:          7,
		AgentFlowID: "f",
		Name:        "old",
		Goal:        "keep",
		Workflow:    agentflow.Workflow{Nodes: []agentflow.WorkflowNode{agentflow.StartNode{ID: "s"}}},
		CreatedAt:   created,
		UpdatedAt:   created,
	}

	name := "new"
	w := agentflow.Workflow{Nodes: []agentflow.WorkflowNode{agentflow.EndNode{ID: "e"}}}
	f.Apply(&agentflow.UpdateRequest{Name: &name, Workflow: &w})

	assert.Equal(t, "new", f.Name)
	assert.Equal(t, "keep", f.Goal)
	assert.Equal(t, w, f.Workflow)
	assert.Equal(t, created, f.UpdatedAt)

	assert.Equal(t, agentflow.Summary{
		ID:          7,
		AgentFlowID: "f",
		Name:        "new",
		Goal:        "keep",
		CreatedAt:   created,
		UpdatedAt:   created,
	}, f.Summary())
}
