package agentflow_test

import (
	"encoding/json"
	"testing"

	"github.com/meikuraledutech/agentflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromBackend_ScenarioD(t *testing.T) {
	var w agentflow.Workflow
	require.NoError(t, json.Unmarshal([]byte(`{
		"nodes": [{"id": "r1", "type": "router", "condition": "x>1", "model": {"name": "gpt-4.1", "temperature": 0.7}}],
		"edges": []
	}`), &w))

	g := agentflow.FromBackend(w)
	require.Len(t, g.Nodes, 1)

	assert.Equal(t, agentflow.Node{
		ID: "r1",
		Data: agentflow.RouterData{
			Type:       "if-else",
			Title:      "Router",
			Conditions: "x>1",
			Model: &agentflow.EditorModel{
				Name:       "gpt-4.1",
				Parameters: &agentflow.ModelParameters{Temperature: 0.7},
			},
		},
	}, g.Nodes[0])

	out, err := json.Marshal(g.Nodes[0].Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "if-else", "title": "Router", "conditions": "x>1",
		"model": {"name": "gpt-4.1", "parameters": {"temperature": 0.7}}
	}`, string(out))
}

func TestFromBackend_Markers(t *testing.T) {
	g := agentflow.FromBackend(agentflow.Workflow{
		Nodes: []agentflow.WorkflowNode{agentflow.StartNode{ID: "s"}, agentflow.EndNode{ID: "e"}},
		Edges: []agentflow.WorkflowEdge{{ID: "e1", Source: "s", Target: "e"}},
	})

	out, err := json.Marshal(g)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"nodes": [
			{"id": "s", "data": {"type": "start", "title": "START"}, "position": {"x": 0, "y": 0}},
			{"id": "e", "data": {"type": "end", "title": "END"}, "position": {"x": 0, "y": 0}}
		],
		"edges": [{"id": "e1", "source": "s", "target": "e", "data": {}}],
		"viewport": {"x": 0, "y": 0, "zoom": 1}
	}`, string(out))
}

func TestFromBackend_Message(t *testing.T) {
	g := agentflow.FromBackend(agentflow.Workflow{Nodes: []agentflow.WorkflowNode{
		agentflow.MessageNode{ID: "m1", Message: "hello", Model: &agentflow.Model{Name: "gpt-4.1", Temperature: 0.5}},
		agentflow.MessageNode{ID: "m2", Message: "static", Mode: agentflow.ModeStrict},
	}})

	assert.Equal(t, agentflow.MessageData{
		Type:    "message",
		Title:   "Message",
		Message: "hello",
		Mode:    "llm",
		Model:   &agentflow.EditorModel{Name: "gpt-4.1", Temperature: f64(0.5)},
	}, g.Nodes[0].Data)

	assert.Equal(t, agentflow.MessageData{
		Type:    "message",
		Title:   "Message",
		Message: "static",
		Mode:    "strict",
	}, g.Nodes[1].Data)
}

func TestFromBackend_SlotFilling(t *testing.T) {
	g := agentflow.FromBackend(agentflow.Workflow{Nodes: []agentflow.WorkflowNode{
		agentflow.SlotFillingNode{
			ID:       "sf",
			SlotName: "email",
			Question: "Email?",
			Model:    agentflow.Model{Name: "gpt-4o-mini"},
			Validation: &agentflow.Validation{
				Criteria: "valid address",
				Model:    &agentflow.Model{Name: "judge", Temperature: 0.2},
			},
		},
	}})

	assert.Equal(t, agentflow.SlotFillingData{
		Type:     "slot-filling",
		Title:    "Slot Filling",
		SlotName: "email",
		Question: "Email?",
		Model:    &agentflow.EditorModel{Name: "gpt-4o-mini", Temperature: f64(0)},
		MaxTurns: 3,
		Validation: &agentflow.EditorValidation{
			Criteria: "valid address",
			Model:    &agentflow.EditorModel{Name: "judge", Temperature: f64(0.2)},
		},
	}, g.Nodes[0].Data)
}

func TestFromBackend_UnknownKind(t *testing.T) {
	var w agentflow.Workflow
	require.NoError(t, json.Unmarshal([]byte(`{
		"nodes": [{"id": "t1", "type": "tool_call", "tool": "search"}],
		"edges": [{"id": "e", "source": "t1", "target": "t1"}]
	}`), &w))

	require.IsType(t, agentflow.UnknownNode{}, w.Nodes[0])

	g := agentflow.FromBackend(w)
	assert.Equal(t, agentflow.MessageData{Type: "message", Title: "tool_call"}, g.Nodes[0].Data)
	assert.Equal(t, map[string]any{}, g.Edges[0].Data)

	// The unknown node survives a re-encode untouched.
	out, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"nodes": [{"id": "t1", "type": "tool_call", "tool": "search"}],
		"edges": [{"id": "e", "source": "t1", "target": "t1"}]
	}`, string(out))
}

func TestFromBackend_LLMTagIsLost(t *testing.T) {
	w, err := agentflow.ToBackendUpdate(withMarkers(agentflow.Node{
		ID:   "l",
		Data: agentflow.MessageData{Type: agentflow.BlockLLM, Message: "hi"},
	}))
	require.NoError(t, err)

	g := agentflow.FromBackend(*w)
	assert.Equal(t, agentflow.BlockMessage, g.Nodes[1].Data.BlockType())
}

func TestTypeTables(t *testing.T) {
	outbound := map[agentflow.BlockType]agentflow.NodeKind{
		"start":               "start",
		"end":                 "end",
		"message":             "message",
		"llm":                 "message",
		"question-classifier": "router",
		"if-else":             "router",
		"answer":              "message",
		"slot-filling":        "slot_filling",
		"code":                "message",
		"":                    "message",
	}
	for in, want := range outbound {
		assert.Equal(t, want, agentflow.KindOf(in), "editor tag %q", in)
	}

	inbound := map[agentflow.NodeKind]agentflow.BlockType{
		"start":        "start",
		"end":          "end",
		"message":      "message",
		"router":       "if-else",
		"slot_filling": "slot-filling",
		"tool_call":    "message",
	}
	for in, want := range inbound {
		assert.Equal(t, want, agentflow.BlockTypeOf(in), "backend tag %q", in)
	}
}
