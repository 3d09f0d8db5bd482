package agentflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NodeError is a per-node configuration problem, as shown in the editor's
// checklist. It matches ErrInvalidNode with errors.Is.
type NodeError struct {
	NodeID string
	Reason string
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %s", e.NodeID, e.Reason)
}

func (e *NodeError) Is(target error) bool { return target == ErrInvalidNode }

// CheckNode applies the node panel rules to a single node. Marker nodes and
// nodes without a payload are always valid.
func CheckNode(n Node) error {
	reason := checkData(n.Data)
	if reason == "" {
		return nil
	}
	return &NodeError{NodeID: n.ID, Reason: reason}
}

// CheckNodes runs CheckNode over every node and joins the failures.
func CheckNodes(nodes []Node) error {
	var errs []error
	for _, n := range nodes {
		if err := CheckNode(n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func checkData(data NodeData) string {
	switch d := data.(type) {
	case MessageData:
		if strings.TrimSpace(d.Message) == "" {
			return "Message content is required"
		}
		if d.Mode == ModeLLM && (d.Model == nil || d.Model.Name == "") {
			return "Model name is required in LLM mode"
		}
	case RouterData:
		if strings.TrimSpace(d.Conditions) == "" && strings.TrimSpace(d.Condition) == "" {
			return "Condition is required"
		}
		if d.Model != nil && d.Model.Name == "" {
			return "Model name is required when model is specified"
		}
	case SlotFillingData:
		if strings.TrimSpace(d.SlotName) == "" {
			return "Slot name is required"
		}
		if strings.TrimSpace(d.Question) == "" {
			return "Question is required"
		}
		if d.Model == nil || d.Model.Name == "" {
			return "Model name is required"
		}
		if d.MaxTurns < 1 {
			return "Max turns must be at least 1"
		}
		if d.Validation != nil && d.Validation.Criteria != "" && strings.TrimSpace(d.Validation.Criteria) == "" {
			return "Validation criteria cannot be empty"
		}
	}
	return ""
}

// NewNode returns a node carrying the panel defaults for its type, placed at
// the origin.
func NewNode(id string, t BlockType) Node {
	var data NodeData
	switch KindOf(t) {
	case KindStart:
		data = MarkerData{Type: t, Title: "START"}
	case KindEnd:
		data = MarkerData{Type: t, Title: "END"}
	case KindRouter:
		data = RouterData{Type: t, Title: "Router"}
	case KindSlotFilling:
		temp := 0.0
		data = SlotFillingData{
			Type:     t,
			Title:    "Slot Filling",
			Model:    &EditorModel{Name: "gpt-4.1", Temperature: &temp},
			MaxTurns: 3,
		}
	default:
		data = MessageData{Type: t, Title: "Message", Mode: ModeStrict}
	}
	return Node{ID: id, Data: data}
}

// NewEdge connects source to target under a fresh uuid.
func NewEdge(source, target string) Edge {
	return Edge{ID: uuid.NewString(), Source: source, Target: target, Data: map[string]any{}}
}
