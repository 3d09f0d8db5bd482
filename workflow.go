package agentflow

import (
	"encoding/json"
	"fmt"
)

// NodeKind is the node tag used by the flow-execution backend.
type NodeKind string

const (
	KindStart       NodeKind = "start"
	KindEnd         NodeKind = "end"
	KindMessage     NodeKind = "message"
	KindRouter      NodeKind = "router"
	KindSlotFilling NodeKind = "slot_filling"
)

// Workflow is the backend workflow document.
type Workflow struct {
	Nodes []WorkflowNode `json:"nodes"`
	Edges []WorkflowEdge `json:"edges"`
}

type WorkflowEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// WorkflowNode is a backend node. The set of implementations is closed:
// StartNode, EndNode, MessageNode, RouterNode, SlotFillingNode and
// UnknownNode.
type WorkflowNode interface {
	NodeID() string
	Kind() NodeKind
	workflowNode()
}

// Model is the backend's flat model block.
type Model struct {
	Name        string  `json:"name"`
	Temperature float64 `json:"temperature"`
}

type Validation struct {
	Criteria string `json:"criteria"`
	Model    *Model `json:"model"`
}

type StartNode struct {
	ID string `json:"id"`
}

type EndNode struct {
	ID string `json:"id"`
}

type MessageNode struct {
	ID      string      `json:"id"`
	Message string      `json:"message"`
	Mode    MessageMode `json:"mode,omitempty"`
	Model   *Model      `json:"model"`
}

type RouterNode struct {
	ID        string `json:"id"`
	Condition string `json:"condition"`
	Model     *Model `json:"model"`
}

type SlotFillingNode struct {
	ID         string      `json:"id"`
	SlotName   string      `json:"slot_name"`
	Question   string      `json:"question"`
	Model      Model       `json:"model"`
	MaxTurns   int         `json:"max_turns"`
	Validation *Validation `json:"validation"`
}

// UnknownNode holds a backend node whose tag this package does not know.
// Raw is re-emitted verbatim when the node is encoded again.
type UnknownNode struct {
	ID   string
	Type NodeKind
	Raw  json.RawMessage
}

func (n StartNode) NodeID() string       { return n.ID }
func (n EndNode) NodeID() string         { return n.ID }
func (n MessageNode) NodeID() string     { return n.ID }
func (n RouterNode) NodeID() string      { return n.ID }
func (n SlotFillingNode) NodeID() string { return n.ID }
func (n UnknownNode) NodeID() string     { return n.ID }

func (StartNode) Kind() NodeKind       { return KindStart }
func (EndNode) Kind() NodeKind         { return KindEnd }
func (MessageNode) Kind() NodeKind     { return KindMessage }
func (RouterNode) Kind() NodeKind      { return KindRouter }
func (SlotFillingNode) Kind() NodeKind { return KindSlotFilling }
func (n UnknownNode) Kind() NodeKind   { return n.Type }

func (StartNode) workflowNode()       {}
func (EndNode) workflowNode()         {}
func (MessageNode) workflowNode()     {}
func (RouterNode) workflowNode()      {}
func (SlotFillingNode) workflowNode() {}
func (UnknownNode) workflowNode()     {}

func (n StartNode) MarshalJSON() ([]byte, error) {
	type fields StartNode
	return json.Marshal(struct {
		fields
		Type NodeKind `json:"type"`
	}{fields(n), KindStart})
}

func (n EndNode) MarshalJSON() ([]byte, error) {
	type fields EndNode
	return json.Marshal(struct {
		fields
		Type NodeKind `json:"type"`
	}{fields(n), KindEnd})
}

func (n MessageNode) MarshalJSON() ([]byte, error) {
	type fields MessageNode
	return json.Marshal(struct {
		fields
		Type NodeKind `json:"type"`
	}{fields(n), KindMessage})
}

func (n RouterNode) MarshalJSON() ([]byte, error) {
	type fields RouterNode
	return json.Marshal(struct {
		fields
		Type NodeKind `json:"type"`
	}{fields(n), KindRouter})
}

func (n SlotFillingNode) MarshalJSON() ([]byte, error) {
	type fields SlotFillingNode
	return json.Marshal(struct {
		fields
		Type NodeKind `json:"type"`
	}{fields(n), KindSlotFilling})
}

func (n UnknownNode) MarshalJSON() ([]byte, error) {
	if len(n.Raw) > 0 {
		return n.Raw, nil
	}
	return json.Marshal(struct {
		ID   string   `json:"id"`
		Type NodeKind `json:"type"`
	}{n.ID, n.Type})
}

// MarshalJSON always emits arrays, never null, for nodes and edges.
func (w Workflow) MarshalJSON() ([]byte, error) {
	nodes := w.Nodes
	if nodes == nil {
		nodes = []WorkflowNode{}
	}
	edges := w.Edges
	if edges == nil {
		edges = []WorkflowEdge{}
	}
	return json.Marshal(struct {
		Nodes []WorkflowNode `json:"nodes"`
		Edges []WorkflowEdge `json:"edges"`
	}{nodes, edges})
}

func (w *Workflow) UnmarshalJSON(b []byte) error {
	var raw struct {
		Nodes []json.RawMessage `json:"nodes"`
		Edges []WorkflowEdge    `json:"edges"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	nodes := make([]WorkflowNode, 0, len(raw.Nodes))
	for i, rn := range raw.Nodes {
		n, err := DecodeWorkflowNode(rn)
		if err != nil {
			return fmt.Errorf("agentflow: workflow node %d: %w", i, err)
		}
		nodes = append(nodes, n)
	}

	w.Nodes = nodes
	w.Edges = raw.Edges
	if w.Edges == nil {
		w.Edges = []WorkflowEdge{}
	}
	return nil
}

// DecodeWorkflowNode decodes one backend node, dispatching on its type field.
func DecodeWorkflowNode(b json.RawMessage) (WorkflowNode, error) {
	var head struct {
		ID   string   `json:"id"`
		Type NodeKind `json:"type"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return nil, err
	}

	switch head.Type {
	case KindStart:
		return StartNode{ID: head.ID}, nil
	case KindEnd:
		return EndNode{ID: head.ID}, nil
	case KindMessage:
		var n MessageNode
		err := json.Unmarshal(b, &n)
		return n, err
	case KindRouter:
		var n RouterNode
		err := json.Unmarshal(b, &n)
		return n, err
	case KindSlotFilling:
		var n SlotFillingNode
		err := json.Unmarshal(b, &n)
		return n, err
	default:
		raw := make(json.RawMessage, len(b))
		copy(raw, b)
		return UnknownNode{ID: head.ID, Type: head.Type, Raw: raw}, nil
	}
}
