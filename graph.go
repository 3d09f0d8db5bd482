package agentflow

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// BlockType is the node tag used by the workflow editor.
type BlockType string

const (
	BlockStart              BlockType = "start"
	BlockEnd                BlockType = "end"
	BlockMessage            BlockType = "message"
	BlockLLM                BlockType = "llm"
	BlockAnswer             BlockType = "answer"
	BlockIfElse             BlockType = "if-else"
	BlockQuestionClassifier BlockType = "question-classifier"
	BlockSlotFilling        BlockType = "slot-filling"
)

// MessageMode selects how a message node produces its reply.
type MessageMode string

const (
	ModeLLM    MessageMode = "llm"
	ModeStrict MessageMode = "strict"
)

// Graph is the node/edge document manipulated by the editor canvas.
type Graph struct {
	Nodes    []Node    `json:"nodes"`
	Edges    []Edge    `json:"edges"`
	Viewport *Viewport `json:"viewport,omitempty"`
}

// Viewport is the canvas pan/zoom state. The adapter only ever emits the default.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// Position is a node's location on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a vertex of the editor graph.
// Type is the canvas renderer name (e.g. "custom") and carries no meaning here;
// the semantic tag lives in Data.
type Node struct {
	ID       string   `json:"id"`
	Type     string   `json:"type,omitempty"`
	Data     NodeData `json:"data"`
	Position Position `json:"position"`
}

// Edge is a directed connection between two editor nodes.
// Everything besides ID, Source and Target is canvas state.
type Edge struct {
	ID           string         `json:"id"`
	Source       string         `json:"source"`
	Target       string         `json:"target"`
	SourceHandle string         `json:"sourceHandle,omitempty"`
	TargetHandle string         `json:"targetHandle,omitempty"`
	Type         string         `json:"type,omitempty"`
	Data         map[string]any `json:"data"`
}

// NodeData is the per-type payload of an editor node. The set of
// implementations is closed: MarkerData, MessageData, RouterData and
// SlotFillingData.
type NodeData interface {
	BlockType() BlockType
	nodeData()
}

// EditorModel is the model block of a node panel. Panels disagree on where the
// temperature lives, so both the flat and the nested form are kept.
type EditorModel struct {
	Name        string           `json:"name"`
	Temperature *float64         `json:"temperature,omitempty"`
	Parameters  *ModelParameters `json:"parameters,omitempty"`
}

type ModelParameters struct {
	Temperature float64 `json:"temperature"`
}

// MarkerData is the payload of start and end nodes.
type MarkerData struct {
	Type  BlockType `json:"type"`
	Title string    `json:"title"`
}

// MessageData is the payload of message-like nodes (message, llm, answer and
// any tag the editor->backend table does not know).
type MessageData struct {
	Type    BlockType    `json:"type"`
	Title   string       `json:"title"`
	Message string       `json:"message"`
	Mode    MessageMode  `json:"mode,omitempty"`
	Model   *EditorModel `json:"model,omitempty"`

	// Legacy text sources, read only when Message is empty.
	Context        *ContextRef          `json:"context,omitempty"`
	PromptTemplate []PromptTemplateItem `json:"prompt_template,omitempty"`
}

type ContextRef struct {
	Value string `json:"value"`
}

type PromptTemplateItem struct {
	Role string `json:"role,omitempty"`
	Text string `json:"text"`
}

// RouterData is the payload of if-else and question-classifier nodes.
type RouterData struct {
	Type       BlockType    `json:"type"`
	Title      string       `json:"title"`
	Conditions string       `json:"conditions,omitempty"`
	Condition  string       `json:"condition,omitempty"`
	Model      *EditorModel `json:"model,omitempty"`
}

// SlotFillingData is the payload of slot-filling nodes.
type SlotFillingData struct {
	Type       BlockType         `json:"type"`
	Title      string            `json:"title"`
	SlotName   string            `json:"slot_name"`
	Question   string            `json:"question"`
	Model      *EditorModel      `json:"model,omitempty"`
	MaxTurns   int               `json:"max_turns,omitempty"`
	Validation *EditorValidation `json:"validation,omitempty"`

	// Legacy spellings of SlotName and Question.
	Variable string `json:"variable,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
}

type EditorValidation struct {
	Criteria string       `json:"criteria"`
	Model    *EditorModel `json:"model,omitempty"`
}

func (d MarkerData) BlockType() BlockType      { return d.Type }
func (d MessageData) BlockType() BlockType     { return d.Type }
func (d RouterData) BlockType() BlockType      { return d.Type }
func (d SlotFillingData) BlockType() BlockType { return d.Type }

func (MarkerData) nodeData()      {}
func (MessageData) nodeData()     {}
func (RouterData) nodeData()      {}
func (SlotFillingData) nodeData() {}

// blockTypeOf returns the node's tag, or "" when the node has no payload.
func blockTypeOf(n Node) BlockType {
	if n.Data == nil {
		return ""
	}
	return n.Data.BlockType()
}

// UnmarshalJSON decodes the loosely typed data object of a canvas node into
// the payload variant selected by its tag. Keys the variant does not know are
// ignored.
func (n *Node) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID       string         `json:"id"`
		Type     string         `json:"type"`
		Data     map[string]any `json:"data"`
		Position Position       `json:"position"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	data, err := DecodeNodeData(raw.Data)
	if err != nil {
		return fmt.Errorf("agentflow: node %s: %w", raw.ID, err)
	}

	n.ID = raw.ID
	n.Type = raw.Type
	n.Data = data
	n.Position = raw.Position
	return nil
}

// DecodeNodeData builds a NodeData from a canvas data map. A nil map yields a
// nil payload.
func DecodeNodeData(m map[string]any) (NodeData, error) {
	if m == nil {
		return nil, nil
	}
	tag, _ := m["type"].(string)

	var err error
	switch KindOf(BlockType(tag)) {
	case KindStart, KindEnd:
		var d MarkerData
		err = decodeData(m, &d)
		return d, err
	case KindRouter:
		var d RouterData
		err = decodeData(m, &d)
		return d, err
	case KindSlotFilling:
		var d SlotFillingData
		err = decodeData(m, &d)
		return d, err
	default:
		var d MessageData
		err = decodeData(m, &d)
		return d, err
	}
}

func decodeData(m map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(m); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
