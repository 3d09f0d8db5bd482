package agentflow

import "fmt"

const (
	defaultSlotModel = "gpt-4o-mini"
	defaultMaxTurns  = 3
)

// CreateOptions names the flow a graph is published as.
type CreateOptions struct {
	AgentFlowID string
	Name        string
	Goal        string
}

// ToBackendCreate validates g and converts it into a create request.
// A structure violation returns a *StructuralError and no request.
func ToBackendCreate(g Graph, opts CreateOptions) (*CreateRequest, error) {
	w, err := ToBackendUpdate(g)
	if err != nil {
		return nil, err
	}
	return &CreateRequest{
		AgentFlowID: opts.AgentFlowID,
		Name:        opts.Name,
		Goal:        opts.Goal,
		Workflow:    *w,
	}, nil
}

// ToBackendUpdate validates g and converts it into a backend workflow. A node
// whose payload variant does not match its tag is a *NodeError.
// The result depends only on g; converting the same graph twice yields
// identical documents.
func ToBackendUpdate(g Graph) (*Workflow, error) {
	if err := ValidateStructure(g.Nodes).Err(); err != nil {
		return nil, err
	}

	nodes := make([]WorkflowNode, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		wn, err := toWorkflowNode(n)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, wn)
	}

	edges := make([]WorkflowEdge, 0, len(g.Edges))
	for _, e := range g.Edges {
		edges = append(edges, WorkflowEdge{ID: e.ID, Source: e.Source, Target: e.Target})
	}

	return &Workflow{Nodes: nodes, Edges: edges}, nil
}

// toWorkflowNode maps n by its tag. The payload must be the variant the tag
// selects; markers keep only their id.
func toWorkflowNode(n Node) (WorkflowNode, error) {
	if n.Data == nil {
		return MessageNode{ID: n.ID, Mode: ModeLLM}, nil
	}

	switch KindOf(n.Data.BlockType()) {
	case KindStart:
		return StartNode{ID: n.ID}, nil
	case KindEnd:
		return EndNode{ID: n.ID}, nil
	case KindRouter:
		if d, ok := n.Data.(RouterData); ok {
			return RouterNode{
				ID:        n.ID,
				Condition: firstNonEmpty(d.Conditions, d.Condition),
				Model:     optionalModel(d.Model, nestedFirst),
			}, nil
		}
	case KindSlotFilling:
		if d, ok := n.Data.(SlotFillingData); ok {
			return slotFillingNode(n.ID, d), nil
		}
	default:
		if d, ok := n.Data.(MessageData); ok {
			return MessageNode{
				ID:      n.ID,
				Message: messageText(d),
				Mode:    orMode(d.Mode),
				Model:   optionalModel(d.Model, nestedFirst),
			}, nil
		}
	}
	return nil, &NodeError{
		NodeID: n.ID,
		Reason: fmt.Sprintf("%T payload does not fit type %q", n.Data, n.Data.BlockType()),
	}
}

func slotFillingNode(id string, d SlotFillingData) SlotFillingNode {
	model := Model{Name: defaultSlotModel}
	if d.Model != nil {
		if d.Model.Name != "" {
			model.Name = d.Model.Name
		}
		model.Temperature = temperature(d.Model, flatFirst)
	}

	maxTurns := d.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}

	var validation *Validation
	if d.Validation != nil {
		validation = &Validation{
			Criteria: d.Validation.Criteria,
			Model:    optionalModel(d.Validation.Model, flatFirst),
		}
	}

	return SlotFillingNode{
		ID:         id,
		SlotName:   firstNonEmpty(d.SlotName, d.Variable),
		Question:   firstNonEmpty(d.Question, d.Prompt),
		Model:      model,
		MaxTurns:   maxTurns,
		Validation: validation,
	}
}

// messageText picks the first non-empty of message, context.value and the
// first prompt template entry.
func messageText(d MessageData) string {
	if d.Message != "" {
		return d.Message
	}
	if d.Context != nil && d.Context.Value != "" {
		return d.Context.Value
	}
	if len(d.PromptTemplate) > 0 {
		return d.PromptTemplate[0].Text
	}
	return ""
}

func orMode(m MessageMode) MessageMode {
	if m == "" {
		return ModeLLM
	}
	return m
}

// temperatureOrder decides which of the two editor temperature spellings wins.
// A zero temperature counts as unset in either position.
type temperatureOrder int

const (
	nestedFirst temperatureOrder = iota
	flatFirst
)

func temperature(m *EditorModel, order temperatureOrder) float64 {
	var flat, nested float64
	if m.Temperature != nil {
		flat = *m.Temperature
	}
	if m.Parameters != nil {
		nested = m.Parameters.Temperature
	}

	if order == flatFirst {
		if flat != 0 {
			return flat
		}
		return nested
	}
	if nested != 0 {
		return nested
	}
	return flat
}

// optionalModel keeps absence distinct from an empty model: nil in, nil out.
func optionalModel(m *EditorModel, order temperatureOrder) *Model {
	if m == nil {
		return nil
	}
	return &Model{Name: m.Name, Temperature: temperature(m, order)}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
