package agentflow

// FromBackend converts a backend workflow into an editor graph. The backend is
// trusted, so no structural check runs. Every node is placed at the origin;
// laying the graph out is up to the caller.
func FromBackend(w Workflow) Graph {
	nodes := make([]Node, 0, len(w.Nodes))
	for _, n := range w.Nodes {
		if n == nil {
			continue
		}
		nodes = append(nodes, Node{ID: n.NodeID(), Data: toNodeData(n)})
	}

	edges := make([]Edge, 0, len(w.Edges))
	for _, e := range w.Edges {
		edges = append(edges, Edge{
			ID:     e.ID,
			Source: e.Source,
			Target: e.Target,
			Data:   map[string]any{},
		})
	}

	return Graph{
		Nodes:    nodes,
		Edges:    edges,
		Viewport: &Viewport{Zoom: 1},
	}
}

// toNodeData rebuilds the editor payload. Markers come back without
// variables or outputs; message and slot-filling models use the flat
// temperature, router models the nested one.
func toNodeData(n WorkflowNode) NodeData {
	switch b := n.(type) {
	case StartNode:
		return MarkerData{Type: BlockStart, Title: "START"}
	case EndNode:
		return MarkerData{Type: BlockEnd, Title: "END"}
	case MessageNode:
		return MessageData{
			Type:    BlockTypeOf(KindMessage),
			Title:   "Message",
			Message: b.Message,
			Mode:    orMode(b.Mode),
			Model:   flatModel(b.Model),
		}
	case RouterNode:
		var model *EditorModel
		if b.Model != nil {
			model = &EditorModel{
				Name:       b.Model.Name,
				Parameters: &ModelParameters{Temperature: b.Model.Temperature},
			}
		}
		return RouterData{
			Type:       BlockTypeOf(KindRouter),
			Title:      "Router",
			Conditions: b.Condition,
			Model:      model,
		}
	case SlotFillingNode:
		maxTurns := b.MaxTurns
		if maxTurns <= 0 {
			maxTurns = defaultMaxTurns
		}
		var validation *EditorValidation
		if b.Validation != nil {
			validation = &EditorValidation{
				Criteria: b.Validation.Criteria,
				Model:    flatModel(b.Validation.Model),
			}
		}
		model := b.Model
		return SlotFillingData{
			Type:       BlockTypeOf(KindSlotFilling),
			Title:      "Slot Filling",
			SlotName:   b.SlotName,
			Question:   b.Question,
			Model:      flatModel(&model),
			MaxTurns:   maxTurns,
			Validation: validation,
		}
	default:
		return MessageData{Type: BlockTypeOf(n.Kind()), Title: string(n.Kind())}
	}
}

func flatModel(m *Model) *EditorModel {
	if m == nil {
		return nil
	}
	t := m.Temperature
	return &EditorModel{Name: m.Name, Temperature: &t}
}
