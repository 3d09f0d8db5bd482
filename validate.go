package agentflow

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidStructure = errors.New("agentflow: invalid workflow structure")
	ErrInvalidNode      = errors.New("agentflow: invalid node")
	ErrDuplicateNode    = errors.New("agentflow: duplicate node id")
	ErrDanglingEdge     = errors.New("agentflow: edge references unknown node")
)

const (
	msgNoStart       = "Workflow must have exactly one START node"
	msgMultipleStart = "Workflow must have exactly one START node (found multiple)"
	msgNoEnd         = "Workflow must have exactly one END node"
	msgMultipleEnd   = "Workflow must have exactly one END node (found multiple)"
)

// ValidationResult is the outcome of a structural check.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Err converts a failed result into a *StructuralError, or nil when valid.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &StructuralError{Message: r.Error}
}

// StructuralError reports a start/end cardinality violation. It matches
// ErrInvalidStructure with errors.Is.
type StructuralError struct {
	Message string
}

func (e *StructuralError) Error() string { return e.Message }

func (e *StructuralError) Is(target error) bool { return target == ErrInvalidStructure }

// ValidateStructure checks that nodes contain exactly one start and exactly one
// end node. Checks run start-missing, start-multiple, end-missing,
// end-multiple and the first failure is returned.
func ValidateStructure(nodes []Node) ValidationResult {
	return validateMarkers(nodes, func(n Node) bool {
		return blockTypeOf(n) == BlockStart
	}, func(n Node) bool {
		return blockTypeOf(n) == BlockEnd
	})
}

// ValidateWorkflow applies the same rule to a backend document.
func ValidateWorkflow(nodes []WorkflowNode) ValidationResult {
	return validateMarkers(nodes, func(n WorkflowNode) bool {
		return n != nil && n.Kind() == KindStart
	}, func(n WorkflowNode) bool {
		return n != nil && n.Kind() == KindEnd
	})
}

func validateMarkers[T any](nodes []T, isStart, isEnd func(T) bool) ValidationResult {
	var starts, ends int
	for _, n := range nodes {
		if isStart(n) {
			starts++
		}
		if isEnd(n) {
			ends++
		}
	}

	switch {
	case starts == 0:
		return ValidationResult{Error: msgNoStart}
	case starts > 1:
		return ValidationResult{Error: msgMultipleStart}
	case ends == 0:
		return ValidationResult{Error: msgNoEnd}
	case ends > 1:
		return ValidationResult{Error: msgMultipleEnd}
	}
	return ValidationResult{Valid: true}
}

// CheckIntegrity reports duplicate node ids and edges whose endpoints do not
// name a node. The converters never call it; graphs with such defects pass
// through them unchanged.
func CheckIntegrity(g Graph) error {
	var errs []error

	ids := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if ids[n.ID] {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateNode, n.ID))
			continue
		}
		ids[n.ID] = true
	}

	for _, e := range g.Edges {
		if !ids[e.Source] {
			errs = append(errs, fmt.Errorf("%w: edge %s source %q", ErrDanglingEdge, e.ID, e.Source))
		}
		if !ids[e.Target] {
			errs = append(errs, fmt.Errorf("%w: edge %s target %q", ErrDanglingEdge, e.ID, e.Target))
		}
	}

	return errors.Join(errs...)
}
