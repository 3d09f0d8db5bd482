package agentflow

import (
	"context"
	"errors"
)

var (
	ErrFlowNotFound = errors.New("agentflow: flow not found")
	ErrFlowExists   = errors.New("agentflow: flow already exists")
)

// Store defines the contract for persisting agent flows.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// CreateFlow stores a new flow. Returns ErrFlowExists if the
	// agent_flow_id is taken.
	CreateFlow(ctx context.Context, req *CreateRequest) (*AgentFlow, error)
	// GetFlow returns nil, nil if the flow does not exist.
	GetFlow(ctx context.Context, agentFlowID string) (*AgentFlow, error)
	// UpdateFlow returns ErrFlowNotFound if the flow does not exist.
	UpdateFlow(ctx context.Context, agentFlowID string, req *UpdateRequest) (*AgentFlow, error)
	// DeleteFlow is a no-op for unknown ids.
	DeleteFlow(ctx context.Context, agentFlowID string) error
	// ListFlows returns newest first.
	ListFlows(ctx context.Context, opts ListOptions) (*ListResponse, error)
}
