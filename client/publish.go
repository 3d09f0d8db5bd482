package client

import (
	"context"

	"github.com/meikuraledutech/agentflow"
	"go.uber.org/zap"
)

const (
	DefaultName = "New Agent Flow"
	DefaultGoal = "Agent flow created from workflow editor"
)

// PublishOptions selects create or update. An empty AgentFlowID creates a new
// flow under a generated id.
type PublishOptions struct {
	AgentFlowID string
	Name        string
	Goal        string
}

// Publish checks every node, converts g and stores it. Nothing is sent when
// a node check or the start/end rule fails.
func (c *Client) Publish(ctx context.Context, g agentflow.Graph, opts PublishOptions) (*agentflow.AgentFlow, error) {
	if err := agentflow.CheckNodes(g.Nodes); err != nil {
		return nil, err
	}

	if opts.AgentFlowID == "" {
		req, err := agentflow.ToBackendCreate(g, agentflow.CreateOptions{
			AgentFlowID: agentflow.GenerateAgentFlowID(),
			Name:        orDefault(opts.Name, DefaultName),
			Goal:        orDefault(opts.Goal, DefaultGoal),
		})
		if err != nil {
			return nil, err
		}
		c.logger.Info("publishing new agent flow", zap.String("agent_flow_id", req.AgentFlowID))
		return c.Create(ctx, req)
	}

	w, err := agentflow.ToBackendUpdate(g)
	if err != nil {
		return nil, err
	}
	req := &agentflow.UpdateRequest{Workflow: w}
	if opts.Name != "" {
		req.Name = &opts.Name
	}
	if opts.Goal != "" {
		req.Goal = &opts.Goal
	}
	c.logger.Info("publishing agent flow update", zap.String("agent_flow_id", opts.AgentFlowID))
	return c.Update(ctx, opts.AgentFlowID, req)
}

// Load fetches a flow and rebuilds its editor graph.
func (c *Client) Load(ctx context.Context, agentFlowID string) (*agentflow.AgentFlow, agentflow.Graph, error) {
	f, err := c.Get(ctx, agentFlowID)
	if err != nil {
		return nil, agentflow.Graph{}, err
	}
	return f, agentflow.FromBackend(f.Workflow), nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
