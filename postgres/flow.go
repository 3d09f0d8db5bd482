package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/meikuraledutech/agentflow"
)

const flowColumns = `id, agent_flow_id, name, goal, workflow, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFlow(row rowScanner) (*agentflow.AgentFlow, error) {
	var (
		f   agentflow.AgentFlow
		raw []byte
	)
	if err := row.Scan(&f.ID, &f.AgentFlowID, &f.Name, &f.Goal, &raw, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &f.Workflow); err != nil {
		return nil, fmt.Errorf("agentflow: decode workflow of %s: %w", f.AgentFlowID, err)
	}
	return &f, nil
}

// CreateFlow inserts a new flow.
// Returns ErrFlowExists if the agent_flow_id is already stored.
func (s *PGStore) CreateFlow(ctx context.Context, req *agentflow.CreateRequest) (*agentflow.AgentFlow, error) {
	wf, err := json.Marshal(req.Workflow)
	if err != nil {
		return nil, fmt.Errorf("agentflow: encode workflow: %w", err)
	}

	row := s.db.QueryRow(ctx,
		`INSERT INTO agent_flows (agent_flow_id, name, goal, workflow) VALUES ($1, $2, $3, $4)
		 RETURNING `+flowColumns,
		req.AgentFlowID, req.Name, req.Goal, json.RawMessage(wf),
	)
	f, err := scanFlow(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, agentflow.ErrFlowExists
		}
		return nil, fmt.Errorf("agentflow: insert flow: %w", err)
	}
	return f, nil
}

// GetFlow fetches a flow by its agent_flow_id.
// Returns nil, nil if not found.
func (s *PGStore) GetFlow(ctx context.Context, agentFlowID string) (*agentflow.AgentFlow, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+flowColumns+` FROM agent_flows WHERE agent_flow_id = $1`, agentFlowID)
	f, err := scanFlow(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("agentflow: get flow: %w", err)
	}
	return f, nil
}

// UpdateFlow overwrites the fields set in req and bumps updated_at.
// Returns ErrFlowNotFound if the flow doesn't exist.
func (s *PGStore) UpdateFlow(ctx context.Context, agentFlowID string, req *agentflow.UpdateRequest) (*agentflow.AgentFlow, error) {
	var wf []byte
	if req.Workflow != nil {
		var err error
		if wf, err = json.Marshal(req.Workflow); err != nil {
			return nil, fmt.Errorf("agentflow: encode workflow: %w", err)
		}
	}

	row := s.db.QueryRow(ctx,
		`UPDATE agent_flows SET
		     name       = COALESCE($2, name),
		     goal       = COALESCE($3, goal),
		     workflow   = COALESCE($4::jsonb, workflow),
		     updated_at = NOW()
		 WHERE agent_flow_id = $1
		 RETURNING `+flowColumns,
		agentFlowID, req.Name, req.Goal, wf,
	)
	f, err := scanFlow(row)
	if err != nil {
		if isNoRows(err) {
			return nil, agentflow.ErrFlowNotFound
		}
		return nil, fmt.Errorf("agentflow: update flow: %w", err)
	}
	return f, nil
}

// DeleteFlow deletes a flow by its agent_flow_id.
// No error if the flow doesn't exist.
func (s *PGStore) DeleteFlow(ctx context.Context, agentFlowID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM agent_flows WHERE agent_flow_id = $1`, agentFlowID)
	if err != nil {
		return fmt.Errorf("agentflow: delete flow: %w", err)
	}
	return nil
}

// ListFlows returns flow summaries, newest first. Search matches the id, name
// or goal case-insensitively. TotalCount counts every match, not just the page.
func (s *PGStore) ListFlows(ctx context.Context, opts agentflow.ListOptions) (*agentflow.ListResponse, error) {
	pattern := likePattern(opts.Search)

	var total int
	if err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM agent_flows
		 WHERE agent_flow_id ILIKE $1 ESCAPE '\' OR name ILIKE $1 ESCAPE '\' OR goal ILIKE $1 ESCAPE '\'`, pattern,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("agentflow: count flows: %w", err)
	}

	var limit any
	if opts.Limit > 0 {
		limit = opts.Limit
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, agent_flow_id, name, goal, created_at, updated_at FROM agent_flows
		 WHERE agent_flow_id ILIKE $1 ESCAPE '\' OR name ILIKE $1 ESCAPE '\' OR goal ILIKE $1 ESCAPE '\'
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		pattern, limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("agentflow: list flows: %w", err)
	}
	defer rows.Close()

	resp := &agentflow.ListResponse{Items: []agentflow.Summary{}, TotalCount: total}
	for rows.Next() {
		var sm agentflow.Summary
		if err := rows.Scan(&sm.ID, &sm.AgentFlowID, &sm.Name, &sm.Goal, &sm.CreatedAt, &sm.UpdatedAt); err != nil {
			return nil, fmt.Errorf("agentflow: scan flow: %w", err)
		}
		resp.Items = append(resp.Items, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("agentflow: rows flows: %w", err)
	}

	return resp, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns search into a substring ILIKE pattern, escaping the
// wildcards so they match literally.
func likePattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}
