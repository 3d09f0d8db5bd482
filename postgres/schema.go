package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS agent_flows (
    id            BIGSERIAL PRIMARY KEY,
    agent_flow_id TEXT NOT NULL UNIQUE,
    name          TEXT NOT NULL,
    goal          TEXT NOT NULL DEFAULT '',
    workflow      JSONB NOT NULL DEFAULT '{"nodes": [], "edges": []}',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_agent_flows_created_at ON agent_flows(created_at DESC);
`

// CreateSchema creates the agent_flows table if it doesn't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the agent_flows table.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS agent_flows CASCADE;`)
	return err
}
