package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/agentflow"
	"github.com/meikuraledutech/agentflow/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ agentflow.Store = (*postgres.PGStore)(nil)

// newStore connects to AGENTFLOW_TEST_DATABASE_URL and recreates the schema.
// The test is skipped when the variable is unset.
func newStore(t *testing.T) *postgres.PGStore {
	t.Helper()
	dsn := os.Getenv("AGENTFLOW_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("AGENTFLOW_TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := postgres.New(pool)
	require.NoError(t, store.DropSchema(ctx))
	require.NoError(t, store.CreateSchema(ctx))
	t.Cleanup(func() { _ = store.DropSchema(context.Background()) })
	return store
}

func sampleWorkflow() agentflow.Workflow {
	return agentflow.Workflow{
		Nodes: []agentflow.WorkflowNode{
			agentflow.StartNode{ID: "s"},
			agentflow.MessageNode{ID: "m", Message: "hi", Mode: agentflow.ModeStrict},
			agentflow.EndNode{ID: "e"},
		},
		Edges: []agentflow.WorkflowEdge{{ID: "e1", Source: "s", Target: "m"}, {ID: "e2", Source: "m", Target: "e"}},
	}
}

func TestPGStore_Lifecycle(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	created, err := store.CreateFlow(ctx, &agentflow.CreateRequest{
		AgentFlowID: "agent_flow_1",
		Name:        "Support",
		Goal:        "Help customers",
		Workflow:    sampleWorkflow(),
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, sampleWorkflow(), created.Workflow)

	_, err = store.CreateFlow(ctx, &agentflow.CreateRequest{AgentFlowID: "agent_flow_1", Name: "dup"})
	assert.ErrorIs(t, err, agentflow.ErrFlowExists)

	got, err := store.GetFlow(ctx, "agent_flow_1")
	require.NoError(t, err)
	assert.Equal(t, "Support", got.Name)
	assert.Equal(t, sampleWorkflow(), got.Workflow)

	name := "Sales"
	updated, err := store.UpdateFlow(ctx, "agent_flow_1", &agentflow.UpdateRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Sales", updated.Name)
	assert.Equal(t, "Help customers", updated.Goal)
	assert.Equal(t, sampleWorkflow(), updated.Workflow)

	_, err = store.UpdateFlow(ctx, "missing", &agentflow.UpdateRequest{Name: &name})
	assert.ErrorIs(t, err, agentflow.ErrFlowNotFound)

	require.NoError(t, store.DeleteFlow(ctx, "agent_flow_1"))
	require.NoError(t, store.DeleteFlow(ctx, "agent_flow_1"))

	got, err = store.GetFlow(ctx, "agent_flow_1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPGStore_List(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := store.CreateFlow(ctx, &agentflow.CreateRequest{AgentFlowID: id, Name: "flow " + id, Workflow: sampleWorkflow()})
		require.NoError(t, err)
	}

	all, err := store.ListFlows(ctx, agentflow.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.TotalCount)
	require.Len(t, all.Items, 3)
	assert.Equal(t, "c", all.Items[0].AgentFlowID)

	page, err := store.ListFlows(ctx, agentflow.ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "b", page.Items[0].AgentFlowID)

	found, err := store.ListFlows(ctx, agentflow.ListOptions{Search: "FLOW A"})
	require.NoError(t, err)
	assert.Equal(t, 1, found.TotalCount)
	assert.Equal(t, "a", found.Items[0].AgentFlowID)
}

func TestPGStore_SearchIsLiteral(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for _, f := range []struct{ id, name string }{
		{"plain", "discount 100 off"},
		{"percent", "discount 100% off"},
		{"under_score", "other"},
	} {
		_, err := store.CreateFlow(ctx, &agentflow.CreateRequest{AgentFlowID: f.id, Name: f.name, Workflow: sampleWorkflow()})
		require.NoError(t, err)
	}

	found, err := store.ListFlows(ctx, agentflow.ListOptions{Search: "100%"})
	require.NoError(t, err)
	require.Equal(t, 1, found.TotalCount)
	assert.Equal(t, "percent", found.Items[0].AgentFlowID)

	found, err = store.ListFlows(ctx, agentflow.ListOptions{Search: "r_s"})
	require.NoError(t, err)
	require.Equal(t, 1, found.TotalCount)
	assert.Equal(t, "under_score", found.Items[0].AgentFlowID)

	found, err = store.ListFlows(ctx, agentflow.ListOptions{Search: "t_1"})
	require.NoError(t, err)
	assert.Zero(t, found.TotalCount)
}
