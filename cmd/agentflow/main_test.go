package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v3"
	"github.com/meikuraledutech/agentflow"
	"github.com/meikuraledutech/agentflow/redis"
	"github.com/meikuraledutech/agentflow/server"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const graphJSON = `{
  "nodes": [
    {"id": "s", "type": "custom", "data": {"type": "start", "title": "START"}, "position": {"x": 0, "y": 0}},
    {"id": "m", "type": "custom", "data": {"type": "llm", "title": "Ask", "message": "How can I help?", "mode": "llm", "model": {"name": "gpt-4.1", "parameters": {"temperature": 0.3}}}, "position": {"x": 200, "y": 0}},
    {"id": "e", "type": "custom", "data": {"type": "end", "title": "END"}, "position": {"x": 400, "y": 0}}
  ],
  "edges": [
    {"id": "e1", "source": "s", "target": "m"},
    {"id": "e2", "source": "m", "target": "e"}
  ]
}`

// resetFlags puts every flag back to its default between runs of the shared
// root command.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestValidateCommand(t *testing.T) {
	out, err := run(t, "validate", writeFile(t, "g.json", graphJSON))
	require.NoError(t, err)
	assert.Equal(t, "Workflow is valid (3 nodes, 2 edges)\n", out)

	noEnd := strings.Replace(graphJSON, `"type": "end"`, `"type": "message"`, 1)
	_, err = run(t, "validate", writeFile(t, "g.json", noEnd))
	assert.EqualError(t, err, "Workflow must have exactly one END node")

	emptyMessage := strings.Replace(graphJSON, "How can I help?", " ", 1)
	_, err = run(t, "validate", writeFile(t, "g.json", emptyMessage))
	require.NoError(t, err)
	_, err = run(t, "validate", "--strict", writeFile(t, "g.json", emptyMessage))
	assert.ErrorIs(t, err, agentflow.ErrInvalidNode)

	dangling := strings.Replace(graphJSON, `"target": "e"`, `"target": "nowhere"`, 1)
	_, err = run(t, "validate", "--integrity", writeFile(t, "g.json", dangling))
	assert.ErrorIs(t, err, agentflow.ErrDanglingEdge)
}

func TestConvertCommands(t *testing.T) {
	out, err := run(t, "convert", "to-backend", writeFile(t, "g.json", graphJSON))
	require.NoError(t, err)

	var w agentflow.Workflow
	require.NoError(t, json.Unmarshal([]byte(out), &w))
	require.Len(t, w.Nodes, 3)
	assert.Equal(t, agentflow.MessageNode{
		ID:      "m",
		Message: "How can I help?",
		Mode:    agentflow.ModeLLM,
		Model:   &agentflow.Model{Name: "gpt-4.1", Temperature: 0.3},
	}, w.Nodes[1])

	out, err = run(t, "convert", "to-editor", writeFile(t, "w.json", out))
	require.NoError(t, err)

	var g agentflow.Graph
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	require.Len(t, g.Nodes, 3)
	assert.Equal(t, agentflow.BlockMessage, g.Nodes[1].Data.BlockType())
	assert.Equal(t, "e2", g.Edges[1].ID)
}

func TestRemoteCommands(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	app := server.New(redis.NewFromClient(rdb))
	go func() { _ = app.Listener(ln, fiber.ListenConfig{DisableStartupMessage: true}) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	t.Setenv("AGENTFLOW_API_BASE_URL", "http://"+ln.Addr().String())
	t.Setenv("AGENTFLOW_LOG_LEVEL", "error")

	out, err := run(t, "publish", "--name", "Helpdesk", writeFile(t, "g.json", graphJSON))
	require.NoError(t, err)
	var f agentflow.AgentFlow
	require.NoError(t, json.Unmarshal([]byte(out), &f))
	assert.Equal(t, "Helpdesk", f.Name)
	assert.Equal(t, "Agent flow created from workflow editor", f.Goal)

	out, err = run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, f.AgentFlowID)
	assert.Contains(t, out, "1 of 1")

	out, err = run(t, "pull", f.AgentFlowID)
	require.NoError(t, err)
	var g agentflow.Graph
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.Len(t, g.Nodes, 3)

	_, err = run(t, "delete", f.AgentFlowID)
	require.NoError(t, err)
	_, err = run(t, "pull", f.AgentFlowID)
	assert.ErrorIs(t, err, agentflow.ErrFlowNotFound)
}
