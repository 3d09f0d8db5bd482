package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/agentflow"
	"github.com/meikuraledutech/agentflow/postgres"
)

func main() {
	ctx := context.Background()

	temp := 0.2
	graph := agentflow.Graph{
		Nodes: []agentflow.Node{
			agentflow.NewNode("start", "start"),
			{ID: "greet", Data: agentflow.MessageData{
				Type:    "llm",
				Title:   "Greet",
				Message: "Greet the customer and ask what they need.",
				Mode:    agentflow.ModeLLM,
				Model:   &agentflow.EditorModel{Name: "gpt-4.1", Parameters: &agentflow.ModelParameters{Temperature: 0.7}},
			}},
			{ID: "email", Data: agentflow.SlotFillingData{
				Type:     "slot-filling",
				Title:    "Email",
				SlotName: "email",
				Question: "What is your email address?",
				Model:    &agentflow.EditorModel{Name: "gpt-4o-mini", Temperature: &temp},
				MaxTurns: 2,
				Validation: &agentflow.EditorValidation{
					Criteria: "must look like an email address",
				},
			}},
			{ID: "route", Data: agentflow.RouterData{Type: "if-else", Condition: "customer wants a refund"}},
			agentflow.NewNode("end", "end"),
		},
	}
	graph.Edges = []agentflow.Edge{
		agentflow.NewEdge("start", "greet"),
		agentflow.NewEdge("greet", "email"),
		agentflow.NewEdge("email", "route"),
		agentflow.NewEdge("route", "end"),
	}

	// 1. Check the graph the way the editor's publish button does
	if err := agentflow.CheckNodes(graph.Nodes); err != nil {
		log.Fatalf("check: %v", err)
	}
	fmt.Println("graph passes node checks")

	// ── Editor -> backend ─────────────────────────────────────────────
	req, err := agentflow.ToBackendCreate(graph, agentflow.CreateOptions{
		AgentFlowID: agentflow.GenerateAgentFlowID(),
		Name:        "Refund desk",
		Goal:        "Collect the customer's email and route refund requests",
	})
	if err != nil {
		log.Fatalf("convert: %v", err)
	}
	fmt.Println("\ncreate request:")
	printJSON(req)

	// ── Backend -> editor ─────────────────────────────────────────────
	back := agentflow.FromBackend(req.Workflow)
	fmt.Println("\nrebuilt editor graph:")
	printJSON(back)

	// ── A broken graph is refused before anything is sent ─────────────
	broken := agentflow.Graph{Nodes: graph.Nodes[1:]}
	if _, err := agentflow.ToBackendUpdate(broken); err != nil {
		fmt.Printf("\nrefused: %v\n", err)
	}

	// ── Persist when a database is configured ─────────────────────────
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		fmt.Println("\nDATABASE_URL is not set, skipping storage")
		return
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	var store agentflow.Store = postgres.New(pool)
	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}

	created, err := store.CreateFlow(ctx, req)
	if err != nil {
		log.Fatalf("create flow: %v", err)
	}
	fmt.Printf("\nstored %s (id %d)\n", created.AgentFlowID, created.ID)

	list, err := store.ListFlows(ctx, agentflow.ListOptions{Limit: 10})
	if err != nil {
		log.Fatalf("list flows: %v", err)
	}
	fmt.Printf("flows stored: %d\n", list.TotalCount)

	if err := store.DeleteFlow(ctx, created.AgentFlowID); err != nil {
		log.Fatalf("delete: %v", err)
	}
	fmt.Println("flow deleted")
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
