package main

import (
	"encoding/json"
	"fmt"

	"github.com/meikuraledutech/agentflow"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Translate between the editor graph and the backend workflow",
}

var toBackendCmd = &cobra.Command{
	Use:   "to-backend <graph.json>",
	Short: "Print the backend workflow for an editor graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := readGraph(cmd, args[0])
		if err != nil {
			return err
		}
		w, err := agentflow.ToBackendUpdate(g)
		if err != nil {
			return err
		}
		return printJSON(cmd, w)
	},
}

var toEditorCmd = &cobra.Command{
	Use:   "to-editor <workflow.json>",
	Short: "Print the editor graph for a backend workflow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		var w agentflow.Workflow
		if err := json.Unmarshal(data, &w); err != nil {
			return fmt.Errorf("parse workflow %s: %w", args[0], err)
		}
		return printJSON(cmd, agentflow.FromBackend(w))
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.AddCommand(toBackendCmd, toEditorCmd)
}
