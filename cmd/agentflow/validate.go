package main

import (
	"fmt"

	"github.com/meikuraledutech/agentflow"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <graph.json>",
	Short: "Check an editor graph before publishing",
	Long: `Checks that the graph has exactly one START and one END node.
--strict also runs the per-node checklist, --integrity looks for duplicate node ids and dangling edges.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := readGraph(cmd, args[0])
		if err != nil {
			return err
		}

		if err := agentflow.ValidateStructure(g.Nodes).Err(); err != nil {
			return err
		}
		if strict, _ := cmd.Flags().GetBool("strict"); strict {
			if err := agentflow.CheckNodes(g.Nodes); err != nil {
				return err
			}
		}
		if integrity, _ := cmd.Flags().GetBool("integrity"); integrity {
			if err := agentflow.CheckIntegrity(g); err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Workflow is valid (%d nodes, %d edges)\n", len(g.Nodes), len(g.Edges))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict", false, "Also run the per-node checklist")
	validateCmd.Flags().Bool("integrity", false, "Also check node id uniqueness and edge endpoints")
}
