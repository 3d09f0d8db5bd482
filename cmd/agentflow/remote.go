package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/meikuraledutech/agentflow"
	"github.com/meikuraledutech/agentflow/client"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var publishCmd = &cobra.Command{
	Use:   "publish <graph.json>",
	Short: "Create or update an agent flow from an editor graph",
	Long:  `Without --id a new agent flow is created under a generated id. With --id the existing flow is updated.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := readGraph(cmd, args[0])
		if err != nil {
			return err
		}
		c, logger, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		id, _ := cmd.Flags().GetString("id")
		name, _ := cmd.Flags().GetString("name")
		goal, _ := cmd.Flags().GetString("goal")

		f, err := c.Publish(cmd.Context(), g, client.PublishOptions{AgentFlowID: id, Name: name, Goal: goal})
		if err != nil {
			logger.Error("publish failed", zap.Error(err))
			return err
		}
		return printJSON(cmd, f)
	},
}

var pullCmd = &cobra.Command{
	Use:   "pull <agent_flow_id>",
	Short: "Fetch an agent flow and print its editor graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient(cmd)
		if err != nil {
			return err
		}
		_, g, err := c.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, g)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored agent flows, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		search, _ := cmd.Flags().GetString("search")

		list, err := c.List(cmd.Context(), agentflow.ListOptions{Limit: limit, Offset: offset, Search: search})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "AGENT FLOW ID\tNAME\tUPDATED")
		for _, s := range list.Items {
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.AgentFlowID, s.Name, s.UpdatedAt.Format("2006-01-02 15:04"))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d of %d\n", len(list.Items), list.TotalCount)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <agent_flow_id>",
	Short: "Delete an agent flow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient(cmd)
		if err != nil {
			return err
		}
		if err := c.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(publishCmd, pullCmd, listCmd, deleteCmd)

	publishCmd.Flags().String("id", "", "Existing agent flow id to update")
	publishCmd.Flags().String("name", "", "Flow name")
	publishCmd.Flags().String("goal", "", "Flow goal")

	listCmd.Flags().Int("limit", 0, "Page size (server default when 0)")
	listCmd.Flags().Int("offset", 0, "Items to skip")
	listCmd.Flags().String("search", "", "Filter by id, name or goal")
}
