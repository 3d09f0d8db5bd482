package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/meikuraledutech/agentflow"
	"github.com/meikuraledutech/agentflow/client"
	"github.com/meikuraledutech/agentflow/config"
	"github.com/meikuraledutech/agentflow/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:           "agentflow",
	Short:         "Convert, check and publish agent-flow workflows",
	Long:          `agentflow translates workflow-editor graphs to the agent-flow backend format and back, and talks to the backend.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

func newLogger(cfg *config.Config) *zap.Logger {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func newClient(cmd *cobra.Command) (*client.Client, *zap.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cfg)
	c := client.New(cfg.APIBase(),
		client.WithTimeout(cfg.API.Timeout),
		client.WithLogger(logger),
	)
	return c, logger, nil
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func readGraph(cmd *cobra.Command, path string) (agentflow.Graph, error) {
	var g agentflow.Graph
	data, err := readInput(cmd, path)
	if err != nil {
		return g, err
	}
	if err := json.Unmarshal(data, &g); err != nil {
		return g, fmt.Errorf("parse graph %s: %w", path, err)
	}
	return g, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
