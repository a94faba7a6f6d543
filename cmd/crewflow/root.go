package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	_ "github.com/viant/afs/embed"
	"github.com/viant/crewflow"
	"github.com/viant/crewflow/model"
	"github.com/viant/crewflow/pipelines"
)

var (
	configPath  string
	pipelineURL string
	dryRun      bool
)

var rootCmd = &cobra.Command{
	Use:   "crewflow",
	Short: "Sequential gated pipeline executor",
	Long: `crewflow runs an ordered list of LLM tasks. Tasks flagged for human
approval park the run until a reviewer approves or rejects the proposed
output. A completed run can hand its outputs off to a downstream endpoint.

Without --pipeline the built-in startup validation pipeline is used.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file (yaml or json)")
	rootCmd.PersistentFlags().StringVarP(&pipelineURL, "pipeline", "p", pipelines.ValidationURL, "Pipeline definition URL or path")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Use the static executor for every task")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(versionCmd)
}

// newService builds the service from the config file and registers the
// selected pipeline.
func newService(ctx context.Context) (*crewflow.Service, *model.Pipeline, error) {
	cfg, err := crewflow.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	if dryRun {
		cfg.DryRun = true
	}
	srv, err := crewflow.NewFromConfig(cfg, crewflow.WithEmbedFS(&pipelines.FS))
	if err != nil {
		return nil, nil, err
	}
	pipeline, err := srv.Runtime().LoadPipeline(ctx, resolveURL(pipelineURL))
	if err != nil {
		_ = srv.Close()
		return nil, nil, err
	}
	return srv, pipeline, nil
}

// resolveURL turns a bare path into an absolute file URL.
func resolveURL(location string) string {
	if strings.Contains(location, "://") {
		return location
	}
	if abs, err := filepath.Abs(location); err == nil {
		return "file://" + abs
	}
	return location
}

func isDefaultPipeline() bool {
	return pipelineURL == pipelines.ValidationURL
}
