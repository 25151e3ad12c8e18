package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MissionSquad/missionsquad-docs/internal/config"
)

func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "docsearch",
		Short:         "Docs search index builder and streaming ask proxy",
		Long:          `Builds the embedded search index for the documentation site and serves the credential-hiding proxy that streams chat answers to the browser.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String("config", "docsearch.yaml", "Path to YAML config file")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	rootCmd.AddCommand(
		NewBuildCmd(),
		NewServeCmd(),
		NewAskCmd(),
	)

	return rootCmd
}

func loadConfig(cmd *cobra.Command) (*config.AppConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
