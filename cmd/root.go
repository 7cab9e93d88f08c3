package cmd

import (
	"fmt"
	"log"
	"os"

	"feedback-portal/pkg/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type runtimeState struct {
	envFile string
}

// NewRootCommand builds the CLI. Running it without a subcommand serves the API.
func NewRootCommand() *cobra.Command {
	rt := &runtimeState{}

	root := &cobra.Command{
		Use:           "feedback-portal",
		Short:         "Customer feedback and case management API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), rt)
		},
	}
	root.PersistentFlags().StringVar(&rt.envFile, "env", ".env", "path to the env file")

	root.AddCommand(
		newServeCommand(rt),
		newMigrateCommand(rt),
		newRenderCommand(rt),
	)
	return root
}

func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (rt *runtimeState) config() (*utils.Config, error) {
	config, err := utils.LoadConfigFrom(rt.envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return config, nil
}

func (rt *runtimeState) load() (*utils.Config, *zap.Logger, error) {
	config, err := rt.config()
	if err != nil {
		return nil, nil, err
	}

	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	return config, logger, nil
}
