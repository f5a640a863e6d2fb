package main

import (
	"github.com/spf13/cobra"

	"github.com/sandevgo/teambot/internal/config"
	"github.com/sandevgo/teambot/internal/service/installer"
	"github.com/sandevgo/teambot/pkg/log"
)

var installCmd = &cobra.Command{
	Use:          "install",
	Short:        "Create the runtime directory and .env interactively",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		runtimePath := config.GetRuntimePath()

		if _, err := installer.RunWizard(runtimePath); err != nil {
			return err
		}

		logger.Info().Msgf("initialized runtime directory at: %s", runtimePath)
		logger.Info().Msg("Installation complete! You can now run 'teambot start'.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
