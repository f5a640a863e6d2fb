package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandevgo/teambot/pkg/log"
)

var ingestCmd = &cobra.Command{
	Use:          "ingest <file>...",
	Short:        "Import .txt, .md, .csv or .html files into the knowledge base",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)

		a, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		kb, err := initKnowledge(ctx, a, a.defaultUploadsDir())
		if err != nil {
			return err
		}

		var failed int
		for _, path := range args {
			n, err := kb.ImportFile(ctx, path)
			if err != nil {
				failed++
				logger.Error().Err(err).Str("file", path).Msg("import failed")
				continue
			}
			logger.Info().Str("file", path).Int("documents", n).Msg("imported")
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d files failed to import", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
