package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sandevgo/teambot/pkg/log"
)

const (
	InboxPollInterval = 10 * time.Second
	InboxImportedDir  = "imported"
	InboxFailedDir    = "failed"
)

type Importer interface {
	ImportFile(ctx context.Context, path string) (int, error)
}

// InboxWorker imports files dropped into a directory and moves them aside.
type InboxWorker struct {
	importer Importer
	dir      string
	interval time.Duration
}

func NewInboxWorker(importer Importer, dir string) *InboxWorker {
	return &InboxWorker{
		importer: importer,
		dir:      dir,
		interval: InboxPollInterval,
	}
}

func (w *InboxWorker) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx).With().Str("component", "inbox_worker").Logger()

	for _, d := range []string{w.dir, filepath.Join(w.dir, InboxImportedDir), filepath.Join(w.dir, InboxFailedDir)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("failed to create inbox dir: %w", err)
		}
	}

	logger.Info().Str("dir", w.dir).Msg("starting inbox worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down inbox worker")
			return nil
		case <-ticker.C:
			if err := w.processInbox(ctx); err != nil {
				logger.Error().Err(err).Msg("inbox scan failed")
			}
		}
	}
}

func (w *InboxWorker) Shutdown(ctx context.Context) error {
	return nil
}

func (w *InboxWorker) processInbox(ctx context.Context) error {
	logger := log.FromCtx(ctx)

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if e.IsDir() || ctx.Err() != nil {
			continue
		}

		path := filepath.Join(w.dir, e.Name())
		target := InboxImportedDir

		n, err := w.importer.ImportFile(ctx, path)
		if err != nil {
			logger.Warn().Err(err).Str("file", e.Name()).Msg("failed to import inbox file")
			target = InboxFailedDir
		} else {
			logger.Info().Str("file", e.Name()).Int("documents", n).Msg("inbox file imported")
		}

		if err := os.Rename(path, filepath.Join(w.dir, target, e.Name())); err != nil {
			logger.Error().Err(err).Str("file", e.Name()).Msg("failed to move inbox file")
		}
	}

	return nil
}
