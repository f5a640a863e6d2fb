package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/sandevgo/teambot/internal/config"
	"github.com/sandevgo/teambot/internal/core"
	"github.com/sandevgo/teambot/internal/providers/llm"
	"github.com/sandevgo/teambot/internal/providers/rag"
	"github.com/sandevgo/teambot/internal/service/agent"
	"github.com/sandevgo/teambot/internal/service/command"
	"github.com/sandevgo/teambot/internal/service/knowledge"
	"github.com/sandevgo/teambot/internal/service/memory"
	"github.com/sandevgo/teambot/internal/service/state"
	"github.com/sandevgo/teambot/internal/storage/postgres"
	"github.com/sandevgo/teambot/internal/storage/sqlite"
	"github.com/sandevgo/teambot/internal/transport/cli"
	"github.com/sandevgo/teambot/internal/transport/stats"
	"github.com/sandevgo/teambot/internal/transport/telegram"
	"github.com/sandevgo/teambot/pkg/log"
	"github.com/sandevgo/teambot/pkg/srv"
	"github.com/sandevgo/teambot/pkg/tokens"
)

// app holds what every subcommand needs: config, storage and the knowledge
// store.
type app struct {
	appCfg  *config.AppConfig
	ragCfg  *config.RAGConfig
	storage core.Storage
	vectors core.VectorStore
	closers []srv.Service
}

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)

	a, err := initApp(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	// closers go first so they shut down last
	services := append([]srv.Service{}, a.closers...)

	responder, provider, err := initAgent(ctx, a)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize agent")
	}

	var tgCfg *config.TelegramConfig
	uploadsDir := a.defaultUploadsDir()
	if a.appCfg.IsTelegramSelected() {
		tgCfg = config.NewTelegramConfig(ctx, a.appCfg.GetRuntimePath())
		uploadsDir = tgCfg.UploadsDir
	}

	kb, err := initKnowledge(ctx, a, uploadsDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize knowledge service")
	}
	services = append(services, knowledge.NewInboxWorker(kb, filepath.Join(a.appCfg.GetRuntimePath(), "inbox")))

	router := command.New(command.NewCommands(a.appCfg, state.NewGlobalState(provider), a.storage, kb))

	transports, err := initTransports(ctx, a, tgCfg, responder, router, kb)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize transports")
	}
	return append(services, transports...)
}

func initApp(ctx context.Context) (*app, error) {
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		return nil, fmt.Errorf("failed to init env: %w", err)
	}

	a := &app{
		appCfg: config.NewAppConfig(ctx),
		ragCfg: config.NewRAGConfig(ctx),
	}

	if err := os.MkdirAll(a.appCfg.GetRuntimePath(), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	knowledgeDB, err := a.initStorage(ctx)
	if err != nil {
		return nil, err
	}

	a.vectors, err = rag.NewVectorStore(ctx, a.ragCfg, a.appCfg, knowledgeDB)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	return a, nil
}

// initStorage opens the conversation store. The returned sqlite handle backs
// the local vector store and is nil when it is not needed.
func (a *app) initStorage(ctx context.Context) (*sql.DB, error) {
	needLocalVectors := a.ragCfg.VectorStore == config.VectorStoreSQLite

	switch a.appCfg.DatabaseDriver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, a.appCfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.storage = postgres.NewStorage(pool, a.appCfg.HistoryLimit)
		a.closers = append(a.closers, srv.NewCleanup(a.storage.Close))

		if !needLocalVectors {
			return nil, nil
		}
		db, err := sqlite.NewDB(ctx, a.appCfg.GetDatabasePath())
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		a.closers = append(a.closers, srv.NewCleanup(db.Close))
		return db, nil

	case config.DriverSQLite:
		db, err := sqlite.NewDB(ctx, a.appCfg.GetDatabasePath())
		if err != nil {
			return nil, err
		}
		a.storage = sqlite.NewStorage(db, a.appCfg.HistoryLimit)
		a.closers = append(a.closers, srv.NewCleanup(a.storage.Close))
		return db, nil
	}

	return nil, fmt.Errorf("unknown database driver: %s", a.appCfg.DatabaseDriver)
}

func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Shutdown(ctx); err != nil {
			log.FromCtx(ctx).Error().Err(err).Msg("failed to close storage")
		}
	}
	a.closers = nil
}

func (a *app) defaultUploadsDir() string {
	return filepath.Join(a.appCfg.GetRuntimePath(), "uploads")
}

func initAgent(ctx context.Context, a *app) (*agent.Responder, *llm.DynamicProvider, error) {
	provider, err := llm.NewDynamicProvider(ctx, a.appCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}

	ag := agent.NewAgent(
		a.storage,
		memory.NewContextAssembler(a.vectors, a.appCfg.GetRetrievalK()),
		memory.NewSysPrompt(a.appCfg),
		provider,
		a.appCfg.GetTokenBudget(),
	)
	return agent.NewResponder(ag, a.storage), provider, nil
}

func initKnowledge(ctx context.Context, a *app, uploadsDir string) (*knowledge.Service, error) {
	counter, err := tokens.NewCounter(a.ragCfg.EmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}

	chunker := rag.NewChunker(rag.DefaultChunkerConfig(), counter)
	return knowledge.NewService(a.vectors, a.storage, chunker, uploadsDir), nil
}

func initTransports(
	ctx context.Context,
	a *app,
	tgCfg *config.TelegramConfig,
	responder *agent.Responder,
	router core.CmdRouter,
	kb *knowledge.Service,
) ([]srv.Service, error) {
	var services []srv.Service

	if tgCfg != nil {
		bot, err := telegram.NewBot(ctx, tgCfg, responder, router, kb)
		if err != nil {
			return nil, err
		}
		services = append(services, bot)
	}

	if a.appCfg.EnableCLI {
		rl, err := cli.NewReadLine(a.appCfg, responder, router)
		if err != nil {
			return nil, err
		}
		services = append(services, rl)
	}

	if a.appCfg.EnableStats {
		services = append(services, stats.NewServer(config.NewStatsConfig(ctx), a.storage))
	}

	if len(services) == 0 {
		log.FromCtx(ctx).Warn().Msg("no transports enabled, set ENABLE_TELEGRAM or ENABLE_CLI")
	}
	return services, nil
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
