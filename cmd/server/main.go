package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/DenJur/olingo-jpa-processor-v4/internal/api"
	"github.com/DenJur/olingo-jpa-processor-v4/internal/config"
	"github.com/DenJur/olingo-jpa-processor-v4/internal/dsl"
	"github.com/DenJur/olingo-jpa-processor-v4/internal/edm"
	"github.com/DenJur/olingo-jpa-processor-v4/internal/i18n"
	"github.com/DenJur/olingo-jpa-processor-v4/internal/pg"
)

func main() {
	os.Exit(start(os.Args[1:]))
}

// start возвращает код выхода; os.Exit вызывается только после отложенных
// stop() и logger.Sync().
func start(args []string) int {
	cfg, err := config.Load("config.json", args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		return 2
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	log := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Errorw("server stopped with error", "error", err)
		return 1
	}
	return 0
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		z := zap.NewDevelopmentConfig()
		z.OutputPaths = []string{"stdout"}
		return z.Build()
	}
	return zap.NewProduction()
}

func run(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) error {
	// 1. Метамодель из DSL
	model, err := dsl.LoadModel(cfg.MetaDir)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	log.Infow("model loaded", "dir", cfg.MetaDir, "types", len(model.Types()))

	// 2. Схема: регистрация и полная сборка до первого запроса
	schema, err := edm.NewSchema(cfg.Namespace, model, log.Named("edm"))
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	if err := schema.Finalize(ctx, cfg.BuildWorkers); err != nil {
		return err
	}

	// 3. Каталоги сообщений; без каталогов отдаём исходный текст ошибок
	messages, err := i18n.Load(cfg.MessagesDir, cfg.MessagesBundle, cfg.Locale(), log.Named("i18n"))
	if errors.Is(err, fs.ErrNotExist) {
		log.Warnw("message catalogs not found", "dir", cfg.MessagesDir)
		messages = i18n.NewResolver(cfg.Locale(), nil, log.Named("i18n"))
	} else if err != nil {
		return fmt.Errorf("messages: %w", err)
	}

	// 4. DDL в Postgres (по флагу)
	if cfg.DBURL != "" && cfg.AutoMigrate {
		if err := migrate(ctx, cfg.DBURL, schema, log.Named("pg")); err != nil {
			return err
		}
	}

	// 5. HTTP
	return api.NewServer(schema, messages, log.Named("http")).Run(ctx, cfg.Addr())
}

func migrate(ctx context.Context, url string, schema *edm.Schema, log *zap.SugaredLogger) error {
	ddl, err := pg.GenerateDDL(schema)
	if err != nil {
		return fmt.Errorf("generate DDL: %w", err)
	}
	db, err := pg.Open(ctx, url)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer db.Close()
	if err := pg.ApplyDDL(ctx, db, ddl, log); err != nil {
		return err
	}
	log.Infow("DDL applied", "steps", len(ddl))
	return nil
}
