package cmd

import (
	"log/slog"

	"github.com/davidgrier/inkwell/internal/config"
	"github.com/davidgrier/inkwell/internal/content"
	"github.com/davidgrier/inkwell/internal/index"
	"github.com/davidgrier/inkwell/internal/logging"
	"github.com/davidgrier/inkwell/internal/pipeline"
	"github.com/davidgrier/inkwell/internal/query"
	"github.com/davidgrier/inkwell/internal/store"
	"github.com/davidgrier/inkwell/internal/timestamp"
)

// app is the assembled application: configuration plus the wired
// component graph every command operates on.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	cleanup func()

	reader *content.Reader
	store  *store.Store
	orch   *pipeline.Orchestrator
	svc    *query.Service
}

// newApp loads configuration, sets up logging, and wires the components.
// The returned cleanup flushes logs and releases the snapshot.
func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logCfg := logging.DefaultConfig(cfg.Cache.Dir)
	logCfg.Level = cfg.Log.Level
	logger, logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	reader := content.NewReader(content.ReaderOptions{
		Extensions:      cfg.Content.Extensions,
		ExcludePatterns: cfg.Content.ExcludePatterns,
	})
	st := store.New(cfg.Cache.Dir, index.SearchConfig{
		TitleBoost:   cfg.Search.TitleBoost,
		TagBoost:     cfg.Search.TagBoost,
		SummaryBoost: cfg.Search.SummaryBoost,
		BodyBoost:    cfg.Search.BodyBoost,
		MinScore:     cfg.Search.MinScore,
		MaxResults:   cfg.Search.MaxResults,
	})
	orch := pipeline.New(cfg, reader, timestamp.Default(), st, logger)
	svc := query.NewService(orch, cfg, logger)

	a := &app{
		cfg:    cfg,
		log:    logger,
		reader: reader,
		store:  st,
		orch:   orch,
		svc:    svc,
	}
	a.cleanup = func() {
		_ = orch.Close()
		logCleanup()
	}
	return a, nil
}
