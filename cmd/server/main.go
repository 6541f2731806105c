package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/agenthands/helix/internal/config"
	"github.com/agenthands/helix/internal/core"
	"github.com/agenthands/helix/internal/core/extraction"
	"github.com/agenthands/helix/internal/core/mapping"
	"github.com/agenthands/helix/internal/driver"
	"github.com/agenthands/helix/internal/llm"
	"github.com/agenthands/helix/internal/query"
	"github.com/agenthands/helix/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "helix",
	})

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using environment as-is")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", "err", err)
	}

	ctx := context.Background()
	d, err := driver.Connect(ctx, cfg.Graph.Provider, driver.Options{
		URI:      cfg.Graph.URI,
		Username: cfg.Graph.User,
		Password: cfg.Graph.Password,
		Database: cfg.Graph.Database,
	}, logger)
	if err != nil {
		logger.Fatal("failed to connect to graph store", "err", err)
	}
	defer d.Close(ctx)

	llmClient, embedder, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		logger.Fatal("failed to initialize llm client", "err", err)
	}

	extractor, err := extraction.NewExtractor(llmClient, cfg.Extraction.MaxTokens, cfg.Extraction.Prompt)
	if err != nil {
		logger.Fatal("failed to build extractor", "err", err)
	}

	mode, err := mapping.ParseMode(cfg.Import.Mode)
	if err != nil {
		logger.Fatal("bad import mode", "err", err)
	}

	timeout := time.Duration(cfg.Import.TimeoutSeconds) * time.Second
	importer := core.NewImporter(d, mapping.NewMapper(mode), timeout, logger)
	pipe := core.NewPipeline(d, extractor, importer, cfg.Import.Strict, logger)
	lib := query.NewLibrary(d, embedder, logger)

	r := server.New(lib, pipe, logger).SetupRouter()

	logger.Info("server listening", "port", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("server stopped", "err", err)
	}
}
