// Package app wires the iepforge server binary together, grounded on the
// teacher's internal/golem/app.go (Options -> app.App -> RunFunc) and
// internal/hivemind/server.go's module-assembly order, generalized from a
// single worker RunFunc to the full Extractor -> Quantifier ->
// PromptBuilder -> Generator -> Flattener -> Writer pipeline behind a gin
// ingress server.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/brightpath-edu/iepforge/internal/config"
	"github.com/brightpath-edu/iepforge/internal/handler/middleware"
	"github.com/brightpath-edu/iepforge/internal/options"
	"github.com/brightpath-edu/iepforge/internal/orchestrator"
	"github.com/brightpath-edu/iepforge/internal/server"
	"github.com/brightpath-edu/iepforge/internal/service/extractor"
	"github.com/brightpath-edu/iepforge/internal/service/flattener"
	"github.com/brightpath-edu/iepforge/internal/service/generator"
	"github.com/brightpath-edu/iepforge/internal/service/promptbuilder"
	"github.com/brightpath-edu/iepforge/internal/service/quantifier"
	"github.com/brightpath-edu/iepforge/internal/service/templatestore"
	"github.com/brightpath-edu/iepforge/internal/service/vectorindex"
	"github.com/brightpath-edu/iepforge/internal/service/versionwriter"
	"github.com/brightpath-edu/iepforge/internal/store/boltdb"
	pkgapp "github.com/brightpath-edu/iepforge/pkg/app"
	"github.com/brightpath-edu/iepforge/pkg/logger"
)

const (
	// AppName is the product name shown in --help and log banners.
	AppName = "iepforge"
)

// NewApp builds the cobra-backed App for the iepforge server binary.
func NewApp(basename string) *pkgapp.App {
	opts := options.NewOptions()
	application := pkgapp.NewApp(AppName,
		basename,
		pkgapp.WithOptions(opts),
		pkgapp.WithDescription("iepforge turns assessment documents into draft IEPs through a RAG-grounded generation pipeline."),
		pkgapp.WithDefaultValidArgs(),
		pkgapp.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.Options) pkgapp.RunFunc {
	return func(basename string) error {
		cfg, err := config.CreateConfigFromOptions(opts)
		if err != nil {
			return fmt.Errorf("app: build config: %w", err)
		}
		return runServer(cfg)
	}
}

func runServer(cfg *config.Config) error {
	ctx := context.Background()

	db, err := boltdb.Open(cfg.VersioningOptions.StorePath)
	if err != nil {
		return fmt.Errorf("app: open boltdb: %w", err)
	}
	dataStore := boltdb.NewStore(db)

	embedder, err := vectorindex.NewEmbeddingProvider(ctx, cfg.VectorOptions)
	if err != nil {
		return fmt.Errorf("app: build embedding provider: %w", err)
	}
	index, err := (&vectorindex.Config{
		StorePath: cfg.VectorOptions.StorePath,
		Embedder:  embedder,
		ChunkingCfg: vectorindex.ChunkingConfig{
			MaxChars:     cfg.VectorOptions.ChunkChars,
			OverlapChars: cfg.VectorOptions.ChunkOverlapChars,
		},
		TopK: cfg.VectorOptions.TopK,
	}).Complete().New()
	if err != nil {
		return fmt.Errorf("app: build vector index: %w", err)
	}

	templates, err := (&templatestore.Config{
		Store:    dataStore.Templates,
		WatchDir: cfg.TemplateOptions.WatchDir,
	}).Complete().New()
	if err != nil {
		return fmt.Errorf("app: build template store: %w", err)
	}

	extractorSvc, err := (&extractor.Config{
		Fetcher:          extractor.NewFileOrHTTPFetcher(secondsToDuration(cfg.ExtractionOptions.FetchTimeoutSeconds)),
		OCRClient:        extractor.NewHTTPOCRClient(cfg.ExtractionOptions.OCREndpoint, secondsToDuration(cfg.ExtractionOptions.FetchTimeoutSeconds)),
		RetryMaxAttempts: cfg.ExtractionOptions.RetryMaxAttempts,
		RetryBackoffBase: secondsToDurationFloat(cfg.ExtractionOptions.RetryBackoffBaseSeconds),
	}).Complete().New()
	if err != nil {
		return fmt.Errorf("app: build extractor: %w", err)
	}

	quantifierSvc, err := (&quantifier.Config{
		ConfidenceFloorThreshold: cfg.PipelineOptions.ConfidenceFloorForDraftOnly,
	}).Complete().New()
	if err != nil {
		return fmt.Errorf("app: build quantifier: %w", err)
	}

	builder, err := (&promptbuilder.Config{Index: index}).Complete().New()
	if err != nil {
		return fmt.Errorf("app: build prompt builder: %w", err)
	}

	registry := generator.NewRegistry()
	generatorSvc, err := generator.NewFromOptions(ctx, registry, cfg.LLMOptions)
	if err != nil {
		return fmt.Errorf("app: build generator: %w", err)
	}

	flattenerSvc := (&flattener.Config{MaxDepth: cfg.FlattenerOptions.MaxDepth}).Complete().New()

	writer, err := (&versionwriter.Config{
		IEPs:               dataStore.IEPs,
		Index:              index,
		LockTimeoutSeconds: cfg.VersioningOptions.LockTimeoutSeconds,
	}).Complete().New()
	if err != nil {
		return fmt.Errorf("app: build versioned writer: %w", err)
	}

	orch, err := (&orchestrator.Config{
		Store:         dataStore,
		ExtractorSvc:  extractorSvc,
		QuantifierSvc: quantifierSvc,
		Builder:       builder,
		GeneratorSvc:  generatorSvc,
		FlattenerSvc:  flattenerSvc,
		Writer:        writer,
		Templates:     templates,
		Index:         index,
		Pipeline:      cfg.PipelineOptions,
		LLM:           cfg.LLMOptions,
	}).Complete().New()
	if err != nil {
		return fmt.Errorf("app: build orchestrator: %w", err)
	}

	principalTable, err := server.LoadPrincipalTable(middleware.ResolveTokenFilePath(cfg.AuthOptions.TokenFile))
	if err != nil {
		return fmt.Errorf("app: load principal table: %w", err)
	}

	srv, err := server.New(cfg, server.Dependencies{
		Orchestrator: orch,
		PrincipalTbl: principalTable,
	})
	if err != nil {
		return fmt.Errorf("app: build server: %w", err)
	}
	srv.AddCloser("boltdb", db.Close)
	srv.AddCloser("vectorindex", index.Close)
	srv.AddCloser("templatestore", templates.Close)

	logger.Info("[App] %s starting: bind=%s admin=%s", AppName, cfg.ServerRunOptions.BindAddress, cfg.ServerRunOptions.AdminAddress)
	return srv.Run()
}

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

func secondsToDurationFloat(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
