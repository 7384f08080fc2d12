package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"semsearch/internal/chunker"
	"semsearch/internal/config"
	"semsearch/internal/domain"
	"semsearch/internal/embedding"
	"semsearch/internal/embedding/hash"
	"semsearch/internal/embedding/openai"
	"semsearch/internal/ranker"
	"semsearch/internal/service"
	"semsearch/internal/tui"
	"semsearch/internal/vectorstore/memory"
	"semsearch/internal/vectorstore/qdrant"
	"semsearch/internal/watcher"
)

const embedRetries = 3

func main() {
	_ = godotenv.Load()

	var cfgPath, watchDir string
	var verbose bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/semsearch/config.yaml if not provided)")
	flag.StringVar(&watchDir, "watch", "", "Folder to sync and watch for new, changed and removed files")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging to stderr")
	flag.Parse()
	inputs := flag.Args()
	if len(inputs) == 0 && watchDir == "" {
		fmt.Println("Usage: semsearch [--config=config.yaml] [--watch=folder] [file1.md file2.txt ...]")
		os.Exit(1)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(verbose)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Assemble components
	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "hash", "":
		emb = hash.NewEmbedder(cfg.Embedder.Dimension)
	case "openai":
		oc := cfg.Embedder.OpenAI
		if oc == nil {
			oc = &config.OpenAIEmbedderConfig{}
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   oc.BaseURL,
			APIKeyEnv: oc.APIKeyEnv,
			Model:     oc.Model,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
		emb = client
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}
	emb = embedding.WithRetry(emb, embedRetries)

	var idx domain.VectorIndex
	switch cfg.Index.Type {
	case "memory", "":
		idx, err = memory.NewIndex(emb.Dimension())
		if err != nil {
			log.Fatalf("index init failed: %v", err)
		}
	case "qdrant":
		if cfg.Index.Qdrant == nil {
			log.Fatalf("qdrant config missing")
		}
		idx, err = qdrant.NewIndex(ctx, qdrant.Config{
			URL:        cfg.Index.Qdrant.URL,
			APIKey:     cfg.Index.Qdrant.APIKey,
			Collection: cfg.Index.Qdrant.Collection,
			Timeout:    time.Duration(cfg.Index.Qdrant.TimeoutSecs) * time.Second,
		}, emb.Dimension())
		if err != nil {
			log.Fatalf("qdrant init failed: %v", err)
		}
	default:
		log.Fatalf("unknown index: %s", cfg.Index.Type)
	}

	ch := chunker.NewWindowChunker(cfg.Chunker.Size, cfg.Chunker.Overlap)
	ing := service.NewIngestService(ch, emb, idx, cfg.Ingest.QueueSize, cfg.Ingest.Workers, logger)
	defer ing.Close()
	qs := service.NewQueryService(emb, idx, ranker.New(cfg.Ranker.DecayDays),
		time.Duration(cfg.Query.TimeoutSecs)*time.Second, logger)

	if len(inputs) > 0 {
		reports := ing.IngestBatch(ctx, readInputs(inputs))
		for _, r := range reports {
			if r.Status == domain.StatusFailed {
				log.Fatalf("ingest of %s failed: %v", r.Source, r.Err)
			}
			logger.Info("ingested", zap.String("source", r.Source), zap.Int("chunks", r.Chunks))
		}
	}

	if watchDir != "" {
		w := watcher.New(watchDir, ing, idx, logger)
		if err := w.Sync(ctx); err != nil {
			log.Fatalf("folder sync failed: %v", err)
		}
		go func() {
			if err := w.Watch(ctx); err != nil && ctx.Err() == nil {
				logger.Error("watcher stopped", zap.Error(err))
			}
		}()
	}

	m := tui.New(qs)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}

// readInputs turns file arguments into ingestion inputs, using the file
// modification time as the document timestamp.
func readInputs(paths []string) []service.DocumentInput {
	inputs := make([]service.DocumentInput, 0, len(paths))
	for _, path := range paths {
		if typeFor(path) == "" {
			log.Fatalf("unsupported file type: %s (only .md, .markdown and .txt are ingested directly)", path)
		}
		info, err := os.Stat(path)
		if err != nil {
			log.Fatalf("stat %s: %v", path, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("read %s: %v", path, err)
		}
		inputs = append(inputs, service.DocumentInput{
			RawText:   string(data),
			Type:      typeFor(path),
			Source:    path,
			CreatedAt: info.ModTime(),
		})
	}
	return inputs
}

// typeFor maps file extensions to document types. PDF extraction happens
// upstream, so raw .pdf files are rejected along with everything else
// that is not already text.
func typeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return string(domain.TypeMarkdown)
	case ".txt":
		return string(domain.TypeNote)
	default:
		return ""
	}
}

// newLogger builds the stderr logger. The TUI owns stdout, so logs must
// never write there.
func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	return logger
}
