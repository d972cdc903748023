package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	minioblob "github.com/queryhub-labs/queryhub/internal/adapters/driven/blob/minio"
	ollamaembed "github.com/queryhub-labs/queryhub/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/queryhub-labs/queryhub/internal/adapters/driven/embedding/openai"
	openaillm "github.com/queryhub-labs/queryhub/internal/adapters/driven/llm/openai"
	"github.com/queryhub-labs/queryhub/internal/adapters/driven/storage/sqlite"
	vecmemory "github.com/queryhub-labs/queryhub/internal/adapters/driven/vector/memory"
	vecqdrant "github.com/queryhub-labs/queryhub/internal/adapters/driven/vector/qdrant"
	"github.com/queryhub-labs/queryhub/internal/adapters/driving/httpapi"
	"github.com/queryhub-labs/queryhub/internal/adapters/driving/watch"
	"github.com/queryhub-labs/queryhub/internal/config"
	"github.com/queryhub-labs/queryhub/internal/core/ports/driven"
	"github.com/queryhub-labs/queryhub/internal/core/services"
	"github.com/queryhub-labs/queryhub/internal/extractors"
	"github.com/queryhub-labs/queryhub/internal/extractors/docx"
	"github.com/queryhub-labs/queryhub/internal/extractors/plaintext"
	"github.com/queryhub-labs/queryhub/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity
// validation at startup.
const pingTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the QueryHub server",
	Long: `Starts the HTTP API, connects the storage and vector backends and,
when configured, watches a drop folder for documents to ingest.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	store, err := sqlite.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}
	defer store.Close()
	logger.Info("metadata store at %s", store.Path())

	index, err := buildVectorIndex(cfg)
	if err != nil {
		return err
	}
	defer index.Close()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	defer embedder.Close()
	if err := pingService(ctx, embedder.Ping); err != nil {
		return fmt.Errorf("embedding service unreachable: %w", err)
	}

	var blobs driven.BlobStore
	if cfg.Blob.Endpoint != "" {
		minioStore, err := minioblob.NewStore(ctx, minioblob.Config{
			Endpoint:  cfg.Blob.Endpoint,
			AccessKey: cfg.Blob.AccessKey,
			SecretKey: cfg.Blob.SecretKey,
			Bucket:    cfg.Blob.Bucket,
			UseSSL:    cfg.Blob.UseSSL,
		})
		if err != nil {
			return fmt.Errorf("connecting blob store: %w", err)
		}
		blobs = minioStore
	} else {
		logger.Info("blob archiving disabled (no endpoint configured)")
	}

	var completer driven.CompletionService
	if cfg.LLM.APIKey != "" {
		completer, err = openaillm.NewCompletionService(openaillm.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		})
		if err != nil {
			return fmt.Errorf("configuring completion service: %w", err)
		}
		defer completer.Close()
		if err := pingService(ctx, completer.Ping); err != nil {
			return fmt.Errorf("completion service unreachable: %w", err)
		}
		logger.Info("answer generation with %s", completer.ModelName())
	} else {
		logger.Info("answer generation disabled (no LLM API key)")
	}

	registry := extractors.NewRegistry(
		plaintext.New(),
		docx.New(),
		plaintext.NewFallback(),
	)

	collections := services.NewCollectionManager(index)
	pipeline := services.NewIngestionPipeline(
		store.DocumentStore(), store.ChunkStore(), store.JobStore(),
		registry, embedder, index, collections, blobs,
		services.WithChunking(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap),
		services.WithCallTimeout(cfg.Ingest.CallTimeout),
	)
	retrieval := services.NewRetrievalEngine(embedder, index, collections)
	documents := services.NewDocumentManager(
		store.DocumentStore(), store.ChunkStore(), store.JobStore(), index, blobs,
	)

	server := httpapi.NewServer(httpapi.Config{
		ListenAddr:  cfg.Server.ListenAddr,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, documents, pipeline, retrieval, completer)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Watch.Dir != "" {
		watcher, err := watch.NewWatcher(documents, pipeline)
		if err != nil {
			return fmt.Errorf("starting drop-folder watcher: %w", err)
		}
		defer watcher.Stop()
		go func() {
			if err := watcher.Watch(runCtx, cfg.Watch.Dir); err != nil {
				logger.Error("drop-folder watcher: %v", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Run() }()

	select {
	case err := <-errCh:
		return err
	case <-runCtx.Done():
	}

	logger.Section("Shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// pingService validates connectivity under a bounded timeout.
func pingService(ctx context.Context, ping func(context.Context) error) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return ping(pingCtx)
}

// buildVectorIndex selects the configured vector backend.
func buildVectorIndex(cfg *config.Config) (driven.VectorIndex, error) {
	switch cfg.Vector.Backend {
	case "memory":
		logger.Info("using in-memory vector index")
		return vecmemory.NewIndex(), nil
	default:
		index, err := vecqdrant.NewIndex(vecqdrant.Config{
			Host:   cfg.Vector.Host,
			Port:   cfg.Vector.Port,
			APIKey: cfg.Vector.APIKey,
			UseTLS: cfg.Vector.UseTLS,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting vector index: %w", err)
		}
		logger.Info("qdrant index at %s:%d", cfg.Vector.Host, cfg.Vector.Port)
		return index, nil
	}
}

// buildEmbedder selects the configured embedding provider.
func buildEmbedder(cfg *config.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case "ollama":
		embedder := ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
		logger.Info("embeddings with ollama model %s", embedder.ModelName())
		return embedder, nil
	default:
		embedder, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring embedding service: %w", err)
		}
		logger.Info("embeddings with openai model %s", embedder.ModelName())
		return embedder, nil
	}
}
