package bootstrap

import (
	"context"
	"fmt"

	"ragbench/internal/config"
	"ragbench/internal/core/domain"
	"ragbench/internal/core/ports"
	"ragbench/internal/core/usecase"
	"ragbench/internal/infrastructure/chunking"
	"ragbench/internal/infrastructure/extractor"
	"ragbench/internal/infrastructure/extractor/pdftext"
	"ragbench/internal/infrastructure/extractor/plaintext"
	"ragbench/internal/infrastructure/llm/ollama"
	"ragbench/internal/infrastructure/queue/nats"
	"ragbench/internal/infrastructure/repository/postgres"
	"ragbench/internal/infrastructure/resilience"
	"ragbench/internal/infrastructure/storage/localfs"
	"ragbench/internal/infrastructure/vector/memvec"
	"ragbench/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Records   ports.RecordStore
	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	QueryUC   ports.QueryService
	AdminUC   ports.IndexAdmin

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	records := postgres.NewRecordRepository(db)
	if err := records.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel)
	embedder := ollama.NewEmbedder(ollamaClient)
	llm := ollama.NewGenerator(ollamaClient)

	vectorDB := newVectorStore(cfg)

	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	pages := extractor.NewDispatcher(plaintext.NewExtractor(storage))
	pages.Register("application/pdf", pdftext.NewExtractor(storage))

	indexer := usecase.NewIndexer(chunker, embedder, vectorDB, records)
	retriever := usecase.NewRetriever(embedder, vectorDB)
	reranker := usecase.NewReranker(embedder)
	hypothetical := usecase.NewHypotheticalGenerator(llm)
	responder := usecase.NewResponseGenerator(llm)

	defaults := usecase.Defaults{
		SimpleTopK:       cfg.SimpleTopK,
		RerankCandidates: cfg.RerankCandidates,
		RerankTopK:       cfg.RerankTopK,
		RerankWeight:     cfg.RerankWeight,
		HyDETopK:         cfg.HyDETopK,
		HyDEProfile:      domain.LengthProfile(cfg.HyDEProfile),
	}
	router := usecase.NewStrategyRouter(
		usecase.NewSimpleStrategy(retriever, responder, defaults),
		usecase.NewRerankingStrategy(retriever, reranker, responder, defaults),
		usecase.NewHyDEStrategy(hypothetical, retriever, responder, defaults),
	)

	return &App{
		Config: cfg,

		Queue:     queue,
		Records:   records,
		IngestUC:  usecase.NewIngestUseCase(records, storage, queue),
		ProcessUC: usecase.NewProcessUseCase(records, pages, indexer),
		QueryUC:   usecase.NewQueryUseCase(router),
		AdminUC:   usecase.NewAdminUseCase(vectorDB, records),

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func newVectorStore(cfg config.Config) ports.VectorStore {
	if cfg.VectorBackend == "memory" {
		return memvec.New()
	}
	return qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
