package cli

import (
	"fmt"
	"os"

	"medcite/config"
	"medcite/internal/adapter/analyzer"
	"medcite/internal/adapter/cache"
	"medcite/internal/adapter/chunker"
	"medcite/internal/adapter/embedding"
	"medcite/internal/adapter/llm"
	"medcite/internal/adapter/retriever"
	"medcite/internal/adapter/store"
	"medcite/internal/adapter/vectorindex"
	"medcite/internal/port"
	"medcite/internal/usecase"
)

func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	e := cfg.Embedding

	var embedder port.Embedder
	var err error
	switch e.Provider {
	case "hash":
		embedder, err = embedding.NewHashEmbedder(e.Dimension, e.MaxInputTokens, analyzer.NewTokenizer())
	case "openai":
		if e.BaseURL != "" {
			embedder, err = embedding.NewOpenAICompatibleEmbedder(os.Getenv(e.APIKeyEnv), e.Model, e.BaseURL, e.Dimension, e.BatchSize)
		} else {
			embedder, err = embedding.NewOpenAIEmbedder(e.APIKeyEnv, e.Model, e.Dimension, e.BatchSize)
		}
	case "ollama":
		embedder, err = embedding.NewOllamaEmbedder(e.Model, e.BaseURL, e.Dimension, e.BatchSize)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", e.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}

func newGenerator(cfg *config.Config) (port.Generator, error) {
	g := cfg.Generation
	opts := llm.Options{
		Temperature: g.Temperature,
		TopP:        g.TopP,
		MaxTokens:   g.MaxTokens,
		Timeout:     g.Timeout,
	}

	var generator port.Generator
	var err error
	switch g.Provider {
	case "openai":
		if g.BaseURL != "" {
			generator, err = llm.NewOpenAICompatibleGenerator(os.Getenv(g.APIKeyEnv), g.Model, g.BaseURL, opts)
		} else {
			generator, err = llm.NewOpenAIGenerator(g.APIKeyEnv, g.Model, opts)
		}
	case "ollama":
		generator, err = llm.NewOllamaGenerator(g.Model, g.BaseURL, opts)
	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", g.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}
	return generator, nil
}

func newChunker(cfg *config.Config) port.Chunker {
	if cfg.Index.Chunking == "lines" {
		return chunker.NewLineChunker(cfg.Index.ChunkTokens, cfg.Index.ChunkOverlap, analyzer.NewTokenizer())
	}
	return chunker.NewDocumentChunker()
}

// openIndex opens the persisted index under root for querying. It refuses an
// index built with a different embedder or chunking configuration.
func openIndex(root string, cfg *config.Config) (*store.BoltStore, *vectorindex.Index, error) {
	dbPath := config.IndexDBPath(root)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("no index found. Run 'rag index' first")
	}

	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open index: %w", err)
	}

	migration, err := st.CheckMigration(cfg)
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("failed to check index: %w", err)
	}
	if migration.NeedsRebuild {
		st.Close()
		return nil, nil, fmt.Errorf("index must be rebuilt (%s). Run 'rag index --rebuild'", migration.Reason)
	}

	idx, err := vectorindex.Load(st)
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("failed to load index: %w", err)
	}
	return st, idx, nil
}

func newRetriever(cfg *config.Config, embedder port.Embedder, idx *vectorindex.Index) port.Retriever {
	var r port.Retriever = retriever.NewSemanticRetriever(embedder, idx)
	if cfg.Retrieve.CacheSize > 0 {
		r = cache.NewCachedRetriever(r, cache.NewQueryCache(cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL))
	}
	return r
}

// queryPipeline holds everything a query-time command needs. Close releases the index.
type queryPipeline struct {
	store     *store.BoltStore
	index     *vectorindex.Index
	retriever port.Retriever
	answer    *usecase.AnswerUseCase
}

func (p *queryPipeline) Close() error {
	return p.store.Close()
}

// newQueryPipeline wires the startup-time components. withGenerator=false
// skips creating the generator for commands that never call it.
func newQueryPipeline(withGenerator bool) (*queryPipeline, error) {
	cfg := GetConfig()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	var generator port.Generator
	if withGenerator {
		generator, err = newGenerator(cfg)
		if err != nil {
			return nil, err
		}
	}

	prompts, err := usecase.NewPromptBuilder()
	if err != nil {
		return nil, err
	}

	st, idx, err := openIndex(GetRootDir(), cfg)
	if err != nil {
		return nil, err
	}
	if idx.Len() > 0 && idx.Dimension() != embedder.Dimension() {
		st.Close()
		return nil, fmt.Errorf("index dimension %d does not match embedder dimension %d. Run 'rag index --rebuild'",
			idx.Dimension(), embedder.Dimension())
	}

	r := newRetriever(cfg, embedder, idx)
	GetLogger().Debug("index loaded", "entries", idx.Len(), "dimension", idx.Dimension(), "embedder", embedder.ModelName())

	return &queryPipeline{
		store:     st,
		index:     idx,
		retriever: r,
		answer:    usecase.NewAnswerUseCase(r, prompts, generator, cfg.Retrieve.TopK, GetLogger()),
	}, nil
}
