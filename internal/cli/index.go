package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"medcite/config"
	"medcite/internal/adapter/extract"
	"medcite/internal/adapter/fs"
	"medcite/internal/adapter/store"
	"medcite/internal/adapter/vectorindex"
	"medcite/internal/usecase"
)

var indexRebuild bool

var indexCmd = &cobra.Command{
	Use:   "index [data-dir]",
	Short: "Ingest documents into the vector index",
	Long: `Extract, chunk and embed every matching document under the data directory
(index.data_dir, default ./data) and store the vectors in .rag/index.db under
the root directory. Chunks already in the index are skipped; use --rebuild to
start from an empty index, for example after documents were removed. The
previous index stays in place until the new one is written.

Examples:
  rag index                 # Index ./data
  rag index ./corpus        # Index a specific directory
  rag index --rebuild       # Replace the existing index`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&indexRebuild, "rebuild", false, "replace the existing index instead of extending it")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	root := GetRootDir()
	logger := GetLogger()

	// Determine path to index
	dataDir := cfg.DataDir(root)
	if len(args) > 0 {
		var err error
		dataDir, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(dataDir)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", dataDir)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}

	if err := config.EnsureRAGDir(root); err != nil {
		return fmt.Errorf("failed to create .rag directory: %w", err)
	}

	dbPath := config.IndexDBPath(root)
	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open index store: %w", err)
	}
	defer st.Close()

	fresh, err := needsFreshIndex(st, cfg, indexRebuild)
	if err != nil {
		return err
	}

	// A fresh index replaces the stored entries only when it is persisted,
	// so a failed run leaves the previous index in place.
	var idx *vectorindex.Index
	if fresh {
		idx = vectorindex.New(st)
	} else {
		idx, err = vectorindex.Load(st)
		if err != nil {
			return fmt.Errorf("failed to load index: %w", err)
		}
	}

	fmt.Printf("Scanning %s...\n", dataDir)
	walker := fs.NewWalker(cfg.Index.Includes, cfg.Index.Excludes)
	docs, err := extract.LoadDocuments(dataDir, walker, extract.NewExtractor(), logger)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No documents found.")
		return nil
	}

	ingestUC := usecase.NewIngestUseCase(newChunker(cfg), embedder, idx, logger)
	result, err := ingestUC.Ingest(docs, newProgress(len(docs)))
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	// Record the schema and embedder only once the index is written.
	if err := recordSchema(st, cfg, fresh); err != nil {
		return fmt.Errorf("failed to update schema info: %w", err)
	}

	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  Documents indexed: %d\n", result.DocumentsProcessed)
	fmt.Printf("  Documents empty:   %d\n", result.DocumentsEmpty)
	fmt.Printf("  Chunks added:      %d\n", result.ChunksAdded)
	fmt.Printf("  Chunks unchanged:  %d\n", result.ChunksSkipped)
	fmt.Printf("  Embedder:          %s (dimension %d)\n", embedder.ModelName(), embedder.Dimension())
	fmt.Printf("\nIndex stored at: %s\n", dbPath)
	return nil
}

// needsFreshIndex reports whether ingestion must start from an empty index,
// either on request or because the stored vectors were produced under a
// different schema or embedder. The store itself is not modified.
func needsFreshIndex(st *store.BoltStore, cfg *config.Config, rebuild bool) (bool, error) {
	migrationResult, err := st.CheckMigration(cfg)
	if err != nil {
		return false, fmt.Errorf("failed to check migration: %w", err)
	}

	switch {
	case rebuild:
		fmt.Println("Rebuilding index from scratch...")
		return true, nil
	case migrationResult.NeedsRebuild:
		fmt.Printf("Index rebuild required: %s\n", migrationResult.Reason)
		return true, nil
	case migrationResult.NeedsMigration:
		GetLogger().Info("schema migration pending", "reason", migrationResult.Reason)
	}
	return false, nil
}

// recordSchema stamps the store with the current schema and cfg's hash. A
// rebuilt index overwrites whatever version was there, including a newer one.
func recordSchema(st *store.BoltStore, cfg *config.Config, rebuilt bool) error {
	if rebuilt {
		return st.SetSchemaInfo(&store.SchemaInfo{
			Version:    store.CurrentSchemaVersion,
			ConfigHash: store.ComputeConfigHash(cfg),
		})
	}
	return st.Migrate(cfg)
}

func newProgress(total int) usecase.ProgressFunc {
	var barMu sync.Mutex
	startTime := time.Now()
	bar := progressbar.NewOptions(total,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Indexing[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)

	return func(processed, total int, source string) {
		barMu.Lock()
		defer barMu.Unlock()

		bar.Set(processed)

		if processed > 0 && processed < total {
			elapsed := time.Since(startTime)
			rate := float64(processed) / elapsed.Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-processed)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Indexing[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
