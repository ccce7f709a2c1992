package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"medcite/config"
	"medcite/internal/adapter/chunker"
	"medcite/internal/adapter/store"
	"medcite/internal/domain"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{500 * time.Millisecond, "<1s"},
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m5s"},
		{2*time.Hour + 10*time.Minute, "2h10m"},
	}
	for _, tc := range cases {
		if got := formatDuration(tc.in); got != tc.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewEmbedderProviders(t *testing.T) {
	cfg := config.DefaultConfig()
	emb, err := newEmbedder(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if emb.Dimension() != 384 {
		t.Errorf("expected default dimension 384, got %d", emb.Dimension())
	}

	cfg.Embedding.Provider = "word2vec"
	if _, err := newEmbedder(cfg); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewGeneratorProviders(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Generation.Provider = "ollama"
	cfg.Generation.Model = "llama3"
	if _, err := newGenerator(cfg); err != nil {
		t.Fatalf("ollama generator: %v", err)
	}

	cfg.Generation.Provider = "openai"
	cfg.Generation.APIKeyEnv = "MEDCITE_TEST_UNSET_KEY"
	t.Setenv("MEDCITE_TEST_UNSET_KEY", "")
	if _, err := newGenerator(cfg); err == nil {
		t.Error("expected error without an API key")
	}

	cfg.Generation.Provider = "biomistral"
	if _, err := newGenerator(cfg); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewChunker(t *testing.T) {
	cfg := config.DefaultConfig()
	if _, ok := newChunker(cfg).(*chunker.DocumentChunker); !ok {
		t.Error("default chunking should be per document")
	}
	cfg.Index.Chunking = "lines"
	if _, ok := newChunker(cfg).(*chunker.LineChunker); !ok {
		t.Error("lines chunking should use the line chunker")
	}
}

func TestIndexCommandBuildsIndex(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"doc1.txt": "Aspirin reduces fever.",
		"doc2.md":  "Ibuprofen reduces inflammation.",
	}
	for name, text := range files {
		if err := os.WriteFile(filepath.Join(dataDir, name), []byte(text), 0644); err != nil {
			t.Fatal(err)
		}
	}

	run := func(args ...string) {
		t.Helper()
		rootCmd.SetArgs(append([]string{"--dir", root, "--log-level", "error"}, args...))
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("rag %s: %v", strings.Join(args, " "), err)
		}
	}

	run("index")
	run("index")

	st, err := store.NewBoltStore(config.IndexDBPath(root))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	dimension, entries, err := st.LoadIndex()
	if err != nil {
		t.Fatal(err)
	}
	if dimension != 384 {
		t.Errorf("expected dimension 384, got %d", dimension)
	}
	if len(entries) != 2 {
		t.Fatalf("re-indexing must not duplicate chunks, got %d entries", len(entries))
	}
	if entries[0].Chunk.SourceID != "doc1.txt" || entries[1].Chunk.SourceID != "doc2.md" {
		t.Errorf("unexpected sources %q, %q", entries[0].Chunk.SourceID, entries[1].Chunk.SourceID)
	}

	schema, err := st.GetSchemaInfo()
	if err != nil {
		t.Fatal(err)
	}
	if schema.ConfigHash != store.ComputeConfigHash(config.DefaultConfig()) {
		t.Error("index run did not record the embedder configuration")
	}
}

func TestIndexRebuildFailureKeepsPreviousIndex(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"doc1.txt": "Aspirin reduces fever.",
		"doc2.txt": "Ibuprofen reduces inflammation, swelling and pain after minor injuries.",
	}
	for name, text := range files {
		if err := os.WriteFile(filepath.Join(dataDir, name), []byte(text), 0644); err != nil {
			t.Fatal(err)
		}
	}
	t.Cleanup(func() { indexRebuild = false })

	run := func(args ...string) error {
		t.Helper()
		indexRebuild = false
		rootCmd.SetArgs(append([]string{"--dir", root, "--log-level", "error"}, args...))
		return rootCmd.Execute()
	}

	if err := run("index"); err != nil {
		t.Fatalf("initial index: %v", err)
	}

	// The token limit does not change the config hash, so only the rebuild
	// flag forces a fresh index, and doc2 overflows the limit.
	cfgPath := filepath.Join(root, "rag.yaml")
	if err := os.WriteFile(cfgPath, []byte("embedding:\n  max_input_tokens: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	err := run("index", "--rebuild")
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Fatalf("expected an embedding error from the rebuild, got %v", err)
	}

	st, err := store.NewBoltStore(config.IndexDBPath(root))
	if err != nil {
		t.Fatal(err)
	}
	_, entries, err := st.LoadIndex()
	if err != nil {
		t.Fatal(err)
	}
	schema, err := st.GetSchemaInfo()
	if err != nil {
		t.Fatal(err)
	}
	st.Close()

	if len(entries) != 2 {
		t.Fatalf("failed rebuild must keep the previous entries, got %d", len(entries))
	}
	if schema.ConfigHash != store.ComputeConfigHash(config.DefaultConfig()) {
		t.Error("failed rebuild changed the recorded configuration")
	}

	if err := os.Remove(cfgPath); err != nil {
		t.Fatal(err)
	}
	if err := run("index", "--rebuild"); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	st, err = store.NewBoltStore(config.IndexDBPath(root))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if _, entries, err = st.LoadIndex(); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries after a successful rebuild, got %d", len(entries))
	}
}

func TestIndexRebuildWithNoDocumentsKeepsPreviousIndex(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		t.Fatal(err)
	}
	docPath := filepath.Join(dataDir, "doc1.txt")
	if err := os.WriteFile(docPath, []byte("Aspirin reduces fever."), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { indexRebuild = false })

	run := func(args ...string) {
		t.Helper()
		indexRebuild = false
		rootCmd.SetArgs(append([]string{"--dir", root, "--log-level", "error"}, args...))
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("rag %s: %v", strings.Join(args, " "), err)
		}
	}

	run("index")
	if err := os.Remove(docPath); err != nil {
		t.Fatal(err)
	}
	run("index", "--rebuild")

	st, err := store.NewBoltStore(config.IndexDBPath(root))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	_, entries, err := st.LoadIndex()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("rebuild over an empty directory must not touch the index, got %d entries", len(entries))
	}
}
