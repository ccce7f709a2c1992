package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"medcite/internal/usecase"
)

var (
	searchText string
	searchTopK int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Show the passages retrieved for a question",
	Long: `Retrieve the indexed passages most similar to a question without
calling the generator.

Examples:
  rag search -q "what reduces fever"
  rag search -q "dosage in children" --top-k 5 --json`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchText, "query", "q", "", "question to search for (required)")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.MarkFlagRequired("query")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	pipeline, err := newQueryPipeline(false)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	topK := cfg.Retrieve.TopK
	if searchTopK > 0 {
		topK = searchTopK
	}

	retrieveUC := usecase.NewRetrieveUseCase(pipeline.retriever, cfg.Retrieve.MinScore)
	chunks, err := retrieveUC.Retrieve(searchText, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	results := usecase.ToResults(chunks)

	if searchJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(results), searchText)
	for i, r := range results {
		fmt.Printf("--- [%d] %s#%d (score: %.3f) ---\n", i+1, r.Source, r.Ordinal, r.Score)
		// Truncate long text for display
		text := r.Text
		if len(text) > 500 {
			text = text[:500] + "..."
		}
		fmt.Println(text)
		fmt.Println()
	}
	return nil
}
