package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"medcite/internal/adapter/store"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show index statistics",
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	st, idx, err := openIndex(GetRootDir(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	schema, err := st.GetSchemaInfo()
	if err != nil {
		return err
	}

	sources := make(map[string]struct{})
	for _, e := range idx.Entries() {
		sources[e.Chunk.Source()] = struct{}{}
	}

	fmt.Printf("Index:          %s\n", st.Path())
	fmt.Printf("Schema version: %d (current %d)\n", schema.Version, store.CurrentSchemaVersion)
	fmt.Printf("Entries:        %d\n", idx.Len())
	fmt.Printf("Sources:        %d\n", len(sources))
	fmt.Printf("Dimension:      %d\n", idx.Dimension())
	fmt.Printf("Embedding:      %s %s\n", cfg.Embedding.Provider, cfg.Embedding.Model)
	fmt.Printf("Generation:     %s %s\n", cfg.Generation.Provider, cfg.Generation.Model)
	return nil
}
