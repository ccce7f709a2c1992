package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	askText string
	askJSON bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a question from the indexed documents",
	Long: `Retrieve the most relevant passages, ask the generator to answer from them,
and print the answer with its sources.

Examples:
  rag ask -q "What reduces fever?"
  rag ask -q "What reduces fever?" --json`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askText, "query", "q", "", "question to answer (required)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer bundle as JSON")
	askCmd.MarkFlagRequired("query")
}

func runAsk(cmd *cobra.Command, args []string) error {
	pipeline, err := newQueryPipeline(true)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	bundle, err := pipeline.answer.Answer(askText)
	if err != nil {
		return err
	}

	if askJSON {
		output, _ := json.MarshalIndent(bundle, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(bundle.Answer)
	if len(bundle.Sources) > 0 {
		fmt.Printf("\nSources: %s\n", strings.Join(bundle.Sources, ", "))
	}
	return nil
}
