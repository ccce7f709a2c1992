package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var promptText string

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the grounded prompt for a question",
	Long: `Retrieve context for a question and print the exact prompt the generator
would receive, for use with an external model.

Examples:
  rag prompt -q "What reduces fever?"
  rag prompt -q "What reduces fever?" | pbcopy`,
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().StringVarP(&promptText, "query", "q", "", "question (required)")
	promptCmd.MarkFlagRequired("query")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	pipeline, err := newQueryPipeline(false)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	prompt, chunks, err := pipeline.answer.Prompt(promptText)
	if err != nil {
		return err
	}
	GetLogger().Debug("rendered prompt", "chunks", len(chunks))

	fmt.Print(prompt)
	return nil
}
