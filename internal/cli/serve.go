package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"medcite/internal/adapter/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the question-answering API over HTTP",
	Long: `Load the index and generator once and serve:

  GET  /       usage banner
  POST /ask    {"query": "..."} -> {"answer", "sources", "ragContext"}

Examples:
  rag serve
  rag serve --addr 0.0.0.0:8000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := GetConfig().Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	pipeline, err := newQueryPipeline(true)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := httpapi.NewServer(pipeline.answer, GetLogger())
	return server.ListenAndServe(ctx, addr)
}
