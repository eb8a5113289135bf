package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/medroute/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/medroute/internal/core/domain"
	"github.com/custodia-labs/medroute/internal/logger"
)

var (
	serveAddr string
	serveWarm bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the query API over HTTP",
	Long: `Starts the HTTP API:

  GET  /healthz
  POST /api/v1/query   {"query": "...", "k": 8}
  POST /api/v1/route   {"query": "...", "top_n": 3}
  GET  /api/v1/topics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server.addr)")
	serveCmd.Flags().BoolVar(&serveWarm, "warm", false, "build every topic index before listening")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	qs, err := getQueryService(ctx)
	if err != nil {
		return err
	}

	addr := serveAddr
	k := domain.DefaultK
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil {
			if addr == "" {
				addr = s.Server.Addr
			}
			k = s.Retrieval.DefaultK
		}
	}
	if addr == "" {
		addr = domain.DefaultServerAddr
	}

	if serveWarm {
		done := logger.Timed("warming topic indexes")
		if err := qs.Warm(ctx); err != nil {
			return err
		}
		done()
	}

	server, err := httpapi.NewServer(qs, httpapi.Options{DefaultK: k})
	if err != nil {
		return err
	}
	cmd.Printf("Listening on %s (%d topics, model %s)\n", addr, len(qs.Topics()), qs.ModelName())
	return server.Run(ctx, addr)
}
