package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lake-health/lakecalc-ai/internal/audit"
	"github.com/lake-health/lakecalc-ai/internal/webserver"
)

func newServeCommand() *cobra.Command {
	var (
		port     int
		dbPath   string
		auditDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Start the REST API server.

Endpoints:
  GET  /api/health                 Health check
  GET  /api/policies               Named policy presets
  GET  /api/families               IOL families and lens constants
  GET  /api/families/{id}/powers   One family's toric options
  POST /api/recommend              Full per-eye recommendation for an exam`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store, closeStore, err := openStore(ctx, dbPath)
			if err != nil {
				return err
			}
			defer closeStore() //nolint:errcheck

			writer, err := audit.NewWriter(auditDir)
			if err != nil {
				return err
			}

			srv, err := webserver.New(webserver.Config{
				Port:  port,
				Store: store,
				Audit: writer,
			})
			if err != nil {
				return err
			}
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 3000, "Port to listen on")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite catalog database (default: embedded catalog)")
	cmd.Flags().StringVar(&auditDir, "audit-dir", "", "Directory for audit records (default: no audit trail)")
	return cmd
}
