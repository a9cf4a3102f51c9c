package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/sitestock/internal/domain/models"
	"github.com/mamadbah2/sitestock/internal/scheduler"
	"github.com/mamadbah2/sitestock/internal/server/handlers"
	"github.com/mamadbah2/sitestock/internal/server/router"
	reportingsvc "github.com/mamadbah2/sitestock/internal/service/reporting"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, WhatsApp webhook and report scheduler.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), envFile)
		},
	}

	rootCmd := &cobra.Command{
		Use:           "sitestock",
		Short:         "Construction site stock tracking service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file (defaults to ./.env when present)")
	rootCmd.AddCommand(serveCmd, newExportCmd(&envFile))
	return rootCmd
}

func newExportCmd(envFile *string) *cobra.Command {
	var (
		from string
		to   string
		out  string
	)

	cmd := &cobra.Command{
		Use:       "export <receipts|consumptions|valuation>",
		Short:     "Write a CSV report to a file or stdout.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(reportingsvc.KindReceipts), string(reportingsvc.KindConsumptions), string(reportingsvc.KindValuation)},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *envFile)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			name, body, err := a.reporting.ExportCSV(ctx, reportingsvc.Kind(args[0]), models.DateRange{From: from, To: to})
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				if out == "." {
					out = name
				}
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			_, err = io.WriteString(w, body)
			return err
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "First included date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last included date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&out, "out", "o", "", `Output file; "." uses the default report file name`)
	return cmd
}

// shutdownSignals stop the server gracefully. SIGTERM is what container runtimes send.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func serve(parent context.Context, envFile string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, shutdownSignals...)
	defer stop()

	a, err := newApp(ctx, envFile)
	if err != nil {
		return err
	}
	defer a.close(context.Background())
	baseLogger := a.logger

	h := router.Handlers{
		Records: handlers.NewRecordsHandler(a.records, baseLogger.Named("handlers.records")),
		Reports: handlers.NewReportsHandler(a.reporting, a.latest, baseLogger.Named("handlers.reports")),
		Audit:   handlers.NewAuditHandler(a.trail, baseLogger.Named("handlers.audit")),
	}
	if a.messaging != nil {
		h.Webhook = handlers.NewWebhookHandler(a.messaging, baseLogger.Named("handlers.whatsapp"))
	} else {
		baseLogger.Warn("whatsapp credentials missing, webhook disabled")
	}
	engine := router.New(h, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(a.cfg.Reporting, a.reporting, a.records, a.notifier, baseLogger.Named("scheduler"))
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + a.cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		baseLogger.Info("server starting", zap.String("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		baseLogger.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server crashed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	return nil
}
