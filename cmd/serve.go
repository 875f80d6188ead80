package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/pylearn/internal/httpapi"
	"github.com/abhisek/pylearn/internal/jobs"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, openOptions{services: true})
		if err != nil {
			return err
		}
		defer a.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			a.cfg.Server.Addr = addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		jobOpts := jobs.Options{
			BackupKeep:      a.cfg.Jobs.BackupKeep,
			PruneInterval:   a.cfg.Jobs.PruneInterval,
			ReviewScanEvery: a.cfg.Jobs.ReviewScanEvery,
		}
		if a.cache != nil {
			jobOpts.WarmInterval = a.cfg.Jobs.WarmInterval
		}
		sched := jobs.New(a.engine, jobOpts, a.log)
		if err := sched.Start(); err != nil {
			return fmt.Errorf("start jobs: %w", err)
		}
		defer sched.Stop()
		a.log.Info("background jobs started", "jobs", sched.JobCount())

		router := httpapi.NewRouter(a.engine, a.catalog, httpapi.Options{
			CORSOrigins: a.cfg.Server.CORSOrigins,
			Gatherer:    a.registry,
			Logger:      a.log,
		})
		return httpapi.Serve(ctx, a.cfg.Server.Addr, router, a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.log)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides PYLEARN_ADDR)")
}
