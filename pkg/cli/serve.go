package cli

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/secmon-lab/gyges/pkg/cli/config"
	httpctrl "github.com/secmon-lab/gyges/pkg/controller/http"
	"github.com/secmon-lab/gyges/pkg/service/worker"
	"github.com/secmon-lab/gyges/pkg/usecase"
	"github.com/secmon-lab/gyges/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var sweepInterval time.Duration
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var slackCfg config.Slack

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("GYGES_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "sweep-interval",
			Usage:       "Interval between inactivity sweeps",
			Value:       30 * time.Minute,
			Sources:     cli.EnvVars("GYGES_SWEEP_INTERVAL"),
			Destination: &sweepInterval,
		},
	}

	// Add shared config flags
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server and inactivity worker",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			typeTable, groups, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load application configuration")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}

			registry, err := usecase.New(ctx, repo)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize registry")
			}

			notifier, err := slackCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure Slack notifier")
			}
			if notifier != nil {
				logging.Default().Info("Slack notifications enabled")
			} else {
				logging.Default().Info("Slack Bot Token not configured, notifications disabled")
			}

			inactivityWorker := worker.NewInactivityWorker(registry, notifier, groups, sweepInterval)
			if err := inactivityWorker.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start inactivity worker")
			}

			handler := httpctrl.New(registry,
				httpctrl.WithTypeTable(typeTable),
				httpctrl.WithGroups(groups),
			)
			server := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			eg, egCtx := errgroup.WithContext(sigCtx)

			eg.Go(func() error {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return goerr.Wrap(err, "failed to start server")
				}
				return nil
			})

			eg.Go(func() error {
				<-egCtx.Done()
				logging.Default().Info("Shutting down")

				inactivityWorker.Stop()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}
				return nil
			})

			if err := eg.Wait(); err != nil {
				return err
			}

			logging.Default().Info("Server shutdown completed")
			return nil
		},
	}
}
