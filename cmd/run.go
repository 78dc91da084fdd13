package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/bnema/deltahash-cli/internal/adapters/events"
	"github.com/bnema/deltahash-cli/internal/adapters/httpapi"
	statusadapter "github.com/bnema/deltahash-cli/internal/adapters/render/status"
	"github.com/bnema/deltahash-cli/internal/domain"
	"github.com/bnema/deltahash-cli/internal/logging"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRunCmd(app *app) *cobra.Command {
	var (
		noDashboard bool
		listen      string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start every configured account and keep its mining session alive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			accounts, err := app.service.LoadAccounts(cmd.Context())
			if err != nil {
				if errors.Is(err, domain.ErrAccountsFileNotFound) || errors.Is(err, domain.ErrNoAccounts) {
					return fmt.Errorf("%w (add one with `dh accounts add --cookie <value>`)", err)
				}
				return err
			}

			if listen == "" {
				listen = app.cfg.Status.Listen
			}
			dashboard := !noDashboard && isTerminal(cmd.OutOrStdout())

			logger, closer, err := logging.New(logging.Options{
				Level:  app.cfg.Log.Level,
				Format: app.cfg.Log.Format,
				File:   app.cfg.Log.File,
				ToFile: dashboard,
			})
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runAccounts(ctx, app, accounts, runOptions{
				dashboard: dashboard,
				listen:    listen,
				output:    cmd.OutOrStdout(),
				logger:    logger,
			})
		},
	}

	cmd.Flags().BoolVar(&noDashboard, "no-dashboard", false, "print plain logs instead of the live dashboard")
	cmd.Flags().StringVar(&listen, "listen", "", "serve the read-only status API on this address (e.g. 127.0.0.1:8787)")

	return cmd
}

type runOptions struct {
	dashboard bool
	listen    string
	output    io.Writer
	logger    *logrus.Logger
}

// runAccounts runs the supervisor with the optional dashboard and status API
// next to it. Quitting the dashboard cancels the run.
func runAccounts(ctx context.Context, app *app, accounts []domain.Account, opts runOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := events.NewHub(events.DefaultBuffer)
	opts.logger.AddHook(logging.NewEventHook(hub, opts.logger.GetLevel()))

	var wg sync.WaitGroup

	if opts.listen != "" {
		server := httpapi.NewServer(hub, opts.logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.Serve(ctx, opts.listen); err != nil {
				opts.logger.WithError(err).Error("status api stopped")
			}
		}()
	}

	if opts.dashboard {
		updates, unsubscribe := hub.Subscribe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer unsubscribe()
			err := statusadapter.RunDashboard(ctx, updates, statusadapter.DashboardOptions{
				Accounts: len(accounts),
				Started:  app.now(),
				Now:      app.now,
				Stop:     cancel,
				Output:   opts.output,
			})
			if err != nil {
				opts.logger.WithError(err).Error("dashboard stopped")
			}
		}()
	}

	err := app.newSupervisor(hub, opts.logger).Run(ctx, accounts)
	cancel()
	wg.Wait()

	if err != nil {
		return fmt.Errorf("run accounts: %w", err)
	}
	opts.logger.Info("all sessions stopped")
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
