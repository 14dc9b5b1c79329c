// Package main provides the measureboard CLI: the interactive
// dashboard plus export, seed, and password maintenance commands.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mkret/measureboard/internal/adapters/api"
	"github.com/mkret/measureboard/internal/adapters/tui"
	"github.com/mkret/measureboard/internal/app"
	"github.com/mkret/measureboard/internal/config"
	"github.com/mkret/measureboard/internal/export"
	"github.com/mkret/measureboard/internal/seed"
	"github.com/mkret/measureboard/pkg/logger"
	"github.com/mkret/measureboard/pkg/metrics"
)

const (
	metricsReadHeaderTimeout = 5 * time.Second
)

func main() {
	root := &cobra.Command{
		Use:          "measureboard",
		Short:        "Terminal dashboard for a measurement tracking backend",
		SilenceUsage: true,
	}
	root.AddCommand(dashCmd(), exportCmd(), seedCmd(), passwdCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration, initializes logging, and builds the API
// client. Logs go to the configured file, or stderr, never stdout: the
// dashboard owns stdout.
func setup(ctx context.Context) (*config.Config, *api.Client, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	var logSink io.Writer = os.Stderr
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		logSink = f
	}
	if err := logger.Init(logSink); err != nil {
		return nil, nil, fmt.Errorf("init logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	client := api.NewClient(cfg.BaseURL,
		api.WithTimeout(time.Duration(cfg.RequestTimeoutSeconds)*time.Second))
	return cfg, client, nil
}

// login authenticates when credentials are configured and reports
// whether the session is privileged.
func login(ctx context.Context, cfg *config.Config, client *api.Client) (bool, error) {
	if cfg.Username == "" {
		return false, nil
	}
	password := cfg.Password
	if password == "" {
		var err error
		password, err = promptPassword(fmt.Sprintf("Password for %s: ", cfg.Username))
		if err != nil {
			return false, err
		}
	}
	if err := client.Login(ctx, cfg.Username, password); err != nil {
		return false, fmt.Errorf("login: %w", err)
	}
	return true, nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

// serveMetrics exposes the Prometheus registry when configured.
func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	go func() {
		logger.Get().Info(ctx, "serving metrics", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Get().Error(ctx, "metrics server failed", logger.Error(err))
		}
	}()
}

func newEngine(cfg *config.Config, client *api.Client, privileged bool, confirm app.Confirmer) *app.Dashboard {
	opts := []app.Option{
		app.WithPrivileged(privileged),
		app.WithFetchLimit(cfg.FetchLimit),
		app.WithSeriesPageLimit(cfg.SeriesPageLimit),
	}
	if confirm != nil {
		opts = append(opts, app.WithConfirmer(confirm))
	}
	return app.New(client, opts...)
}

func dashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dash",
		Short: "Open the interactive dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, client, err := setup(ctx)
			if err != nil {
				return err
			}
			privileged, err := login(ctx, cfg, client)
			if err != nil {
				return err
			}
			if cfg.MetricsAddr != "" {
				serveMetrics(ctx, cfg.MetricsAddr)
			}

			// The TUI gates destructive actions with its own modal, so
			// the engine-side confirmation step always passes.
			dash := newEngine(cfg, client, privileged,
				app.ConfirmerFunc(func(string) bool { return true }))

			p := tea.NewProgram(tui.New(dash), tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("run dashboard: %w", err)
			}
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var output string
	var from, to string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the merged measurement table to an XLSX workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, client, err := setup(ctx)
			if err != nil {
				return err
			}
			if _, err := login(ctx, cfg, client); err != nil {
				return err
			}

			dash := newEngine(cfg, client, false, nil)
			if from != "" || to != "" {
				dash.SetFilterRange(from, to)
			}
			if err := dash.LoadSeries(ctx); err != nil {
				return err
			}
			if err := dash.Refresh(ctx); err != nil {
				return err
			}

			rows := dash.Rows()
			if err := export.Save(output, dash.Series(), dash.ActiveIDs(), rows); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "wrote %d rows to %s\n", len(rows), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "measureboard.xlsx", "Output file path")
	cmd.Flags().StringVar(&from, "from", "", "Lower time bound (date or datetime)")
	cmd.Flags().StringVar(&to, "to", "", "Upper time bound (date or datetime)")
	return cmd
}

func seedCmd() *cobra.Command {
	var days, perDay, workers int
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the backend with demo series and measurements",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, client, err := setup(ctx)
			if err != nil {
				return err
			}
			privileged, err := login(ctx, cfg, client)
			if err != nil {
				return err
			}
			if !privileged {
				return fmt.Errorf("seeding needs credentials; set MEASUREBOARD_USERNAME")
			}

			stats, err := seed.Run(ctx, client, seed.Config{
				Days:    days,
				PerDay:  perDay,
				Workers: workers,
				Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
			}, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "created %d series, %d/%d measurements in %s\n",
				stats.SeriesCreated, stats.MeasurementsCreated, stats.MeasurementsPlanned, stats.Duration)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "Days of history to backfill")
	cmd.Flags().IntVar(&perDay, "per-day", 2, "Measurements per series per day")
	cmd.Flags().IntVar(&workers, "workers", 8, "Concurrent submission workers")
	return cmd
}

func passwdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change the configured account's password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, client, err := setup(ctx)
			if err != nil {
				return err
			}
			privileged, err := login(ctx, cfg, client)
			if err != nil {
				return err
			}
			if !privileged {
				return fmt.Errorf("set MEASUREBOARD_USERNAME to pick the account")
			}

			current, err := promptPassword("Current password: ")
			if err != nil {
				return err
			}
			next, err := promptPassword("New password: ")
			if err != nil {
				return err
			}
			repeat, err := promptPassword("Repeat new password: ")
			if err != nil {
				return err
			}
			if next != repeat {
				return fmt.Errorf("passwords do not match")
			}

			dash := newEngine(cfg, client, true, nil)
			if err := dash.ChangePassword(ctx, current, next); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "password changed")
			return nil
		},
	}
}
