package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pulseboard/pulseboard/internal/app"
	"github.com/pulseboard/pulseboard/internal/config"
	"github.com/pulseboard/pulseboard/internal/platform/gateway"
	"github.com/pulseboard/pulseboard/internal/platform/sandbox"
	"github.com/pulseboard/pulseboard/internal/platform/store"
	"github.com/pulseboard/pulseboard/internal/platform/toast"
	"github.com/pulseboard/pulseboard/internal/ui/render"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pulseboard",
		Short: "Heart disease risk dashboard client",
	}

	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(sandboxCmd())
	rootCmd.AddCommand(loginCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads and validates configuration for every subcommand.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return *cfg, nil
}

func newLogger(cfg config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

// consoleToasts mirrors every notification onto the log.
type consoleToasts struct {
	log zerolog.Logger
}

func (l consoleToasts) NotificationAdded(n toast.Notification) {
	event := l.log.Info()
	if n.Severity == toast.SeverityError {
		event = l.log.Error()
	}
	if n.Title != "" {
		event = event.Str("title", n.Title)
	}
	event.Msg(n.Message)
}

func (l consoleToasts) NotificationRemoved(id string) {}

// buildOrchestrator wires the client stack from configuration.
func buildOrchestrator(cfg config.Config, logger zerolog.Logger) (*app.Orchestrator, *toast.Center, error) {
	st, err := store.NewFileStore(cfg.StateFile)
	if err != nil {
		return nil, nil, fmt.Errorf("open state file: %w", err)
	}

	toasts := toast.NewCenter(toast.DefaultTTL)
	toasts.SetListener(consoleToasts{log: logger})

	tokens := gateway.TokenFunc(func() string {
		token, _ := st.Get(store.KeyToken)
		return token
	})
	gw := gateway.New(cfg.APIBaseURL, time.Duration(cfg.RequestTimeout)*time.Second, tokens, logger)

	renderer := render.NewEchartsRenderer(cfg.OutputDir, logger)
	return app.New(cfg, gw, st, toasts, renderer, logger), toasts, nil
}

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Run the dashboard client",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			orch, toasts, err := buildOrchestrator(cfg, logger)
			if err != nil {
				return err
			}
			defer toasts.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			orch.Startup(ctx)
			logger.Info().
				Stringer("page", orch.Nav().Current()).
				Str("output", cfg.OutputDir).
				Str("theme", orch.Theme()).
				Msg("dashboard ready")

			if cfg.LiveURL != "" {
				go app.NewLiveUpdater(cfg.LiveURL, orch, logger).Run(ctx)
			}

			<-ctx.Done()
			logger.Info().Msg("shutting down")
			return nil
		},
	}
}

func sandboxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sandbox",
		Short: "Run the mock backend with seeded demo data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			srv := sandbox.New(cfg.SandboxSecret, logger)
			logger.Info().
				Str("admin", sandbox.DemoAdminEmail).
				Str("doctor", sandbox.DemoDoctorEmail).
				Msg("demo accounts seeded")

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start(":" + cfg.SandboxPort)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				logger.Info().Msg("shutting down")
				return srv.Shutdown()
			}
		},
	}
}

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <email> <password>",
		Short: "Authenticate and store the session token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			orch, toasts, err := buildOrchestrator(cfg, logger)
			if err != nil {
				return err
			}
			defer toasts.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return orch.Login(ctx, args[0], args[1])
		},
	}
}
