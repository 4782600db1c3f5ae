package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/brizzai/notion-tasks-sync/internal/auth"
	"github.com/brizzai/notion-tasks-sync/internal/batch"
	"github.com/brizzai/notion-tasks-sync/internal/config"
	"github.com/brizzai/notion-tasks-sync/internal/logger"
	"github.com/brizzai/notion-tasks-sync/internal/notion"
	"github.com/brizzai/notion-tasks-sync/internal/requester"
	"github.com/brizzai/notion-tasks-sync/internal/server"
	"github.com/brizzai/notion-tasks-sync/internal/service"
	"github.com/brizzai/notion-tasks-sync/internal/storage"
	"github.com/brizzai/notion-tasks-sync/internal/tasks"
)

const startStopTimeout = 15 * time.Second

func main() {
	Execute()
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "notion-tasks-sync",
	Short: "Push Notion database tasks into Google Tasks",
	Long: `notion-tasks-sync signs users in with Google and pushes the open tasks of a
linked Notion database into their selected Google Tasks list, staying under the
Tasks API creation quota.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration with secrets redacted",
	RunE:  runConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	// Place version check in PreRun to ensure flags are parsed first
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")
	config.InitFlags(rootCmd.PersistentFlags())

	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	}
	rootCmd.AddCommand(serveCmd, configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	if err := logger.InitLogger(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Loaded configuration",
		zap.String("origin", cfg.Server.Origin),
		zap.Int("port", cfg.Server.Port),
		zap.String("storage", string(cfg.Storage.Backend)),
		zap.Int("rate_limit", cfg.Sync.RateLimit),
		zap.Duration("interval", cfg.Sync.Interval),
	)

	app := fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		fx.StartTimeout(startStopTimeout),
		fx.StopTimeout(startStopTimeout),
		fx.Supply(cfg),
		requester.Module,
		storage.Module,
		auth.Module,
		tasks.Module,
		notion.Module,
		batch.Module,
		service.Module,
		server.Module,
	)
	if err := app.Err(); err != nil {
		return fmt.Errorf("failed to assemble application: %w", err)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), startStopTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	pterm.Success.Printfln("Listening on %s:%d", cfg.Server.Host, cfg.Server.Port)

	sig := <-app.Wait()
	logger.Info("Stopping", zap.Any("signal", sig.Signal))

	stopCtx, stopCancel := context.WithTimeout(context.Background(), startStopTimeout)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop cleanly: %w", err)
	}
	if sig.ExitCode != 0 {
		return fmt.Errorf("server exited with code %d", sig.ExitCode)
	}
	return nil
}
