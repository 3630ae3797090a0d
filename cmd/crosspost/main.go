package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"crosspost/internal/config"
	"crosspost/internal/connection"
	"crosspost/internal/domain"
	"crosspost/internal/storage/postgres"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "crosspost",
	Short: "Publish projects to external platforms",
	Long: `crosspost schedules projects for publication to connected platforms,
runs the publish workers and reports per-target status from the attempt ledger.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(scheduleCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env is what every command needs: config, logger and the database.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sqlx.DB
}

func withEnv(ctx context.Context, fn func(ctx context.Context, e *env) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := setupLogger(cfg.LogLevel)

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Debug("connected to database")

	return fn(ctx, &env{cfg: cfg, logger: logger, db: db})
}

// registry builds the connection registry with OAuth refreshers for every
// platform that has a token endpoint configured.
func (e *env) registry() *connection.Registry {
	refreshers := make(map[domain.Platform]connection.Refresher)
	platforms := map[domain.Platform]config.PlatformConfig{
		"devto":    e.cfg.Platforms.DevTo,
		"mastodon": e.cfg.Platforms.Mastodon,
	}
	for platform, pc := range platforms {
		if !pc.OAuth.Configured() {
			continue
		}
		refreshers[platform] = connection.NewOAuth2Refresher(connection.OAuthConfig{
			ClientID:     pc.OAuth.ClientID,
			ClientSecret: pc.OAuth.ClientSecret,
			TokenURL:     pc.OAuth.TokenURL,
			AuthInParams: pc.OAuth.AuthInParams,
		}, nil)
	}
	return connection.NewRegistry(postgres.NewConnectionStore(e.db), refreshers, connection.Config{
		RefreshMargin:  e.cfg.Connections.RefreshMargin,
		RefreshTimeout: e.cfg.Connections.RefreshTimeout,
	}, e.logger)
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
