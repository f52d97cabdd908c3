package cmd

import (
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nickromney-org/github-release-updater-proxy/internal/cache"
	"github.com/nickromney-org/github-release-updater-proxy/internal/config"
	"github.com/nickromney-org/github-release-updater-proxy/internal/github"
	"github.com/nickromney-org/github-release-updater-proxy/internal/policy"
	"github.com/nickromney-org/github-release-updater-proxy/internal/resolver"
	"github.com/nickromney-org/github-release-updater-proxy/internal/server"
)

var (
	listenAddr string
	logLevel   string
	logFormat  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (overrides server.listen)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides log.level)")
	serveCmd.Flags().StringVar(&logFormat, "log-format", "", "log format: text or json (overrides log.format)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Server.Listen = listenAddr
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	cfg.GitHub.Token = detectGitHubToken(cfg.GitHub.Token)

	logger, err := newLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	srv, err := buildServer(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("configuration loaded",
		"version", appVersion,
		"authenticated", cfg.GitHub.Token != "",
		"cache_ttl", cfg.Cache.TTL,
	)

	return srv.Run(ctx, cfg.Server.Listen, cfg.Server.ShutdownTimeout)
}

// buildServer wires the GitHub source, cache and access policy
func buildServer(cfg *config.Config, logger *slog.Logger) (*server.Server, error) {
	access, err := policy.NewAccess(cfg.Updates)
	if err != nil {
		return nil, fmt.Errorf("invalid updates configuration: %w", err)
	}

	trusted := make([]netip.Prefix, 0, len(cfg.Server.TrustedProxies))
	for _, p := range cfg.Server.TrustedProxies {
		prefix, err := config.ParsePrefix(p)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", p, err)
		}
		trusted = append(trusted, prefix)
	}

	client := github.NewClient(cfg.GitHub.Token,
		github.WithMaxReleases(cfg.GitHub.MaxReleases),
		github.WithTimeout(cfg.GitHub.Timeout),
	)

	res := resolver.New(client,
		cache.NewManager(cfg.Cache.Size, cfg.Cache.TTL),
		access,
		resolver.WithLogger(logger),
	)

	return server.New(res, access,
		server.WithLogger(logger),
		server.WithTrustedProxies(trusted),
	), nil
}
