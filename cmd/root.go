package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	colour "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nickromney-org/github-release-updater-proxy/internal/config"
)

var (
	configPath  string
	githubToken string
	showVersion bool

	// Version information (set via SetVersionInfo from main)
	appVersion = "dev"
	buildTime  = "unknown"
	gitCommit  = "unknown"

	// Colours for output
	green  = colour.New(colour.FgGreen, colour.Bold)
	yellow = colour.New(colour.FgYellow, colour.Bold)
	red    = colour.New(colour.FgRed, colour.Bold)
	cyan   = colour.New(colour.FgCyan)
	grey   = colour.New(colour.FgHiBlack) // Faint grey for timestamps
)

// SetVersionInfo sets the version information from the main package
func SetVersionInfo(version, build, commit string) {
	appVersion = version
	buildTime = build
	gitCommit = commit
}

var rootCmd = &cobra.Command{
	Use:   "updater-proxy",
	Short: "Serve Advanced Installer updater files from GitHub releases",
	Long: `Translate GitHub releases into Advanced Installer updater configuration files.

Release authors put a JSON instruction block in an HTML comment at the very
start of the release notes. The proxy picks the newest eligible release,
merges the block with the release metadata and serves the result as an
updater INI file.`,
	Example: `  # Run the HTTP API
  updater-proxy serve --config config.yaml

  # Resolve a repository once
  updater-proxy resolve nefarius/HidHide

  # Compare against an installed version
  updater-proxy resolve nefarius/HidHide --compare 1.4.0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			printVersion(cmd.OutOrStdout())
			return nil
		}
		return cmd.Help()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the YAML config file")
	rootCmd.PersistentFlags().StringVarP(&githubToken, "token", "t", os.Getenv("GITHUB_TOKEN"), "GitHub token (or GITHUB_TOKEN env var)")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "show version information")

	rootCmd.AddCommand(versionCmd)
}

func Execute() error {
	return rootCmd.Execute()
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "github-release-updater-proxy %s\n", appVersion)
	fmt.Fprintf(w, "Build time: %s\n", buildTime)
	fmt.Fprintf(w, "Git commit: %s\n", gitCommit)
}

// loadConfig reads the config file and applies the token flag on top
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if githubToken != "" {
		cfg.GitHub.Token = githubToken
	}

	return cfg, nil
}

// detectGitHubToken attempts to find a GitHub token from multiple sources
func detectGitHubToken(providedToken string) string {
	// 1. Use explicitly provided token (flag, GITHUB_TOKEN or config file)
	if providedToken != "" {
		return providedToken
	}

	// 2. Try to get token from GitHub CLI
	ghToken, err := getGitHubCLIToken()
	if err == nil && ghToken != "" {
		return ghToken
	}

	// 3. No token found - will use unauthenticated requests
	return ""
}

// getGitHubCLIToken attempts to retrieve a token from the GitHub CLI
func getGitHubCLIToken() (string, error) {
	cmd := exec.Command("gh", "auth", "token")
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}

	token := strings.TrimSpace(string(output))
	if token == "" {
		return "", fmt.Errorf("gh auth token returned empty")
	}

	return token, nil
}

// newLogger builds the process logger from a level and a format name
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}
