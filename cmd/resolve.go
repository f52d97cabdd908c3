package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/nickromney-org/github-release-updater-proxy/internal/config"
	"github.com/nickromney-org/github-release-updater-proxy/internal/data"
	"github.com/nickromney-org/github-release-updater-proxy/internal/github"
	"github.com/nickromney-org/github-release-updater-proxy/internal/policy"
	"github.com/nickromney-org/github-release-updater-proxy/internal/resolver"
	"github.com/nickromney-org/github-release-updater-proxy/internal/version"
)

var (
	jsonOutput        bool
	allowAny          bool
	betaMode          bool
	releasesFile      string
	comparisonVersion string
	verbose           bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve OWNER/REPO|URL",
	Short: "Resolve the update descriptor of a repository once",
	Long: `Resolve runs the same selection as the updates endpoint and prints the
updater INI file (or the raw release with --json).`,
	Example: `  # Print the updater file
  updater-proxy resolve nefarius/HidHide

  # Include prereleases
  updater-proxy resolve https://github.com/nefarius/HidHide --beta

  # Work from a snapshot written by bootstrap-releases
  updater-proxy resolve nefarius/HidHide --releases-file releases.json`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the raw release as JSON")
	resolveCmd.Flags().BoolVar(&allowAny, "allow-any", false, "accept any release with assets")
	resolveCmd.Flags().BoolVar(&betaMode, "beta", false, "resolve as a beta client (prereleases eligible)")
	resolveCmd.Flags().StringVarP(&releasesFile, "releases-file", "f", "", "read releases from a snapshot file instead of GitHub")
	resolveCmd.Flags().StringVarP(&comparisonVersion, "compare", "c", "", "installed version to compare against (e.g., 1.4.0)")
	resolveCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	// Disable automatic usage printing on error
	cmd.SilenceUsage = true

	repo, err := config.ParseRepositoryString(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	logger, err := newLogger(cmd.ErrOrStderr(), level, cfg.Log.Format)
	if err != nil {
		return err
	}

	source, err := releaseSource(cfg)
	if err != nil {
		return err
	}

	access, err := policy.NewAccess(cfg.Updates)
	if err != nil {
		return fmt.Errorf("invalid updates configuration: %w", err)
	}

	// one-shot: no cache
	res := resolver.New(source, nil, access, resolver.WithLogger(logger))

	result, err := res.Resolve(cmd.Context(), resolver.Request{
		Owner:      repo.Owner,
		Repository: repo.Repo,
		AsJSON:     jsonOutput,
		AllowAny:   allowAny,
		Beta:       betaMode,
	})
	if err != nil {
		if errors.Is(err, resolver.ErrNotFound) {
			red.Fprintf(cmd.ErrOrStderr(), "No update available for %s: %v\n", repo.FullName(), err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if err := outputJSON(out, result.Release); err != nil {
			return err
		}
	} else {
		fmt.Fprint(out, result.Descriptor.Render())
	}

	if comparisonVersion != "" {
		return printComparison(cmd.ErrOrStderr(), result, comparisonVersion)
	}
	return nil
}

func releaseSource(cfg *config.Config) (resolver.ReleaseSource, error) {
	if releasesFile != "" {
		return data.OpenFileSource(releasesFile)
	}
	return github.NewClient(detectGitHubToken(cfg.GitHub.Token),
		github.WithMaxReleases(cfg.GitHub.MaxReleases),
		github.WithTimeout(cfg.GitHub.Timeout),
	), nil
}

func outputJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// resolvedVersion returns the version and date of a result. JSON results
// may carry no descriptor, so the tag is parsed directly.
func resolvedVersion(result *resolver.Result) (*version.Version, time.Time, error) {
	if result.Descriptor != nil {
		return result.Descriptor.Version, result.Descriptor.ReleaseDate, nil
	}

	ver, err := version.Parse(result.Release.TagName)
	if err != nil {
		return nil, time.Time{}, err
	}

	released := result.Release.CreatedAt
	if result.Release.PublishedAt != nil {
		released = *result.Release.PublishedAt
	}
	return ver, released, nil
}

// compareVersions returns -1, 0 or 1 as installed is older than, equal to
// or newer than the resolved version
func compareVersions(installed string, resolved *version.Version) (int, error) {
	current, err := semver.NewVersion(installed)
	if err != nil {
		return 0, fmt.Errorf("invalid comparison version %q: %w", installed, err)
	}

	latest, err := resolved.Semver()
	if err != nil {
		return 0, err
	}

	return current.Compare(latest), nil
}

func printComparison(w io.Writer, result *resolver.Result, installed string) error {
	resolved, released, err := resolvedVersion(result)
	if err != nil {
		return err
	}

	cmp, err := compareVersions(installed, resolved)
	if err != nil {
		return err
	}

	releasedStr := formatReleased(released, time.Now())

	fmt.Fprintln(w)
	switch {
	case cmp < 0:
		yellow.Fprintf(w, "Update available: %s -> %s ", installed, resolved)
		grey.Fprintf(w, "(%s)\n", releasedStr)
	case cmp == 0:
		green.Fprintf(w, "Version %s is up to date ", installed)
		grey.Fprintf(w, "(%s)\n", releasedStr)
	default:
		cyan.Fprintf(w, "Version %s is newer than the published %s\n", installed, resolved)
	}
	return nil
}
