package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/nickromney-org/github-release-updater-proxy/internal/config"
	"github.com/nickromney-org/github-release-updater-proxy/internal/data"
	"github.com/nickromney-org/github-release-updater-proxy/internal/github"
)

func main() {
	token := flag.String("token", os.Getenv("GITHUB_TOKEN"), "GitHub token")
	output := flag.String("output", "releases.json", "Output file")
	repo := flag.String("repo", "", "Repository to fetch (e.g., 'nefarius/HidHide' or a GitHub URL)")
	limit := flag.Int("max", 100, "Maximum number of releases to fetch (1-100)")
	flag.Parse()

	// Parse repository
	repoConfig, err := config.ParseRepositoryString(*repo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid repository %q: %v\n", *repo, err)
		os.Exit(1)
	}

	// Create GitHub client
	ghClient := github.NewClient(*token, github.WithMaxReleases(*limit))
	ctx := context.Background()

	fmt.Printf("Fetching releases from %s via GitHub API...\n", repoConfig.FullName())

	releases, err := ghClient.Releases(ctx, repoConfig.Owner, repoConfig.Repo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	snapshot := &data.Snapshot{
		GeneratedAt: time.Now().UTC(),
		Repository:  repoConfig.FullName(),
		Releases:    releases,
	}

	if err := data.SaveSnapshot(*output, snapshot); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Wrote %d releases to %s\n", len(releases), *output)
}
