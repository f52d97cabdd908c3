package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/nickromney-org/github-release-updater-proxy/internal/config"
	"github.com/nickromney-org/github-release-updater-proxy/internal/data"
	"github.com/nickromney-org/github-release-updater-proxy/internal/github"
	"github.com/nickromney-org/github-release-updater-proxy/internal/resolver"
	"github.com/nickromney-org/github-release-updater-proxy/pkg/policy"
	"github.com/nickromney-org/github-release-updater-proxy/pkg/types"
)

func main() {
	token := flag.String("token", os.Getenv("GITHUB_TOKEN"), "GitHub token")
	repo := flag.String("repo", "", "Repository to check (e.g., 'nefarius/HidHide' or a GitHub URL)")
	releasesFile := flag.String("releases-file", "", "Read releases from a snapshot instead of GitHub")
	beta := flag.Bool("beta", false, "Check as a beta client (prereleases eligible)")
	flag.Parse()

	repoConfig, err := config.ParseRepositoryString(*repo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid repository %q: %v\n", *repo, err)
		os.Exit(1)
	}

	var source resolver.ReleaseSource = github.NewClient(*token)
	if *releasesFile != "" {
		source, err = data.OpenFileSource(*releasesFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	releases, err := source.Releases(context.Background(), repoConfig.Owner, repoConfig.Repo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching releases: %v\n", err)
		os.Exit(1)
	}

	if len(releases) == 0 {
		fmt.Printf("⚠️  No releases found for %s\n", repoConfig.FullName())
		os.Exit(1)
	}

	sort.SliceStable(releases, func(i, j int) bool {
		return releases[i].CreatedAt.After(releases[j].CreatedAt)
	})

	var selected *types.Release
	mode := policy.Mode{Beta: *beta}

	for i := range releases {
		r := &releases[i]
		v := resolver.Evaluate(r, mode)

		if v.Eligible {
			fmt.Printf("✅ %-20s eligible (version %s)\n", r.TagName, v.Descriptor.Version)
			if selected == nil {
				selected = r
			}
			continue
		}

		fmt.Printf("⏭️  %-20s skipped: %v\n", r.TagName, v.Reason)
	}

	if selected == nil {
		fmt.Printf("\n❌ No release of %s would be served\n", repoConfig.FullName())
		os.Exit(1)
	}

	fmt.Printf("\nServed release: %s\n", selected.TagName)
}
