package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/nickromney-org/github-release-updater-proxy/internal/cache"
	"github.com/nickromney-org/github-release-updater-proxy/internal/descriptor"
	"github.com/nickromney-org/github-release-updater-proxy/internal/policy"
	pkgpolicy "github.com/nickromney-org/github-release-updater-proxy/pkg/policy"
	"github.com/nickromney-org/github-release-updater-proxy/pkg/types"
)

// ErrNotFound is wrapped by every outcome that has nothing to deliver
var ErrNotFound = errors.New("not found")

var (
	ErrBlacklisted       = fmt.Errorf("%w: blacklisted", ErrNotFound)
	ErrNoReleases        = fmt.Errorf("%w: no releases", ErrNotFound)
	ErrNoEligibleRelease = fmt.Errorf("%w: no eligible release", ErrNotFound)
	ErrNoInstructions    = fmt.Errorf("%w: selected release has no updater instructions", ErrNotFound)
	ErrNoMatchingAsset   = fmt.Errorf("%w: no matching asset", ErrNotFound)
)

// ReleaseSource defines the interface for fetching releases
type ReleaseSource interface {
	Releases(ctx context.Context, owner, repo string) ([]types.Release, error)
}

// Request identifies a repository and how its release is wanted
type Request struct {
	Owner      string
	Repository string
	// AsJSON asks for the raw release instead of the descriptor.
	AsJSON   bool
	AllowAny bool
	// Beta is set for recognised beta clients.
	Beta bool
}

// Key returns the cache key of the request's repository
func (r Request) Key() string {
	return strings.ToLower(r.Owner + "/" + r.Repository)
}

// Result is a resolved release
type Result struct {
	Release    *types.Release
	Descriptor *descriptor.Descriptor
	// Cached is true when the result was served from the cache.
	Cached bool
}

// Resolver selects releases and builds their update descriptors
type Resolver struct {
	source ReleaseSource
	cache  *cache.Manager
	access *policy.Access
	logger *slog.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithLogger sets the logger used for resolution events
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a resolver. A nil cache disables caching and a nil access
// policy allows every repository.
func New(source ReleaseSource, c *cache.Manager, access *policy.Access, opts ...Option) *Resolver {
	r := &Resolver{
		source: source,
		cache:  c,
		access: access,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs a single resolution. Every not-found outcome wraps
// ErrNotFound; any other error comes from the context.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Result, error) {
	key := req.Key()
	logger := r.logger.With("repository", key)

	if r.access.IsBlacklisted(req.Owner, req.Repository) {
		logger.Debug("repository is blacklisted")
		return nil, ErrBlacklisted
	}

	if req.Beta {
		logger.Warn("beta client, bypassing cache and delivering prereleases")
	}

	if !r.cache.Bypass(req.Beta) {
		if entry, ok := r.cache.Get(key); ok {
			logger.Debug("returning cached response", "not_found", entry.NotFound)
			return fromEntry(entry, req.AsJSON)
		}
	}

	logger.Info("fetching releases")

	releases, err := r.source.Releases(ctx, req.Owner, req.Repository)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Warn("failed to fetch releases", "error", err)
		releases = nil
	}

	if len(releases) == 0 {
		logger.Debug("no releases returned")
		r.setNotFound(key)
		return nil, ErrNoReleases
	}

	sortNewestFirst(releases)

	sel := Select(releases, pkgpolicy.Mode{AllowAny: req.AllowAny, Beta: req.Beta})
	if sel == nil {
		if req.AsJSON {
			latest := &releases[0]
			logger.Debug("no eligible release, returning most recent", "tag", latest.TagName)
			r.set(key, latest, nil)
			return &Result{Release: latest}, nil
		}

		logger.Debug("no release with updater instructions found")
		r.setNotFound(key)
		return nil, ErrNoEligibleRelease
	}

	logger.Debug("selected release", "tag", sel.Release.TagName, "instructions", sel.Descriptor != nil)
	r.set(key, sel.Release, sel.Descriptor)

	return result(sel.Release, sel.Descriptor, req.AsJSON, false)
}

// LatestAsset returns the first asset of the newest release, or the first
// one whose name contains arch (case-insensitive) when arch is set.
// Prerelease and instruction rules do not apply and nothing is cached.
func (r *Resolver) LatestAsset(ctx context.Context, owner, repo, arch string) (*types.Asset, error) {
	if r.access.IsBlacklisted(owner, repo) {
		return nil, ErrBlacklisted
	}

	releases, err := r.source.Releases(ctx, owner, repo)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		r.logger.Warn("failed to fetch releases", "repository", owner+"/"+repo, "error", err)
		return nil, ErrNoReleases
	}
	if len(releases) == 0 {
		return nil, ErrNoReleases
	}

	sortNewestFirst(releases)
	latest := &releases[0]

	arch = strings.ToLower(arch)
	for i := range latest.Assets {
		asset := &latest.Assets[i]
		if arch == "" || strings.Contains(strings.ToLower(asset.Name), arch) {
			return asset, nil
		}
	}
	return nil, ErrNoMatchingAsset
}

// sortNewestFirst orders by creation date; ties keep source order
func sortNewestFirst(releases []types.Release) {
	sort.SliceStable(releases, func(i, j int) bool {
		return releases[i].CreatedAt.After(releases[j].CreatedAt)
	})
}

func (r *Resolver) set(key string, release *types.Release, d *descriptor.Descriptor) {
	if r.cache == nil {
		return
	}
	r.cache.Set(key, release, d)
}

func (r *Resolver) setNotFound(key string) {
	if r.cache == nil {
		return
	}
	r.cache.SetNotFound(key)
}

func fromEntry(entry *cache.Entry, asJSON bool) (*Result, error) {
	if entry.NotFound {
		return nil, ErrNotFound
	}
	return result(entry.Release, entry.Descriptor, asJSON, true)
}

func result(release *types.Release, d *descriptor.Descriptor, asJSON, cached bool) (*Result, error) {
	if !asJSON && d == nil {
		return nil, ErrNoInstructions
	}
	return &Result{Release: release, Descriptor: d, Cached: cached}, nil
}
