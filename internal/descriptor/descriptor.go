package descriptor

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nickromney-org/github-release-updater-proxy/internal/instructions"
	"github.com/nickromney-org/github-release-updater-proxy/internal/version"
	"github.com/nickromney-org/github-release-updater-proxy/pkg/types"
)

// ErrNoAssets is returned when a release has nothing to download
var ErrNoAssets = errors.New("release has no assets")

// Descriptor is the merged update information of one release
type Descriptor struct {
	// Name of the new release.
	Name string `json:"name"`
	// URL is the direct download URL of the setup.
	URL string `json:"url"`
	// Size of the setup in bytes.
	Size int64 `json:"size"`
	// Version available on the server.
	Version     *version.Version `json:"version"`
	ReleaseDate time.Time        `json:"releaseDate"`
	Description string           `json:"description"`

	Available      bool     `json:"available"`
	RegistryKey    string   `json:"registryKey,omitempty"`
	FilePath       string   `json:"filePath,omitempty"`
	Flags          string   `json:"flags,omitempty"`
	Depends        string   `json:"depends,omitempty"`
	NextDeprecated string   `json:"nextDeprecated,omitempty"`
	Replaces       string   `json:"replaces"`
	Features       []string `json:"features"`
	Enhancements   []string `json:"enhancements"`
	BugFixes       []string `json:"bugFixes"`

	renderOnce sync.Once
	rendered   string
}

// Build merges an instruction block with the release and its first asset
func Build(release *types.Release, block *instructions.Block) (*Descriptor, error) {
	asset := release.FirstAsset()
	if asset == nil {
		return nil, ErrNoAssets
	}

	ver, err := version.Parse(release.TagName)
	if err != nil {
		return nil, err
	}

	releaseDate := release.CreatedAt
	if release.PublishedAt != nil && !release.PublishedAt.IsZero() {
		releaseDate = *release.PublishedAt
	}

	return &Descriptor{
		Name:           release.Name,
		URL:            asset.DownloadURL,
		Size:           asset.Size,
		Version:        ver,
		ReleaseDate:    releaseDate,
		Description:    changelogLink(release.HTMLURL),
		Available:      block.Available,
		RegistryKey:    block.RegistryKey,
		FilePath:       block.FilePath,
		Flags:          block.Flags,
		Depends:        block.Depends,
		NextDeprecated: block.NextDeprecated,
		Replaces:       block.Replaces,
		Features:       block.Features,
		Enhancements:   block.Enhancements,
		BugFixes:       block.BugFixes,
	}, nil
}

// FromRelease extracts the instruction block and builds the descriptor.
// The returned error says why the release is not usable.
func FromRelease(release *types.Release) (*Descriptor, error) {
	if !release.HasAssets() {
		return nil, ErrNoAssets
	}

	block, err := instructions.Extract(release.Body)
	if err != nil {
		return nil, err
	}

	d, err := Build(release, block)
	if err != nil {
		return nil, fmt.Errorf("release %s: %w", release.TagName, err)
	}
	return d, nil
}

func changelogLink(htmlURL string) string {
	return fmt.Sprintf(`<a href="%s">Click to view the full changelog online.</a>`, htmlURL)
}
