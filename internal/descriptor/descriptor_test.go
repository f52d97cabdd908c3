package descriptor

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nickromney-org/github-release-updater-proxy/internal/instructions"
	"github.com/nickromney-org/github-release-updater-proxy/internal/version"
	"github.com/nickromney-org/github-release-updater-proxy/pkg/types"
)

func timePtr(t time.Time) *time.Time {
	return &t
}

func newTestRelease(tag, body string) *types.Release {
	return &types.Release{
		TagName:     tag,
		Name:        "App " + tag,
		Body:        body,
		HTMLURL:     "https://github.com/nefarius/app/releases/tag/" + tag,
		CreatedAt:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		PublishedAt: timePtr(time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)),
		Assets: []types.Asset{
			{Name: "App_x64.exe", Size: 1024, ContentType: "application/x-msdownload", DownloadURL: "https://github.com/nefarius/app/releases/download/" + tag + "/App_x64.exe"},
			{Name: "App_arm64.exe", Size: 2048, DownloadURL: "https://github.com/nefarius/app/releases/download/" + tag + "/App_arm64.exe"},
		},
	}
}

func TestBuild(t *testing.T) {
	release := newTestRelease("v1.2.3", "")
	block := &instructions.Block{
		Available:   true,
		RegistryKey: `HKLM\SOFTWARE\App`,
		Replaces:    "All",
		Features:    []string{"one"},
	}

	d, err := Build(release, block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.Name != "App v1.2.3" {
		t.Errorf("Name = %q", d.Name)
	}
	// first asset is positional
	if d.URL != release.Assets[0].DownloadURL {
		t.Errorf("URL = %q, want first asset", d.URL)
	}
	if d.Size != 1024 {
		t.Errorf("Size = %d, want 1024", d.Size)
	}
	if d.Version.String() != "1.2.3" {
		t.Errorf("Version = %s", d.Version)
	}
	if !d.ReleaseDate.Equal(*release.PublishedAt) {
		t.Errorf("ReleaseDate = %v, want published date", d.ReleaseDate)
	}
	wantDesc := `<a href="https://github.com/nefarius/app/releases/tag/v1.2.3">Click to view the full changelog online.</a>`
	if d.Description != wantDesc {
		t.Errorf("Description = %q", d.Description)
	}
	if !d.Available || d.RegistryKey != block.RegistryKey || d.Replaces != "All" || len(d.Features) != 1 {
		t.Errorf("instruction fields not copied: %+v", d)
	}
}

func TestBuild_ReleaseDateFallsBackToCreatedAt(t *testing.T) {
	release := newTestRelease("v1.0", "")
	release.PublishedAt = nil

	d, err := Build(release, &instructions.Block{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.ReleaseDate.Equal(release.CreatedAt) {
		t.Errorf("ReleaseDate = %v, want %v", d.ReleaseDate, release.CreatedAt)
	}
}

func TestBuild_Invalid(t *testing.T) {
	t.Run("no assets", func(t *testing.T) {
		release := newTestRelease("v1.0.0", "")
		release.Assets = nil

		_, err := Build(release, &instructions.Block{})
		if !errors.Is(err, ErrNoAssets) {
			t.Errorf("expected ErrNoAssets, got %v", err)
		}
	})

	t.Run("tag without version", func(t *testing.T) {
		release := newTestRelease("nightly", "")

		_, err := Build(release, &instructions.Block{})
		if !errors.Is(err, version.ErrUnparseableVersion) {
			t.Errorf("expected ErrUnparseableVersion, got %v", err)
		}
	})
}

func TestFromRelease(t *testing.T) {
	tests := []struct {
		name    string
		release *types.Release
		wantErr error
	}{
		{
			name:    "valid",
			release: newTestRelease("v2.0.0", `<!-- {"available": true} -->notes`),
		},
		{
			name:    "no instruction block",
			release: newTestRelease("v2.0.0", "notes only"),
			wantErr: instructions.ErrNoInstructionBlock,
		},
		{
			name:    "malformed block",
			release: newTestRelease("v2.0.0", "<!-- oops -->"),
			wantErr: instructions.ErrMalformedInstructionBlock,
		},
		{
			name:    "bad tag",
			release: newTestRelease("preview", `<!-- {} -->`),
			wantErr: version.ErrUnparseableVersion,
		},
		{
			name: "no assets",
			release: func() *types.Release {
				r := newTestRelease("v2.0.0", `<!-- {} -->`)
				r.Assets = []types.Asset{}
				return r
			}(),
			wantErr: ErrNoAssets,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := FromRelease(tt.release)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				if d != nil {
					t.Error("expected nil descriptor")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.HasPrefix(d.Render(), Header) {
				t.Error("rendered text has no header")
			}
		})
	}
}
