package types

import (
	"time"
)

// Release represents a GitHub release
type Release struct {
	TagName     string     `json:"tag_name"`
	Name        string     `json:"name"`
	Body        string     `json:"body"`
	HTMLURL     string     `json:"html_url"`
	Draft       bool       `json:"draft"`
	Prerelease  bool       `json:"prerelease"`
	CreatedAt   time.Time  `json:"created_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Assets      []Asset    `json:"assets"`
}

// Asset represents a downloadable file attached to a release
type Asset struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	DownloadURL string `json:"browser_download_url"`
}

// FirstAsset returns the first asset in source order, or nil
func (r *Release) FirstAsset() *Asset {
	if len(r.Assets) == 0 {
		return nil
	}
	return &r.Assets[0]
}

// HasAssets reports whether the release carries at least one asset
func (r *Release) HasAssets() bool {
	return len(r.Assets) > 0
}
