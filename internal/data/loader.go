package data

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nickromney-org/github-release-updater-proxy/pkg/types"
)

//go:embed releases.json
var releasesJSON []byte

// Snapshot is a point-in-time copy of a repository's releases
type Snapshot struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Repository  string          `json:"repository"`
	Releases    []types.Release `json:"releases"`
}

// LoadEmbeddedSnapshot loads the demo snapshot shipped with the binary
func LoadEmbeddedSnapshot() (*Snapshot, error) {
	return decodeSnapshot(releasesJSON)
}

// LoadSnapshot reads a snapshot written by SaveSnapshot
func LoadSnapshot(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	snapshot, err := decodeSnapshot(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	return snapshot, nil
}

func decodeSnapshot(raw []byte) (*Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, err
	}
	if snapshot.Repository == "" {
		return nil, fmt.Errorf("snapshot has no repository")
	}
	return &snapshot, nil
}

// SaveSnapshot writes the snapshot as indented JSON
func SaveSnapshot(path string, snapshot *Snapshot) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snapshot); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return file.Close()
}

// FileSource serves releases from snapshots instead of the GitHub API
type FileSource struct {
	byRepo map[string][]types.Release
}

// NewFileSource indexes the given snapshots by repository
func NewFileSource(snapshots ...*Snapshot) *FileSource {
	s := &FileSource{byRepo: make(map[string][]types.Release, len(snapshots))}
	for _, snapshot := range snapshots {
		s.byRepo[strings.ToLower(snapshot.Repository)] = snapshot.Releases
	}
	return s
}

// OpenFileSource loads snapshot files into a FileSource
func OpenFileSource(paths ...string) (*FileSource, error) {
	snapshots := make([]*Snapshot, 0, len(paths))
	for _, path := range paths {
		snapshot, err := LoadSnapshot(path)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	return NewFileSource(snapshots...), nil
}

// Releases returns the snapshot of owner/repo, or nothing if none was loaded
func (s *FileSource) Releases(ctx context.Context, owner, repo string) ([]types.Release, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	releases := s.byRepo[strings.ToLower(owner+"/"+repo)]
	out := make([]types.Release, 0, len(releases))
	for _, r := range releases {
		if r.Draft {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
