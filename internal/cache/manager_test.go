package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickromney-org/github-release-updater-proxy/internal/descriptor"
	"github.com/nickromney-org/github-release-updater-proxy/internal/version"
	"github.com/nickromney-org/github-release-updater-proxy/pkg/types"
)

func TestManager_SetGet(t *testing.T) {
	manager := NewManager(10, time.Hour)

	release := &types.Release{TagName: "v1.0.0"}
	d := &descriptor.Descriptor{Name: "App", Version: version.MustParse("1.0.0")}

	manager.Set("nefarius/app", release, d)

	entry, ok := manager.Get("nefarius/app")
	require.True(t, ok)
	assert.Same(t, release, entry.Release)
	assert.Same(t, d, entry.Descriptor)
	assert.False(t, entry.NotFound)
	assert.False(t, entry.StoredAt.IsZero())

	_, ok = manager.Get("nefarius/other")
	assert.False(t, ok)
}

func TestManager_SetNotFound(t *testing.T) {
	manager := NewManager(10, time.Hour)

	manager.SetNotFound("nefarius/missing")

	entry, ok := manager.Get("nefarius/missing")
	require.True(t, ok)
	assert.True(t, entry.NotFound)
	assert.Nil(t, entry.Release)
	assert.Nil(t, entry.Descriptor)
}

func TestManager_Overwrite(t *testing.T) {
	manager := NewManager(10, time.Hour)

	manager.SetNotFound("nefarius/app")
	manager.Set("nefarius/app", &types.Release{TagName: "v2.0.0"}, nil)

	entry, ok := manager.Get("nefarius/app")
	require.True(t, ok)
	assert.False(t, entry.NotFound)
	assert.Equal(t, "v2.0.0", entry.Release.TagName)
	assert.Equal(t, 1, manager.Len())
}

func TestManager_Expiry(t *testing.T) {
	manager := NewManager(10, 50*time.Millisecond)
	assert.Equal(t, 50*time.Millisecond, manager.TTL())

	manager.Set("nefarius/app", &types.Release{}, nil)

	_, ok := manager.Get("nefarius/app")
	require.True(t, ok)

	time.Sleep(120 * time.Millisecond)

	_, ok = manager.Get("nefarius/app")
	assert.False(t, ok, "entry should have expired")
}

func TestManager_Bypass(t *testing.T) {
	manager := NewManager(10, time.Hour)
	assert.False(t, manager.Bypass(false))
	assert.True(t, manager.Bypass(true))

	var disabled *Manager
	assert.True(t, disabled.Bypass(false))
}

func TestManager_Purge(t *testing.T) {
	manager := NewManager(10, time.Hour)
	manager.Set("a/b", &types.Release{}, nil)
	manager.SetNotFound("c/d")

	manager.Purge()
	assert.Equal(t, 0, manager.Len())
}

func TestNewManager(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		ttl     time.Duration
		wantTTL time.Duration
	}{
		{
			name:    "defaults",
			size:    0,
			ttl:     0,
			wantTTL: DefaultTTL,
		},
		{
			name:    "custom",
			size:    5,
			ttl:     time.Minute,
			wantTTL: time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := NewManager(tt.size, tt.ttl)
			if manager == nil {
				t.Fatal("NewManager returned nil")
			}
			if manager.TTL() != tt.wantTTL {
				t.Errorf("TTL = %v, want %v", manager.TTL(), tt.wantTTL)
			}
		})
	}
}
