package resolver

import (
	"errors"

	"github.com/nickromney-org/github-release-updater-proxy/internal/descriptor"
	"github.com/nickromney-org/github-release-updater-proxy/pkg/policy"
	"github.com/nickromney-org/github-release-updater-proxy/pkg/types"
)

// ErrPrerelease is the skip reason of prereleases for non-beta callers
var ErrPrerelease = errors.New("release is a prerelease")

// Selection is the release chosen for a caller
type Selection struct {
	Release *types.Release
	// Descriptor is nil only when instructions were optional and absent.
	Descriptor *descriptor.Descriptor
}

// Verdict is the outcome of evaluating a single release
type Verdict struct {
	Eligible   bool
	Descriptor *descriptor.Descriptor
	// Reason explains why the release was skipped, or why no descriptor
	// could be built for an eligible one.
	Reason error
}

// Evaluate applies the eligibility policy of mode to one release
func Evaluate(release *types.Release, mode policy.Mode) Verdict {
	pol := policy.ForMode(mode)

	d, err := descriptor.FromRelease(release)
	eligible := pol.Eligible(policy.Candidate{
		Release:         release,
		HasInstructions: err == nil,
	})

	v := Verdict{Eligible: eligible, Descriptor: d, Reason: err}
	if !eligible && err == nil {
		// only the prerelease rule rejects a buildable release
		v.Reason = ErrPrerelease
	}
	return v
}

// Select returns the first eligible release in the given order, or nil.
// Releases are expected newest first.
func Select(releases []types.Release, mode policy.Mode) *Selection {
	for i := range releases {
		release := &releases[i]

		v := Evaluate(release, mode)
		if !v.Eligible {
			continue
		}

		return &Selection{
			Release:    release,
			Descriptor: v.Descriptor,
		}
	}
	return nil
}
