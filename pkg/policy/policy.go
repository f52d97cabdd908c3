package policy

import (
	"github.com/nickromney-org/github-release-updater-proxy/pkg/types"
)

// Mode selects which releases may be delivered to a caller
type Mode struct {
	AllowAny bool // any release with assets, instructions optional
	Beta     bool // prereleases are eligible
}

// Candidate is a release under evaluation
type Candidate struct {
	Release *types.Release
	// HasInstructions is true when a valid update descriptor could be built
	// from the release (instruction block, first asset and tag version).
	HasInstructions bool
}

// EligibilityPolicy defines the interface for release eligibility rules
type EligibilityPolicy interface {
	// Eligible reports whether the candidate may be delivered
	Eligible(c Candidate) bool

	// Type returns the policy type
	Type() string

	// RequiresInstructions reports whether Eligible looks at HasInstructions
	RequiresInstructions() bool
}

// ForMode returns the policy for a mode. AllowAny wins over Beta.
func ForMode(m Mode) EligibilityPolicy {
	switch {
	case m.AllowAny:
		return &AnyPolicy{}
	case m.Beta:
		return &BetaPolicy{}
	default:
		return &StablePolicy{}
	}
}

// AnyPolicy accepts any release that has something to download
type AnyPolicy struct{}

func (p *AnyPolicy) Eligible(c Candidate) bool  { return c.Release.HasAssets() }
func (p *AnyPolicy) Type() string               { return "any" }
func (p *AnyPolicy) RequiresInstructions() bool { return false }

// BetaPolicy accepts prereleases as long as they carry instructions
type BetaPolicy struct{}

func (p *BetaPolicy) Eligible(c Candidate) bool  { return c.HasInstructions }
func (p *BetaPolicy) Type() string               { return "beta" }
func (p *BetaPolicy) RequiresInstructions() bool { return true }

// StablePolicy accepts final releases that carry instructions
type StablePolicy struct{}

func (p *StablePolicy) Eligible(c Candidate) bool {
	return !c.Release.Prerelease && c.HasInstructions
}
func (p *StablePolicy) Type() string               { return "stable" }
func (p *StablePolicy) RequiresInstructions() bool { return true }
