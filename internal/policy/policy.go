package policy

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/nickromney-org/github-release-updater-proxy/internal/config"
)

// Access decides which callers and repositories are served.
// It is built once from configuration and never mutated.
type Access struct {
	blacklistedUsers map[string]struct{}
	blacklistedRepos map[string]struct{}
	betaClients      []netip.Prefix
}

// NewAccess creates an access policy from config
// This is an internal adapter over the updates section of the config file
func NewAccess(cfg config.UpdatesConfig) (*Access, error) {
	a := &Access{
		blacklistedUsers: make(map[string]struct{}, len(cfg.BlacklistedUsernames)),
		blacklistedRepos: make(map[string]struct{}, len(cfg.BlacklistedRepositories)),
	}

	for _, u := range cfg.BlacklistedUsernames {
		a.blacklistedUsers[strings.ToLower(strings.TrimSpace(u))] = struct{}{}
	}
	for _, r := range cfg.BlacklistedRepositories {
		a.blacklistedRepos[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}

	for _, c := range cfg.BetaClients {
		prefix, err := config.ParsePrefix(c)
		if err != nil {
			return nil, fmt.Errorf("invalid beta client %q: %w", c, err)
		}
		a.betaClients = append(a.betaClients, prefix)
	}

	return a, nil
}

// IsBlacklisted reports whether lookups for owner/repo are refused.
// Repository entries may be a bare name or "owner/name".
func (a *Access) IsBlacklisted(owner, repo string) bool {
	if a == nil {
		return false
	}

	owner = strings.ToLower(owner)
	repo = strings.ToLower(repo)

	if _, ok := a.blacklistedUsers[owner]; ok {
		return true
	}
	if _, ok := a.blacklistedRepos[repo]; ok {
		return true
	}
	_, ok := a.blacklistedRepos[owner+"/"+repo]
	return ok
}

// IsBetaClient reports whether the caller address may bypass the cache
func (a *Access) IsBetaClient(addr netip.Addr) bool {
	if a == nil || !addr.IsValid() {
		return false
	}

	addr = addr.Unmap()
	for _, p := range a.betaClients {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// BetaClientCount returns the number of configured beta entries
func (a *Access) BetaClientCount() int {
	if a == nil {
		return 0
	}
	return len(a.betaClients)
}
