// Package tier resolves a requester to a content tier and applies the
// free-tier word budget without breaking the sanitized follow-up block.
package tier

import (
	"context"
	"log/slog"

	"github.com/qaaqit/qbot-gateway/internal/types"
)

// Tier is the content policy applied to a response.
type Tier int

const (
	// RateLimited is the default: answers are truncated to the word budget.
	RateLimited Tier = iota
	// Unrestricted passes content through unmodified.
	Unrestricted
)

func (t Tier) String() string {
	if t == Unrestricted {
		return "unrestricted"
	}
	return "rate_limited"
}

// PremiumOracle answers whether an identity has an active premium
// subscription. It is best-effort: errors never block content delivery.
type PremiumOracle interface {
	IsPremium(ctx context.Context, identityKey string) (bool, error)
}

// Resolver decides the tier for a requester. Checks run in a fixed order
// until one is decisive: admin flag, allowlist, explicit premium flag on the
// profile, oracle. No identity means rate-limited — fail closed, never open.
type Resolver struct {
	oracle    PremiumOracle
	allowlist map[string]struct{}
}

func NewResolver(oracle PremiumOracle, allowlist []string) *Resolver {
	set := make(map[string]struct{}, len(allowlist))
	for _, id := range allowlist {
		set[id] = struct{}{}
	}
	return &Resolver{oracle: oracle, allowlist: set}
}

func (r *Resolver) Resolve(ctx context.Context, profile types.ProfileRef) Tier {
	if profile.IsAdmin {
		return Unrestricted
	}

	key := profile.IdentityKey()
	if _, ok := r.allowlist[key]; ok && key != "" {
		return Unrestricted
	}

	if profile.IsPremium {
		return Unrestricted
	}

	if key == "" {
		return RateLimited
	}

	if r.oracle != nil {
		premium, err := r.oracle.IsPremium(ctx, key)
		if err != nil {
			// A billing check failure must never fail the content path.
			slog.Warn("premium oracle check failed", "identity", key, "error", err)
			return RateLimited
		}
		if premium {
			return Unrestricted
		}
	}

	return RateLimited
}
