package tier

import (
	"context"
	"errors"
	"testing"

	"github.com/qaaqit/qbot-gateway/internal/types"
)

type fakeOracle struct {
	premium bool
	err     error
	calls   int
}

func (f *fakeOracle) IsPremium(ctx context.Context, key string) (bool, error) {
	f.calls++
	return f.premium, f.err
}

func TestResolver_Precedence(t *testing.T) {
	tests := []struct {
		name     string
		profile  types.ProfileRef
		oracle   *fakeOracle
		allow    []string
		want     Tier
		noOracle bool // oracle must not be consulted
	}{
		{
			name:     "admin flag wins",
			profile:  types.ProfileRef{UserID: "u1", IsAdmin: true},
			oracle:   &fakeOracle{},
			want:     Unrestricted,
			noOracle: true,
		},
		{
			name:     "allowlist wins over oracle saying no",
			profile:  types.ProfileRef{UserID: "u2"},
			oracle:   &fakeOracle{premium: false},
			allow:    []string{"u2"},
			want:     Unrestricted,
			noOracle: true,
		},
		{
			name:     "explicit premium flag is decisive",
			profile:  types.ProfileRef{UserID: "u3", IsPremium: true},
			oracle:   &fakeOracle{},
			want:     Unrestricted,
			noOracle: true,
		},
		{
			name:    "oracle premium",
			profile: types.ProfileRef{UserID: "u4"},
			oracle:  &fakeOracle{premium: true},
			want:    Unrestricted,
		},
		{
			name:    "oracle non-premium",
			profile: types.ProfileRef{UserID: "u5"},
			oracle:  &fakeOracle{premium: false},
			want:    RateLimited,
		},
		{
			name:    "oracle error fails closed",
			profile: types.ProfileRef{UserID: "u6"},
			oracle:  &fakeOracle{err: errors.New("billing service down")},
			want:    RateLimited,
		},
		{
			name:     "no identity fails closed",
			profile:  types.ProfileRef{},
			oracle:   &fakeOracle{premium: true},
			want:     RateLimited,
			noOracle: true,
		},
		{
			name:    "whatsapp id used as identity",
			profile: types.ProfileRef{WhatsAppID: "wa-99"},
			oracle:  &fakeOracle{premium: true},
			want:    Unrestricted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.oracle, tt.allow)
			got := r.Resolve(context.Background(), tt.profile)
			if got != tt.want {
				t.Errorf("Resolve = %s, want %s", got, tt.want)
			}
			if tt.noOracle && tt.oracle.calls != 0 {
				t.Errorf("oracle consulted %d times, expected 0", tt.oracle.calls)
			}
		})
	}
}
