package provider

import (
	"context"
	"errors"
	"math/rand"
	"strings"

	"github.com/qaaqit/qbot-gateway/internal/types"
)

// Sentinel errors for the provider call taxonomy. Only ErrNotConfigured and
// ErrUpstream drive cross-provider fallback; everything else is absorbed
// where it is detected.
var (
	// ErrNotConfigured means no credential is present for this provider.
	// Checked before any network call is attempted.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrUpstream covers transport failures, timeouts and non-2xx responses.
	ErrUpstream = errors.New("provider upstream error")

	// ErrEmptyContent means the call succeeded but carried no usable text,
	// e.g. under provider-side content filtering. Resolved locally with a
	// canned micro-answer before it ever reaches the orchestrator.
	ErrEmptyContent = errors.New("provider returned empty content")

	// ErrStaleThread means the provider rejected a conversation thread id
	// as unknown. The conversation store recreates the handle and retries
	// once; it never counts as a fallback attempt.
	ErrStaleThread = errors.New("provider rejected thread id")
)

// Input carries everything an adapter needs for one generation call.
type Input struct {
	// System is the composed instruction block shared by all adapters.
	System string
	// Message is the user's question.
	Message string
	// History holds prior turns for stateless providers. The stateful
	// provider ignores it and relies on ThreadID.
	History []types.Message
	// MaxTokens is the tier-resolved token ceiling for this call.
	MaxTokens int
	// ThreadID is a durable server-side thread reference. Only the openai
	// adapter reads it.
	ThreadID string
}

// Output is the raw result of one provider call, before sanitization.
type Output struct {
	Content    string
	TokensUsed int
}

// Adapter is the uniform wrapper around one generation backend. Adapters
// must not mutate shared state; their only side effect is the network call.
type Adapter interface {
	ID() types.ProviderID
	// Configured reports whether a credential is present. Generate must
	// return ErrNotConfigured without a network call when it is false.
	Configured() bool
	// TokenCeiling returns the per-call token limit for the tier.
	TokenCeiling(unrestricted bool) int
	Generate(ctx context.Context, in Input) (Output, error)
}

// ThreadCreator is implemented by adapters that keep durable server-side
// conversation threads.
type ThreadCreator interface {
	CreateThread(ctx context.Context) (string, error)
}

// microAnswers are short canned replies substituted when a provider call
// succeeds but returns no usable text.
var microAnswers = []string{
	"Please rephrase your question with a little more detail about the equipment involved, and I will give you a precise answer.",
	"I could not produce a useful answer for that phrasing. Try naming the machinery or system you are asking about.",
	"That one came back blank on my side. Ask again mentioning the maker and model if you know them.",
}

// resolveEmpty maps ErrEmptyContent to a randomized micro-answer so that an
// empty payload never surfaces as a provider failure.
func resolveEmpty(out Output, err error) (Output, error) {
	if err == nil {
		return out, nil
	}
	if errors.Is(err, ErrEmptyContent) {
		return Output{Content: microAnswers[rand.Intn(len(microAnswers))]}, nil
	}
	return out, err
}

// usableText reports whether raw model output contains anything worth
// returning.
func usableText(s string) bool {
	return strings.TrimSpace(s) != ""
}
