// Package orchestrate composes prompt building, provider calls, output
// sanitization and tier policy behind one deterministic contract: the caller
// always gets a GenerationResult, never a provider error.
package orchestrate

import (
	"context"
	"log/slog"
	"time"

	"github.com/qaaqit/qbot-gateway/internal/conversation"
	"github.com/qaaqit/qbot-gateway/internal/prompt"
	"github.com/qaaqit/qbot-gateway/internal/provider"
	"github.com/qaaqit/qbot-gateway/internal/sanitize"
	"github.com/qaaqit/qbot-gateway/internal/telemetry"
	"github.com/qaaqit/qbot-gateway/internal/tier"
	"github.com/qaaqit/qbot-gateway/internal/types"
)

// Orchestrator owns the provider fallback cascade. Dependencies are injected
// once at startup; nothing here is lazily initialized.
type Orchestrator struct {
	registry      *provider.Registry
	health        *provider.HealthTracker
	conversations *conversation.Store
	resolver      *tier.Resolver
	strategy      SelectionStrategy

	limits         func() tier.Limits
	attemptTimeout time.Duration
	metrics        *telemetry.Metrics
}

// Options configures an Orchestrator.
type Options struct {
	Registry       *provider.Registry
	Health         *provider.HealthTracker
	Conversations  *conversation.Store
	Resolver       *tier.Resolver
	Strategy       SelectionStrategy
	Limits         func() tier.Limits
	AttemptTimeout time.Duration
	Metrics        *telemetry.Metrics
}

func New(opts Options) *Orchestrator {
	if opts.Strategy == nil {
		opts.Strategy = PriorityStrategy{Default: types.ProviderOpenAI}
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = 45 * time.Second
	}
	if opts.Limits == nil {
		opts.Limits = func() tier.Limits { return tier.Limits{MinWords: 40, MaxWords: 150} }
	}
	return &Orchestrator{
		registry:       opts.Registry,
		health:         opts.Health,
		conversations:  opts.Conversations,
		resolver:       opts.Resolver,
		strategy:       opts.Strategy,
		limits:         opts.Limits,
		attemptTimeout: opts.AttemptTimeout,
		metrics:        opts.Metrics,
	}
}

// Respond runs the full pipeline for one request. Attempts are strictly
// sequential: one provider at a time, each tried at most once, each bounded
// by the attempt timeout. When the cascade is exhausted a static canned
// answer is returned instead of an error.
func (o *Orchestrator) Respond(ctx context.Context, req *types.GenerationRequest) *types.GenerationResult {
	return o.RespondWithTier(ctx, req, o.resolver.Resolve(ctx, req.Profile))
}

// RespondWithTier is Respond with the requester tier already resolved.
// Callers that need the tier before dispatch (the HTTP handler's quota gate)
// use this so the premium oracle is consulted once per request.
func (o *Orchestrator) RespondWithTier(ctx context.Context, req *types.GenerationRequest, requesterTier tier.Tier) *types.GenerationResult {
	system := prompt.Compose(req)

	tried := make(map[types.ProviderID]bool)
	current := o.strategy.First(req.PreferProvider, o.registry)

	for current != "" && !tried[current] {
		tried[current] = true

		if ctx.Err() != nil {
			// Caller abandoned the request; do not spend quota on the
			// remaining providers.
			break
		}

		adapter, ok := o.registry.Get(current)
		if !ok || !adapter.Configured() {
			current = nextProvider(current, tried, o.registry)
			continue
		}

		if o.health != nil && !o.health.IsAvailable(current) {
			o.recordAttempt(current, "circuit_open")
			current = nextProvider(current, tried, o.registry)
			continue
		}

		// A stateful provider needs a requester key to anchor its thread.
		// Anonymous requests skip it like an unconfigured backend; no
		// health failure, the provider was never contacted.
		if _, stateful := adapter.(provider.ThreadCreator); stateful && (o.conversations == nil || req.Profile.IdentityKey() == "") {
			o.recordAttempt(current, "no_thread")
			current = nextProvider(current, tried, o.registry)
			continue
		}

		out, latency, err := o.attempt(ctx, adapter, req, system, requesterTier)
		if err != nil {
			slog.Warn("provider attempt failed",
				"request_id", req.RequestID,
				"provider", current,
				"error", err,
			)
			if o.health != nil {
				o.health.RecordFailure(current)
			}
			o.recordAttempt(current, "error")
			current = nextProvider(current, tried, o.registry)
			continue
		}

		if o.health != nil {
			o.health.RecordSuccess(current)
		}
		o.recordAttempt(current, "ok")

		content := sanitize.Sanitize(out.Content)
		truncated := tier.Apply(requesterTier, content, o.limits())
		if o.metrics != nil && truncated != content {
			o.metrics.RecordTruncation(sanitize.HasBlock(truncated))
		}

		result := &types.GenerationResult{
			RequestID:  req.RequestID,
			Content:    truncated,
			Provider:   current,
			TokensUsed: out.TokensUsed,
			LatencyMs:  latency.Milliseconds(),
		}
		if o.metrics != nil {
			o.metrics.RecordResult(string(current), requesterTier.String(), req.Category, float64(result.LatencyMs), out.TokensUsed)
		}
		return result
	}

	slog.Warn("all providers exhausted, serving static fallback",
		"request_id", req.RequestID,
		"tried", len(tried),
	)
	if o.metrics != nil {
		o.metrics.RecordResult(string(types.ProviderFallback), requesterTier.String(), req.Category, 0, 0)
	}
	return &types.GenerationResult{
		RequestID: req.RequestID,
		Content:   staticFallback(),
		Provider:  types.ProviderFallback,
	}
}

// attempt runs one bounded provider call. The stateful provider goes through
// the conversation store so its thread handle survives across requests.
func (o *Orchestrator) attempt(ctx context.Context, adapter provider.Adapter, req *types.GenerationRequest, system string, requesterTier tier.Tier) (provider.Output, time.Duration, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
	defer cancel()

	in := provider.Input{
		System:    system,
		Message:   req.Message,
		History:   req.History,
		MaxTokens: adapter.TokenCeiling(requesterTier == tier.Unrestricted),
	}

	start := time.Now()
	var out provider.Output
	var err error

	// The cascade loop guarantees stateful adapters arrive here with a
	// conversation store and a non-empty requester key.
	if creator, stateful := adapter.(provider.ThreadCreator); stateful {
		err = o.conversations.WithThread(attemptCtx, req.Profile.IdentityKey(), creator.CreateThread, func(threadID string) error {
			in.ThreadID = threadID
			out, err = adapter.Generate(attemptCtx, in)
			return err
		})
	} else {
		out, err = adapter.Generate(attemptCtx, in)
	}

	return out, time.Since(start), err
}

func (o *Orchestrator) recordAttempt(id types.ProviderID, outcome string) {
	if o.metrics != nil {
		o.metrics.RecordAttempt(string(id), outcome)
	}
}
