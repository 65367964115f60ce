package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/qaaqit/qbot-gateway/internal/config"
	"github.com/qaaqit/qbot-gateway/internal/httputil"
	"github.com/qaaqit/qbot-gateway/internal/orchestrate"
	"github.com/qaaqit/qbot-gateway/internal/provider"
	"github.com/qaaqit/qbot-gateway/internal/tier"
	"github.com/qaaqit/qbot-gateway/internal/types"
)

// Handler holds dependencies for the gateway HTTP handlers.
type Handler struct {
	orchestrator *orchestrate.Orchestrator
	registry     *provider.Registry
	resolver     *tier.Resolver
	quota        *tier.QuotaTracker
	cfg          func() *config.Config
}

func NewHandler(orchestrator *orchestrate.Orchestrator, registry *provider.Registry, resolver *tier.Resolver, quota *tier.QuotaTracker, cfg func() *config.Config) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		registry:     registry,
		resolver:     resolver,
		quota:        quota,
		cfg:          cfg,
	}
}

// quotaExceededAnswer is returned in place of a generated answer when a
// free-tier requester has used up the daily allowance. Still a valid
// GenerationResult: the caller never sees an error for this.
const quotaExceededAnswer = "You have used today's free question allowance. " +
	"Your allowance renews over the next 24 hours, or upgrade to premium for unlimited questions."

// Respond handles POST /v1/respond.
func (h *Handler) Respond(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")
	receivedAt := time.Now()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.WriteBadRequestError(w, reqID, "Failed to read request body")
		return
	}
	defer r.Body.Close()

	var req types.GenerationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httputil.WriteBadRequestError(w, reqID, "Invalid JSON: "+err.Error())
		return
	}

	// Malformed input is the only caller-visible failure mode.
	if strings.TrimSpace(req.Message) == "" {
		httputil.WriteBadRequestError(w, reqID, "message is required")
		return
	}
	if !req.Language.Valid() {
		httputil.WriteBadRequestError(w, reqID, "language must be en or tr")
		return
	}

	req.RequestID = reqID
	req.ReceivedAt = receivedAt

	// Resolved once here and handed to the pipeline, so the premium
	// oracle is consulted at most once per request.
	requesterTier := h.resolver.Resolve(r.Context(), req.Profile)

	// Free-tier daily allowance. Best-effort: a quota backend failure
	// never blocks the answer.
	if h.quota != nil && requesterTier == tier.RateLimited {
		limit := h.cfg().Tier.DailyQuestions
		res, _ := h.quota.Check(r.Context(), req.Profile.IdentityKey(), limit)
		if !res.Allowed {
			slog.Info("daily question allowance exhausted",
				"request_id", reqID,
				"identity", req.Profile.IdentityKey(),
			)
			writeResult(w, &types.GenerationResult{
				RequestID: reqID,
				Content:   quotaExceededAnswer,
				Provider:  types.ProviderQuota,
			})
			return
		}
	}

	result := h.orchestrator.RespondWithTier(r.Context(), &req, requesterTier)

	slog.Info("request completed",
		"request_id", reqID,
		"provider", result.Provider,
		"category", req.Category,
		"tokens_used", result.TokensUsed,
		"latency_ms", result.LatencyMs,
		"duration_ms", time.Since(receivedAt).Milliseconds(),
	)

	writeResult(w, result)
}

// ListProviders handles GET /v1/providers.
func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	var list []providerObject
	for _, id := range types.AllProviders {
		list = append(list, providerObject{
			ID:         string(id),
			Configured: h.registry.Configured(id),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(providerListResponse{Providers: list})
}

func writeResult(w http.ResponseWriter, result *types.GenerationResult) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

type providerObject struct {
	ID         string `json:"id"`
	Configured bool   `json:"configured"`
}

type providerListResponse struct {
	Providers []providerObject `json:"providers"`
}
