package types

import "time"

// Language selects the answer language for a generation request.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageTurkish Language = "tr"
)

// Valid reports whether the language is one of the supported values.
// An empty value is valid and means LanguageEnglish.
func (l Language) Valid() bool {
	return l == "" || l == LanguageEnglish || l == LanguageTurkish
}

// GenerationRequest is the canonical internal representation of an incoming
// QBOT question. It is built once by the HTTP handler and treated as
// immutable from there on.
type GenerationRequest struct {
	// Request content
	Message     string    `json:"message"`
	Category    string    `json:"category,omitempty"`
	Language    Language  `json:"language,omitempty"`
	ActiveRules string    `json:"active_rules,omitempty"`
	History     []Message `json:"history,omitempty"`

	// Routing
	PreferProvider ProviderID `json:"prefer_provider,omitempty"`

	// Requester identity (read-only; owned by the profile service)
	Profile ProfileRef `json:"profile"`

	// Internal tracking
	RequestID  string    `json:"-"`
	ReceivedAt time.Time `json:"-"`
}

// ProfileRef carries the requester fields the orchestration layer reads.
// It is a projection of the user-profile service's record, never written back.
type ProfileRef struct {
	UserID     string `json:"user_id"`
	Rank       string `json:"rank,omitempty"`
	ShipName   string `json:"ship_name,omitempty"`
	IsAdmin    bool   `json:"is_admin,omitempty"`
	IsPremium  bool   `json:"is_premium,omitempty"`
	WhatsAppID string `json:"whatsapp_id,omitempty"`
}

// IdentityKey returns the key used for tier resolution and conversation
// handles. WhatsApp-originated requests carry no user id.
func (p ProfileRef) IdentityKey() string {
	if p.UserID != "" {
		return p.UserID
	}
	return p.WhatsAppID
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)
