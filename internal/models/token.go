package models

import "time"

// ApiToken represents a verified bearer token and the user it belongs to.
// Token issuance happens elsewhere; this service only verifies.
type ApiToken struct {
	ID         int64      `json:"id"`
	UserID     string     `json:"user_id"`
	Token      string     `json:"-"` // Never serialize
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// MaskedToken returns first 8 characters of the token for logging
func (t *ApiToken) MaskedToken() string {
	if len(t.Token) < 8 {
		return "***"
	}
	return t.Token[:8] + "..."
}
