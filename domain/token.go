package domain

import "time"

// TokenTypeBearer is the scheme reported to clients alongside issued tokens.
const TokenTypeBearer = "bearer"

// TokenPair is the result of a successful login or refresh. RefreshExpiresAt
// sets the refresh cookie's max-age.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	RefreshExpiresAt time.Time `json:"-"`
}

// RefreshMaxAge returns the remaining refresh lifetime relative to reference.
func (p *TokenPair) RefreshMaxAge(reference time.Time) time.Duration {
	if p == nil {
		return 0
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	remaining := p.RefreshExpiresAt.Sub(reference)
	if remaining < 0 {
		return 0
	}
	return remaining
}
