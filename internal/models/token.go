package models

import (
	"fmt"
	"time"
)

// Token is a persisted OAuth2 token for one provider.
type Token struct {
	id           string
	sequence     int
	provider     string
	accessToken  string
	refreshToken string
	tokenType    string
	expiry       time.Time
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

// NewToken creates an unsaved token for provider.
func NewToken(provider, accessToken, refreshToken, tokenType string, expiry time.Time) *Token {
	now := time.Now()
	return &Token{
		provider:     provider,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		tokenType:    tokenType,
		expiry:       expiry,
		createdAt:    now,
		updatedAt:    now,
	}
}

func (t *Token) ID() string            { return t.id }
func (t *Token) Sequence() int         { return t.sequence }
func (t *Token) Provider() string      { return t.provider }
func (t *Token) AccessToken() string   { return t.accessToken }
func (t *Token) RefreshToken() string  { return t.refreshToken }
func (t *Token) TokenType() string     { return t.tokenType }
func (t *Token) Expiry() time.Time     { return t.expiry }
func (t *Token) CreatedAt() time.Time  { return t.createdAt }
func (t *Token) UpdatedAt() time.Time  { return t.updatedAt }
func (t *Token) DeletedAt() *time.Time { return t.deletedAt }

func (t *Token) SetID(id string)            { t.id = id }
func (t *Token) SetSequence(seq int)        { t.sequence = seq }
func (t *Token) SetCreatedAt(ts time.Time)  { t.createdAt = ts }
func (t *Token) SetUpdatedAt(ts time.Time)  { t.updatedAt = ts }
func (t *Token) SetDeletedAt(ts *time.Time) { t.deletedAt = ts }
func (t *Token) SetAccessToken(v string)    { t.accessToken = v }
func (t *Token) SetTokenType(v string)      { t.tokenType = v }
func (t *Token) SetExpiry(ts time.Time)     { t.expiry = ts }

// SetRefreshToken replaces the refresh token unless v is empty.
//
// Refresh responses usually omit the refresh token.
func (t *Token) SetRefreshToken(v string) {
	if v != "" {
		t.refreshToken = v
	}
}

// Validate checks required fields.
func (t *Token) Validate() error {
	if t.provider == "" {
		return fmt.Errorf("provider is required")
	}
	if t.accessToken == "" {
		return fmt.Errorf("access token is required")
	}
	return nil
}
