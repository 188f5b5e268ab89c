package campaign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// TokenCodec issues and validates guest self-service tokens. A token binds an
// RSVP id to an email address with an HMAC, so it stays valid across restarts
// and becomes useless the moment the stored email changes.
type TokenCodec struct {
	secret []byte
}

// NewTokenCodec builds a codec keyed with the configured secret.
func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{secret: []byte(secret)}
}

// Generate returns the token for an RSVP id and email pair.
func (c *TokenCodec) Generate(rsvpID, email string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(rsvpID + "\n" + strings.ToLower(strings.TrimSpace(email))))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Validate checks a presented token against the RSVP's current email.
// Malformed input simply fails validation; this never panics or errors.
func (c *TokenCodec) Validate(token, rsvpID, currentEmail string) bool {
	token = strings.TrimSpace(token)
	if token == "" || rsvpID == "" {
		return false
	}

	presented, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return false
	}

	expected, err := base64.RawURLEncoding.DecodeString(c.Generate(rsvpID, currentEmail))
	if err != nil {
		return false
	}

	return hmac.Equal(presented, expected)
}
