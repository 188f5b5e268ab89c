package app

import (
	iauth "github.com/rsvphq/guestlist/internal/auth"
	"github.com/rsvphq/guestlist/internal/database"
)

// SessionServiceConfig converts AuthConfig into SessionService parameters.
func (c AuthConfig) SessionServiceConfig() iauth.SessionConfig {
	ttl := c.Session.TTL
	if ttl <= 0 {
		ttl = iauth.DefaultSessionTTL
	}

	rememberTTL := c.Session.RememberTTL
	if rememberTTL <= 0 {
		rememberTTL = iauth.DefaultRememberTTL
	}

	length := c.Session.TokenLength
	if length <= 0 {
		length = 48
	}

	return iauth.SessionConfig{
		SessionTTL:  ttl,
		RememberTTL: rememberTTL,
		TokenLength: length,
	}
}

// BootstrapAdmin converts the bootstrap settings into database seed parameters.
func (c AuthConfig) BootstrapAdmin() database.BootstrapAdmin {
	return database.BootstrapAdmin{
		Email:    c.Bootstrap.Email,
		Password: c.Bootstrap.Password,
		Name:     c.Bootstrap.Name,
	}
}
