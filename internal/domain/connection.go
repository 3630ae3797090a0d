package domain

import "time"

// Credential is the token bundle stored for a connection.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// Expiring reports whether the credential expires within margin of now.
// Credentials without an expiry never expire.
func (c Credential) Expiring(now time.Time, margin time.Duration) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(margin).Before(c.ExpiresAt)
}

// Expired reports whether the credential is past its expiry.
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

type Connection struct {
	ID         int64
	OwnerID    string
	Platform   Platform
	Credential Credential
	Settings   map[string]string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	RevokedAt  *time.Time
}

func (c *Connection) Active() bool {
	return c.RevokedAt == nil
}

// Setting returns the named platform setting or def when unset.
func (c *Connection) Setting(key, def string) string {
	if v, ok := c.Settings[key]; ok && v != "" {
		return v
	}
	return def
}
