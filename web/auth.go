package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"prizedraw/config"
	"prizedraw/domain/interfaces"
)

// Role names accepted by the route guards.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// tokenClaims is the signed body of an operator token. ExpiresAt is a
// millisecond epoch.
type tokenClaims struct {
	Username  string `json:"user"`
	Role      string `json:"role"`
	ExpiresAt int64  `json:"exp"`
}

// Authenticator issues and verifies signed operator tokens. A token is the
// base64-encoded claims, a dot, and the hex HMAC-SHA256 of that encoding.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	users  []config.UserCredential
	clock  interfaces.Clock
}

// NewAuthenticator builds an authenticator from the static operator list.
func NewAuthenticator(cfg *config.Config, clock interfaces.Clock) *Authenticator {
	return &Authenticator{
		secret: []byte(cfg.TokenSecret),
		ttl:    time.Duration(cfg.TokenTTLHours) * time.Hour,
		users:  cfg.Users,
		clock:  clock,
	}
}

// Login checks the credentials and returns a fresh token with its role.
func (a *Authenticator) Login(username, password string) (token, role string, err error) {
	for _, u := range a.users {
		if u.Username == username && u.Password == password {
			tok, err := a.issue(u.Username, u.Role)
			if err != nil {
				return "", "", err
			}
			return tok, u.Role, nil
		}
	}
	return "", "", fmt.Errorf("invalid credentials")
}

func (a *Authenticator) issue(username, role string) (string, error) {
	claims := tokenClaims{
		Username:  username,
		Role:      role,
		ExpiresAt: a.clock.Now().Add(a.ttl).UnixMilli(),
	}
	body, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal token claims: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(body)
	return encoded + "." + a.sign(encoded), nil
}

// Verify parses and validates a token, returning its claims.
func (a *Authenticator) Verify(token string) (*tokenClaims, error) {
	encoded, sig, found := strings.Cut(token, ".")
	if !found {
		return nil, fmt.Errorf("malformed token")
	}
	expected := a.sign(encoded)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return nil, fmt.Errorf("bad token signature")
	}
	body, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("malformed token body: %w", err)
	}
	var claims tokenClaims
	if err := json.Unmarshal(body, &claims); err != nil {
		return nil, fmt.Errorf("malformed token claims: %w", err)
	}
	if a.clock.Now().UnixMilli() >= claims.ExpiresAt {
		return nil, fmt.Errorf("token expired")
	}
	return &claims, nil
}

func (a *Authenticator) sign(encoded string) string {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(encoded))
	return hex.EncodeToString(mac.Sum(nil))
}
