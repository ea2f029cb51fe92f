package prisma

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Credentials is the access key pair exchanged for a session token.
type Credentials struct {
	AccessKey string
	SecretKey string
}

// Session is an authenticated session. The token is never refreshed; a run that
// outlives it fails on whichever call first hits the expiry.
type Session struct {
	Token string
	// ExpiresAt is read from the token's exp claim when the token is a JWT.
	// It is zero when unknown.
	ExpiresAt time.Time
}

// Expired reports whether the session is known to have expired at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges the key pair for a session token.
func (c *Client) Login(ctx context.Context, creds Credentials) (*Session, error) {
	if creds.AccessKey == "" || creds.SecretKey == "" {
		return nil, fmt.Errorf("%w: access key and secret key are required", ErrAuthentication)
	}

	c.logger.Info("requesting session token", zap.String("endpoint", c.endpoints.Login))

	var resp loginResponse
	err := c.postJSON(ctx, "login", c.endpoints.Login, nil, loginRequest{
		Username: creds.AccessKey,
		Password: creds.SecretKey,
	}, &resp)
	if err != nil {
		c.logger.Error("login failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	if resp.Token == "" {
		c.logger.Error("login response did not contain a token")
		return nil, fmt.Errorf("%w: token not found in login response", ErrAuthentication)
	}

	session := &Session{Token: resp.Token}
	if exp, err := tokenExpiry(resp.Token); err == nil {
		session.ExpiresAt = exp
		c.logger.Info("obtained session token", zap.Time("expires_at", exp))
	} else {
		c.logger.Info("obtained session token")
		c.logger.Debug("session token expiry unknown", zap.Error(err))
	}
	return session, nil
}

// tokenExpiry reads the exp claim without verifying the signature; the key is
// only known to the API.
func tokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, errors.New("token has no exp claim")
	}
	return exp.Time, nil
}
