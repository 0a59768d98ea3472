// Package session handles authentication against the auth service and
// caches the resulting cookies for the whole test run, mirroring the
// session-scoped fixtures of the suite.
package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/bengeek06/waterfall-e2e/internal/client"
	"github.com/bengeek06/waterfall-e2e/internal/config"
)

// UserInfo is the payload of GET /api/auth/verify.
type UserInfo struct {
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id"`
	Email     string `json:"email"`
}

// Session is an authenticated gateway session: the token cookies plus the
// identity they belong to.
type Session struct {
	Client  *client.Client
	Cookies map[string]string
	User    UserInfo
}

// Open logs in with the configured credentials and resolves the caller's
// identity through /api/auth/verify.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Session, error) {
	c, err := client.New(cfg.WebURL, cfg.HTTPTimeout, log)
	if err != nil {
		return nil, err
	}

	if ok := c.WaitForAPI(ctx, "/api/auth/health", cfg.WaitTimeout); !ok {
		return nil, fmt.Errorf("auth API not reachable at %s", cfg.WebURL)
	}

	resp, err := c.PostJSON(ctx, "/api/auth/login", map[string]string{
		"email":    cfg.Login,
		"password": cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("login request: %w", err)
	}
	if resp.Status != http.StatusOK {
		return nil, fmt.Errorf("login failed with status %d: %s", resp.Status, resp.Text())
	}

	cookies := c.Cookies()
	if cookies["access_token"] == "" {
		return nil, fmt.Errorf("no access_token cookie after login, got %v", cookieNames(cookies))
	}

	verify, err := c.Get(ctx, "/api/auth/verify", nil)
	if err != nil {
		return nil, fmt.Errorf("verify request: %w", err)
	}
	if verify.Status != http.StatusOK {
		return nil, fmt.Errorf("verify failed with status %d: %s", verify.Status, verify.Text())
	}

	var user UserInfo
	if err := verify.JSON(&user); err != nil {
		return nil, fmt.Errorf("decode verify payload: %w", err)
	}

	return &Session{Client: c, Cookies: cookies, User: user}, nil
}

// AccessToken returns the raw access token cookie value.
func (s *Session) AccessToken() string { return s.Cookies["access_token"] }

// RefreshToken returns the raw refresh token cookie value.
func (s *Session) RefreshToken() string { return s.Cookies["refresh_token"] }

// Claims decodes a JWT without verifying its signature. The suites use it
// to cross-check that the token claims match what /verify reports; the
// signature belongs to the service under test, not to us.
func Claims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

var (
	sharedMu sync.Mutex
	shared   = map[string]*Session{}
)

// Shared returns a process-wide cached session for the configuration,
// logging in at most once per gateway+login pair.
func Shared(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Session, error) {
	key := cfg.WebURL + "|" + cfg.Login

	sharedMu.Lock()
	defer sharedMu.Unlock()

	if s, ok := shared[key]; ok {
		return s, nil
	}

	// A bounded context so a dead deployment cannot hang every suite.
	openCtx, cancel := context.WithTimeout(ctx, cfg.WaitTimeout+30*time.Second)
	defer cancel()

	s, err := Open(openCtx, cfg, log)
	if err != nil {
		return nil, err
	}
	shared[key] = s
	return s, nil
}

func cookieNames(cookies map[string]string) []string {
	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	return names
}
