package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/crmarques/boardprompt/config"
	"github.com/crmarques/boardprompt/server"
)

// sessionLifetime is assumed when the tracker does not report an expiry
// for a renewed session cookie.
const sessionLifetime = 12 * time.Hour

type authMode int

const (
	authModeUnknown authMode = iota
	authModeBasic
	authModeBearer
)

type authConfig struct {
	mode        authMode
	basicAuth   config.BasicAuth
	bearerToken config.BearerTokenAuth
}

func buildAuthConfig(cfg *config.Auth) (authConfig, error) {
	if cfg == nil {
		return authConfig{}, validationError("tracker.auth is required", nil)
	}

	setCount := 0
	if cfg.BasicAuth != nil {
		setCount++
	}
	if cfg.BearerToken != nil {
		setCount++
	}
	if setCount != 1 {
		return authConfig{}, validationError("tracker.auth must define exactly one auth mode", nil)
	}

	switch {
	case cfg.BasicAuth != nil:
		basic := *cfg.BasicAuth
		if basic.Username == "" || basic.Password == "" {
			return authConfig{}, validationError("tracker.auth.basic-auth requires username and password", nil)
		}
		return authConfig{mode: authModeBasic, basicAuth: basic}, nil
	case cfg.BearerToken != nil:
		bearer := *cfg.BearerToken
		if bearer.Token == "" {
			return authConfig{}, validationError("tracker.auth.bearer-token.token is required", nil)
		}
		return authConfig{mode: authModeBearer, bearerToken: bearer}, nil
	default:
		return authConfig{}, validationError("tracker.auth is invalid", nil)
	}
}

// applyAuth prefers a renewed session cookie over the configured
// credentials so every request after a renewal rides the fresh session.
func (g *TrackerGateway) applyAuth(request *http.Request) {
	g.sessionMu.Lock()
	token := g.sessionToken
	g.sessionMu.Unlock()

	if token != "" {
		request.AddCookie(&http.Cookie{Name: "JSESSIONID", Value: token})
		return
	}

	switch g.auth.mode {
	case authModeBasic:
		request.SetBasicAuth(g.auth.basicAuth.Username, g.auth.basicAuth.Password)
	case authModeBearer:
		request.Header.Set("Authorization", "Bearer "+g.auth.bearerToken.Token)
	}
}

// RenewCredential re-authenticates against the session endpoint and
// rotates the cookie used by subsequent requests. Bearer tokens are
// static and cannot be renewed here.
func (g *TrackerGateway) RenewCredential(ctx context.Context) (server.Credential, error) {
	if g.auth.mode != authModeBasic {
		return server.Credential{}, authError("only basic-auth sessions can be renewed", nil)
	}

	body, err := g.execute(ctx, requestSpec{
		method: http.MethodPost,
		path:   "/rest/auth/1/session",
		body: map[string]string{
			"username": g.auth.basicAuth.Username,
			"password": g.auth.basicAuth.Password,
		},
	})
	if err != nil {
		return server.Credential{}, err
	}

	var payload struct {
		Session struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"session"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return server.Credential{}, authError("session response is not valid JSON", err)
	}
	if strings.TrimSpace(payload.Session.Value) == "" {
		return server.Credential{}, authError("session response does not include a cookie value", nil)
	}

	g.sessionMu.Lock()
	g.sessionToken = payload.Session.Value
	g.sessionMu.Unlock()

	return server.Credential{
		Token:     payload.Session.Value,
		ExpiresAt: time.Now().Add(sessionLifetime),
	}, nil
}
