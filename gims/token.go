package gims

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// refreshAccess exchanges the refresh token for a new access token. The
// exchange goes through the fixed refresh endpoint with a bare client,
// independent of the main connection context and its credentials.
//
// usedAccess is the access token the failed request was sent with: if
// another in-flight call already rotated the credentials, the exchange is
// skipped and the caller simply retries with the fresh token.
//
// A 401 from the refresh endpoint means the refresh token itself is invalid
// or expired; that is unrecoverable and reported as *AuthError. The retry
// chain never loops further.
func (c *Client) refreshAccess(ctx context.Context, usedAccess string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.access != usedAccess {
		// Someone else refreshed while we waited for the lock.
		return nil
	}

	payload, err := json.Marshal(map[string]string{"refresh": c.refresh})
	if err != nil {
		return fmt.Errorf("gims: encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.altURL+refreshPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("gims: build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := newHTTPClient(c.verifySSL, c.timeout).Do(req)
	if err != nil {
		return &AuthError{Detail: fmt.Sprintf("token refresh failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return &AuthError{Detail: "refresh token invalid or expired"}
	}
	if resp.StatusCode >= 400 {
		return &AuthError{Detail: fmt.Sprintf("token refresh returned HTTP %d", resp.StatusCode)}
	}

	var tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &AuthError{Detail: fmt.Sprintf("read refresh response: %v", err)}
	}
	if err := json.Unmarshal(data, &tokens); err != nil || tokens.Access == "" {
		return &AuthError{Detail: "refresh response carried no access token"}
	}

	c.access = tokens.Access
	if tokens.Refresh != "" {
		// The server rotated the refresh token as well.
		c.refresh = tokens.Refresh
	}
	return nil
}

// tokenExpired reports whether access is a parseable JWT whose exp claim has
// already passed. Opaque or claimless tokens are never considered expired;
// the reactive 401 path handles those.
func tokenExpired(access string, now time.Time) bool {
	token, _, err := jwt.NewParser().ParseUnverified(access, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
