package gims

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	c, err := NewClient(Config{
		URL:          ts.URL,
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		VerifySSL:    true,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func signedJWT(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"no url", Config{AccessToken: "a", RefreshToken: "r"}, ErrURLRequired},
		{"no access token", Config{URL: "https://x", RefreshToken: "r"}, ErrAccessTokenRequired},
		{"no refresh token", Config{URL: "https://x", AccessToken: "a"}, ErrRefreshTokenRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClient(tt.cfg); !errors.Is(err, tt.want) {
				t.Errorf("NewClient error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRequestClassification(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantClass  error
		wantDetail string
	}{
		{
			name: "permission denied",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
			wantClass: ErrPermissionDenied,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantClass: ErrNotFound,
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				io.WriteString(w, "plain text")
			},
			wantClass: ErrNotJSON,
		},
		{
			name: "bad json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, "{truncated")
			},
			wantClass: ErrBadJSON,
		},
		{
			name: "server error with json detail",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				io.WriteString(w, `{"detail": "database is down"}`)
			},
			wantDetail: "database is down",
		},
		{
			name: "server error with html page",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.WriteHeader(http.StatusBadGateway)
				io.WriteString(w, "<html><head><title>502 Bad Gateway</title></head><body><h1>nginx</h1></body></html>")
			},
			wantDetail: "502 Bad Gateway",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			_, err := c.Request(t.Context(), http.MethodGet, "/scripts/script/", nil, nil)
			if err == nil {
				t.Fatal("Request: got nil error")
			}
			if tt.wantClass != nil && !errors.Is(err, tt.wantClass) {
				t.Errorf("error = %v, want class %v", err, tt.wantClass)
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error is %T, want *APIError", err)
			}
			if tt.wantDetail != "" && apiErr.Detail != tt.wantDetail {
				t.Errorf("Detail = %q, want %q", apiErr.Detail, tt.wantDetail)
			}
			if strings.Contains(apiErr.Detail, "<") {
				t.Errorf("Detail %q carries markup", apiErr.Detail)
			}
		})
	}
}

func TestRequestNoContent(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	raw, err := c.Request(t.Context(), http.MethodDelete, "/scripts/script/1/", nil, nil)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if raw != nil {
		t.Errorf("raw = %q, want nil", raw)
	}
}

func TestRequestRefreshesOnceOn401(t *testing.T) {
	var apiCalls, refreshCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/automation/scripts/script/", func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		auth := r.Header.Get("Authorization")
		if auth != "Bearer access-2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[]`)
	})
	mux.HandleFunc("/security/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["refresh"] != "refresh-1" {
			t.Errorf("refresh body = %v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access": "access-2", "refresh": "refresh-2"}`)
	})
	c := newTestClient(t, mux)

	if _, err := c.Request(t.Context(), http.MethodGet, "/scripts/script/", nil, nil); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if got := apiCalls.Load(); got != 2 {
		t.Errorf("api calls = %d, want 2", got)
	}
	if got := refreshCalls.Load(); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}

	// The rotated pair is kept for subsequent calls.
	if got := c.accessToken(); got != "access-2" {
		t.Errorf("access token = %q, want access-2", got)
	}
	if _, err := c.Request(t.Context(), http.MethodGet, "/scripts/script/", nil, nil); err != nil {
		t.Fatalf("second Request: %v", err)
	}
	if got := refreshCalls.Load(); got != 1 {
		t.Errorf("refresh calls after second request = %d, want 1", got)
	}
}

func TestRequestSecond401IsNotRetried(t *testing.T) {
	var apiCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/automation/", func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/security/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access": "access-2"}`)
	})
	c := newTestClient(t, mux)

	_, err := c.Request(t.Context(), http.MethodGet, "/scripts/script/", nil, nil)
	if !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("error = %v, want ErrAuthFailed", err)
	}
	if got := apiCalls.Load(); got != 2 {
		t.Errorf("api calls = %d, want 2", got)
	}
}

func TestRequestRejectedRefreshStopsChain(t *testing.T) {
	var apiCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/automation/", func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/security/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	c := newTestClient(t, mux)

	_, err := c.Request(t.Context(), http.MethodGet, "/scripts/script/", nil, nil)
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("error = %v, want ErrAuth", err)
	}
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error is %T, want *AuthError", err)
	}
	if got := apiCalls.Load(); got != 1 {
		t.Errorf("api calls = %d, want 1 (no retry after rejected refresh)", got)
	}
}

func TestRequestProactiveRefreshOfExpiredJWT(t *testing.T) {
	var sawOldToken atomic.Bool
	expired := ""
	mux := http.NewServeMux()
	mux.HandleFunc("/automation/scripts/script/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer "+expired {
			sawOldToken.Store(true)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[]`)
	})
	mux.HandleFunc("/security/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access": "access-fresh"}`)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	expired = signedJWT(t, time.Now().Add(-time.Hour))
	c, err := NewClient(Config{
		URL:          ts.URL,
		AccessToken:  expired,
		RefreshToken: "refresh-1",
		VerifySSL:    true,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := c.Request(t.Context(), http.MethodGet, "/scripts/script/", nil, nil); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if sawOldToken.Load() {
		t.Error("expired token reached the API")
	}
	if got := c.accessToken(); got != "access-fresh" {
		t.Errorf("access token = %q, want access-fresh", got)
	}
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	if tokenExpired("opaque-token", now) {
		t.Error("opaque token reported expired")
	}
	if tokenExpired(signedJWT(t, now.Add(time.Hour)), now) {
		t.Error("future JWT reported expired")
	}
	if !tokenExpired(signedJWT(t, now.Add(-time.Hour)), now) {
		t.Error("past JWT not reported expired")
	}
}

func TestSanitizeHTML(t *testing.T) {
	tests := []struct {
		name string
		page string
		want string
	}{
		{
			name: "title wins",
			page: "<html><head><title>  502  Bad   Gateway </title></head><body></body></html>",
			want: "502 Bad Gateway",
		},
		{
			name: "no title strips tags",
			page: "<html><body><h1>Server Error</h1><p>try later</p></body></html>",
			want: "Server Error try later",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeHTML(tt.page); got != tt.want {
				t.Errorf("sanitizeHTML = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompactTextTruncates(t *testing.T) {
	got := compactText(strings.Repeat("x", 500))
	if len([]rune(got)) != maxDetailLen+3 {
		t.Errorf("len = %d, want %d", len([]rune(got)), maxDetailLen+3)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("got %q, want ... suffix", got)
	}
}

func TestScriptLogURLForms(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bare string", `"https://gims.example/logs/7"`, "https://gims.example/logs/7"},
		{"wrapped object", `{"url": "https://gims.example/logs/7"}`, "https://gims.example/logs/7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/automation/scripts/script_log_url/7/" {
					t.Errorf("path = %q", r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, tt.body)
			}))
			got, err := c.ScriptLogURL(t.Context(), 7)
			if err != nil {
				t.Fatalf("ScriptLogURL: %v", err)
			}
			if got != tt.want {
				t.Errorf("url = %q, want %q", got, tt.want)
			}
		})
	}
}
