package config

import (
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		EnvURL, EnvAccessToken, EnvRefreshToken,
		EnvVerifySSL, EnvMaxResponseSizeKB, EnvLogStreamTimeout, EnvDebug,
	} {
		t.Setenv(name, "")
	}
}

func TestLoadFromFlags(t *testing.T) {
	clearEnv(t)

	cfg, err := Load([]string{
		"--url", "https://gims.example",
		"--access-token", "a",
		"--refresh-token", "r",
		"--max-response-size-kb", "25",
		"--debug",
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.URL != "https://gims.example" {
		t.Errorf("URL = %q", cfg.URL)
	}
	if !cfg.VerifySSL {
		t.Error("VerifySSL = false, want default true")
	}
	if cfg.MaxResponseSizeKB != 25 {
		t.Errorf("MaxResponseSizeKB = %d, want 25", cfg.MaxResponseSizeKB)
	}
	if cfg.LogStreamTimeout != 60*time.Second {
		t.Errorf("LogStreamTimeout = %v, want 60s", cfg.LogStreamTimeout)
	}
	if !cfg.Debug {
		t.Error("Debug = false")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvURL, "https://gims.example")
	t.Setenv(EnvAccessToken, "a")
	t.Setenv(EnvRefreshToken, "r")
	t.Setenv(EnvVerifySSL, "false")
	t.Setenv(EnvLogStreamTimeout, "120")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.VerifySSL {
		t.Error("VerifySSL = true, want false from env")
	}
	if cfg.LogStreamTimeout != 120*time.Second {
		t.Errorf("LogStreamTimeout = %v, want 120s", cfg.LogStreamTimeout)
	}
}

func TestFlagsWinOverEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvURL, "https://env.example")
	t.Setenv(EnvAccessToken, "a")
	t.Setenv(EnvRefreshToken, "r")

	cfg, err := Load([]string{"--url", "https://flag.example"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.URL != "https://flag.example" {
		t.Errorf("URL = %q, want the flag value", cfg.URL)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"url", nil, EnvURL},
		{"access token", []string{"--url", "https://gims.example"}, EnvAccessToken},
		{"refresh token", []string{"--url", "https://gims.example", "--access-token", "a"}, EnvRefreshToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args)
			if err == nil {
				t.Fatal("Load: got nil error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not name %s", err, tt.want)
			}
		})
	}
}

func TestLoadRejectsBadEnvValues(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvURL, "https://gims.example")
	t.Setenv(EnvAccessToken, "a")
	t.Setenv(EnvRefreshToken, "r")
	t.Setenv(EnvMaxResponseSizeKB, "lots")

	if _, err := Load(nil); err == nil {
		t.Error("Load with bad size: got nil error")
	}

	t.Setenv(EnvMaxResponseSizeKB, "10")
	t.Setenv(EnvVerifySSL, "maybe")
	if _, err := Load(nil); err == nil {
		t.Error("Load with bad bool: got nil error")
	}
}
