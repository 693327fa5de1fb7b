// Package config resolves server settings from command line flags and
// environment variables. Flags win over the environment; the environment
// seeds the flag defaults so either channel works alone.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gimsops/gims-mcp/govern"
	"github.com/gimsops/gims-mcp/tools"
)

// Environment variable names.
const (
	EnvURL               = "GIMS_URL"
	EnvAccessToken       = "GIMS_ACCESS_TOKEN"
	EnvRefreshToken      = "GIMS_REFRESH_TOKEN"
	EnvVerifySSL         = "GIMS_VERIFY_SSL"
	EnvMaxResponseSizeKB = "GIMS_MAX_RESPONSE_SIZE_KB"
	EnvLogStreamTimeout  = "GIMS_LOG_STREAM_TIMEOUT"
	EnvDebug             = "GIMS_DEBUG"
)

// Config holds the resolved server settings.
type Config struct {
	// URL is the GIMS instance base URL, without the /automation suffix.
	URL string

	// AccessToken and RefreshToken are the bearer credential pair.
	AccessToken  string
	RefreshToken string

	// VerifySSL controls TLS certificate verification. Default: true.
	VerifySSL bool

	// MaxResponseSizeKB caps tool response sizes in kilobytes.
	MaxResponseSizeKB int

	// LogStreamTimeout is the default bound on log collection.
	LogStreamTimeout time.Duration

	// Debug enables debug-level logging.
	Debug bool
}

// Load parses args (without the program name) and the environment into a
// Config. Missing required settings are reported with both the flag and
// the environment variable that would satisfy them.
func Load(args []string) (*Config, error) {
	env, err := readEnv()
	if err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("gims-mcp", flag.ContinueOnError)
	cfg := &Config{}
	fs.StringVar(&cfg.URL, "url", env.url, "GIMS instance URL ("+EnvURL+")")
	fs.StringVar(&cfg.AccessToken, "access-token", env.accessToken, "API access token ("+EnvAccessToken+")")
	fs.StringVar(&cfg.RefreshToken, "refresh-token", env.refreshToken, "API refresh token ("+EnvRefreshToken+")")
	fs.BoolVar(&cfg.VerifySSL, "verify-ssl", env.verifySSL, "verify TLS certificates ("+EnvVerifySSL+")")
	fs.IntVar(&cfg.MaxResponseSizeKB, "max-response-size-kb", env.maxResponseKB, "tool response size limit in KB ("+EnvMaxResponseSizeKB+")")
	fs.DurationVar(&cfg.LogStreamTimeout, "log-stream-timeout", env.logStreamTimeout, "default log collection timeout ("+EnvLogStreamTimeout+", seconds)")
	fs.BoolVar(&cfg.Debug, "debug", env.debug, "enable debug logging ("+EnvDebug+")")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.URL == "" {
		return nil, fmt.Errorf("config: GIMS URL is required (pass --url or set %s)", EnvURL)
	}
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("config: access token is required (pass --access-token or set %s)", EnvAccessToken)
	}
	if cfg.RefreshToken == "" {
		return nil, fmt.Errorf("config: refresh token is required (pass --refresh-token or set %s)", EnvRefreshToken)
	}
	return cfg, nil
}

// envDefaults holds flag defaults read from the environment.
type envDefaults struct {
	url              string
	accessToken      string
	refreshToken     string
	verifySSL        bool
	maxResponseKB    int
	logStreamTimeout time.Duration
	debug            bool
}

func readEnv() (*envDefaults, error) {
	env := &envDefaults{
		url:              os.Getenv(EnvURL),
		accessToken:      os.Getenv(EnvAccessToken),
		refreshToken:     os.Getenv(EnvRefreshToken),
		verifySSL:        true,
		maxResponseKB:    govern.DefaultMaxKB,
		logStreamTimeout: tools.DefaultLogStreamTimeout,
	}

	var err error
	if env.verifySSL, err = envBool(EnvVerifySSL, env.verifySSL); err != nil {
		return nil, err
	}
	if env.debug, err = envBool(EnvDebug, env.debug); err != nil {
		return nil, err
	}
	if v := os.Getenv(EnvMaxResponseSizeKB); v != "" {
		kb, err := strconv.Atoi(v)
		if err != nil || kb <= 0 {
			return nil, fmt.Errorf("config: %s must be a positive integer, got %q", EnvMaxResponseSizeKB, v)
		}
		env.maxResponseKB = kb
	}
	if v := os.Getenv(EnvLogStreamTimeout); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("config: %s must be a positive number of seconds, got %q", EnvLogStreamTimeout, v)
		}
		env.logStreamTimeout = time.Duration(secs) * time.Second
	}
	return env, nil
}

func envBool(name string, fallback bool) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s must be a boolean, got %q", name, v)
	}
	return b, nil
}
