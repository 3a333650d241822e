// Package config handles loading and validation of storefront configuration.
// Supports both development (env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"golang.org/x/mod/semver"
)

// TLS fingerprints for the backend transport.
const (
	FingerprintStandard = "standard"
	FingerprintChrome   = "chrome"
)

const (
	defaultAPIVersion     = "v1"
	defaultSearchDebounce = 500 * time.Millisecond
	defaultHTTPTimeout    = 30 * time.Second
)

// Config holds all storefront configuration.
// Environment determines whether backend settings load from env vars
// (development) or Secret Manager (production).
type Config struct {
	// Server settings (daemon only)
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject   string
	StorefrontID string

	// SessionFile is where the logged-in session is persisted.
	SessionFile string

	// SearchDebounce is the quiet period before a typed search runs.
	SearchDebounce time.Duration

	// HTTPTimeout bounds every backend call.
	HTTPTimeout time.Duration

	Backend BackendConfig
}

// BackendConfig locates the storefront backend.
// In production, this is loaded from Secret Manager as JSON.
type BackendConfig struct {
	URL            string `json:"url"`
	APIVersion     string `json:"api_version"`     // semver major, e.g. "v1"
	TLSFingerprint string `json:"tls_fingerprint"` // "standard" or "chrome"
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars / Secret Manager.
func Load(ctx context.Context) (*Config, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Port:         envOrDefault("PORT", "8080"),
		Environment:  envOrDefault("ENVIRONMENT", "development"),
		LogLevel:     envOrDefault("LOG_LEVEL", "info"),
		GCPProject:   os.Getenv("GCP_PROJECT"),
		StorefrontID: os.Getenv("STOREFRONT_ID"),
		SessionFile:  os.Getenv("STOREFRONT_SESSION_FILE"),
	}

	var err error
	if cfg.SearchDebounce, err = durationFromEnv("STOREFRONT_SEARCH_DEBOUNCE"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = durationFromEnv("HTTP_TIMEOUT"); err != nil {
		return nil, err
	}

	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if cfg.StorefrontID == "" {
			return nil, fmt.Errorf("STOREFRONT_ID required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading backend config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig struct {
		Port           string        `json:"port"`
		Environment    string        `json:"environment"`
		LogLevel       string        `json:"log_level"`
		SessionFile    string        `json:"session_file"`
		SearchDebounce string        `json:"search_debounce"`
		HTTPTimeout    string        `json:"http_timeout"`
		Backend        BackendConfig `json:"backend"`
	}

	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:        withDefault(fileConfig.Port, "8080"),
		Environment: withDefault(fileConfig.Environment, "development"),
		LogLevel:    withDefault(fileConfig.LogLevel, "info"),
		SessionFile: fileConfig.SessionFile,
		Backend:     fileConfig.Backend,
	}
	if cfg.SearchDebounce, err = parseDuration("search_debounce", fileConfig.SearchDebounce); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = parseDuration("http_timeout", fileConfig.HTTPTimeout); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromSecretManager fetches backend config from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{storefront_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.StorefrontID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Backend); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}
	return nil
}

// loadFromEnv reads backend config from individual environment variables.
func (c *Config) loadFromEnv() {
	c.Backend = BackendConfig{
		URL:            os.Getenv("STOREFRONT_BACKEND_URL"),
		APIVersion:     os.Getenv("STOREFRONT_API_VERSION"),
		TLSFingerprint: os.Getenv("STOREFRONT_TLS_FINGERPRINT"),
	}
}

func (c *Config) applyDefaults() {
	c.Backend.APIVersion = withDefault(c.Backend.APIVersion, defaultAPIVersion)
	if !strings.HasPrefix(c.Backend.APIVersion, "v") {
		c.Backend.APIVersion = "v" + c.Backend.APIVersion
	}
	c.Backend.TLSFingerprint = withDefault(c.Backend.TLSFingerprint, FingerprintStandard)
	if c.SearchDebounce <= 0 {
		c.SearchDebounce = defaultSearchDebounce
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = defaultHTTPTimeout
	}
	if c.SessionFile == "" {
		c.SessionFile = defaultSessionFile()
	}
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("backend url is required")
	}
	u, err := url.Parse(c.Backend.URL)
	if err != nil {
		return fmt.Errorf("invalid backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid backend url: scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("invalid backend url: missing host")
	}

	if !semver.IsValid(c.Backend.APIVersion) {
		return fmt.Errorf("invalid api_version %q", c.Backend.APIVersion)
	}

	switch c.Backend.TLSFingerprint {
	case FingerprintStandard, FingerprintChrome:
	default:
		return fmt.Errorf("tls_fingerprint must be %q or %q", FingerprintStandard, FingerprintChrome)
	}
	return nil
}

// Endpoint is the API root every backend path hangs off:
// {url}/api/{major}, e.g. https://shop.example.com/api/v1.
func (c *Config) Endpoint() string {
	return strings.TrimSuffix(c.Backend.URL, "/") + "/api/" + semver.Major(c.Backend.APIVersion)
}

// BackendHost is the host part of the backend URL, used in logs.
func (c *Config) BackendHost() string {
	return extractDomain(c.Backend.URL)
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".storefront-session"
	}
	return filepath.Join(dir, "storefront", "session")
}

func durationFromEnv(key string) (time.Duration, error) {
	return parseDuration(key, os.Getenv(key))
}

func parseDuration(name, val string) (time.Duration, error) {
	if val == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}

// extractDomain parses the host from a URL string.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		host := strings.TrimPrefix(rawURL, "https://")
		host = strings.TrimPrefix(host, "http://")
		return strings.Split(host, "/")[0]
	}
	return u.Host
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
