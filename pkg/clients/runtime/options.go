package runtime

import (
	"net/http"
	"os"
	"time"
)

const (
	EnvBaseURL = "RUNTIME_BASE_URL"
	EnvAPIKey  = "RUNTIME_API_KEY"

	defaultBaseURL = "http://localhost:5678"
)

// ClientConfig holds the client configuration.
type ClientConfig struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	UserAgent     string
	HTTPClient    *http.Client
}

// DefaultConfig resolves connection defaults from the environment. Explicit
// options and persisted settings both override these.
func DefaultConfig() *ClientConfig {
	baseURL := os.Getenv(EnvBaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &ClientConfig{
		BaseURL:       baseURL,
		APIKey:        os.Getenv(EnvAPIKey),
		Timeout:       30 * time.Second,
		RetryAttempts: 2,
		RetryDelay:    time.Second,
		UserAgent:     "flowsmith",
	}
}

type ClientOption func(*ClientConfig)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *ClientConfig) {
		if baseURL != "" {
			c.BaseURL = baseURL
		}
	}
}

func WithAPIKey(apiKey string) ClientOption {
	return func(c *ClientConfig) {
		if apiKey != "" {
			c.APIKey = apiKey
		}
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

func WithRetry(attempts int, delay time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.RetryAttempts = attempts
		c.RetryDelay = delay
	}
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *ClientConfig) {
		c.HTTPClient = client
	}
}
