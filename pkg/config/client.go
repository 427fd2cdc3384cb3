package config

import "time"

// ClientConfig holds runtime configuration for the cardbox CLI.
type ClientConfig struct {
	APIBaseURL     string
	RequestTimeout time.Duration
}

// LoadClientConfig constructs a ClientConfig from environment variables.
func LoadClientConfig() ClientConfig {
	return ClientConfig{
		APIBaseURL:     GetString("CARDBOX_API_URL", "http://localhost:4000"),
		RequestTimeout: time.Duration(GetInt("CARDBOX_REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
	}
}
