package config

import (
	"fmt"
	"os"
)

type Config struct {
	// DeepAI image generation API
	DeepAIAPIKey  string
	DeepAIBaseURL string

	// Synapse storage service
	SynapseAPIBaseURL string

	// Filecoin / FVM
	FilecoinRPCURL     string
	CIDStoreAddress    string
	PaymentsAddress    string
	WarmStorageAddress string

	// Server-held signing key for payments and registry transactions.
	// Optional: without it the server runs read-only against the chain.
	SignerPrivateKey string

	// Wallet sessions
	SessionJWTSecret string

	// Local store
	DatabasePath string

	// Server
	BaseURL     string
	Port        string
	Environment string
}

func Load() (*Config, error) {
	cfg := &Config{
		DeepAIAPIKey:  getEnv("DEEP_API_KEY", ""),
		DeepAIBaseURL: getEnv("DEEPAI_API_BASE_URL", "https://api.deepai.org/api"),

		SynapseAPIBaseURL: getEnv("SYNAPSE_API_BASE_URL", "https://api.synapse.storage"),

		FilecoinRPCURL:     getEnv("FILECOIN_RPC_URL", "https://api.calibration.node.glif.io/rpc/v1"),
		CIDStoreAddress:    getEnv("CID_STORE_ADDRESS", ""),
		PaymentsAddress:    getEnv("PAYMENTS_ADDRESS", ""),
		WarmStorageAddress: getEnv("WARM_STORAGE_ADDRESS", ""),

		SignerPrivateKey: getEnv("PRIVATE_KEY", ""),

		SessionJWTSecret: getEnv("SESSION_JWT_SECRET", ""),

		DatabasePath: getEnv("DATABASE_PATH", "base0.db"),

		BaseURL:     getEnv("BASE_URL", ""),
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DeepAIAPIKey == "" {
		return fmt.Errorf("DEEP_API_KEY is required")
	}
	if c.SessionJWTSecret == "" {
		return fmt.Errorf("SESSION_JWT_SECRET is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
