// Package config provides configuration loading and validation for the service.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all runtime configuration for the interview service.
// Values are read from the environment; cmd/interviewd loads a .env file
// first if one is present.
type Config struct {
	// Server
	Port int

	// Backing stores
	DatabaseURL string // PostgreSQL connection URL
	RedisURL    string // Redis connection URL (redis:// or rediss://)

	// Object storage (Supabase Storage REST API)
	SupabaseURL       string
	SupabaseSecretKey string
	SupabaseBucket    string

	// External services
	SpeechmaticsAPIKey string
	GeminiAPIKey       string

	// Auth
	JWTSecret string
}

// FromEnv builds a Config from environment variables.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:               8080,
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		SupabaseURL:        os.Getenv("SUPABASE_URL"),
		SupabaseSecretKey:  os.Getenv("SUPABASE_SECRET_KEY"),
		SupabaseBucket:     os.Getenv("SUPABASE_BUCKET"),
		SpeechmaticsAPIKey: os.Getenv("SPEECHMATICS_API_KEY"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		JWTSecret:          os.Getenv("JWT_SECRET_KEY"),
	}

	if cfg.SupabaseBucket == "" {
		cfg.SupabaseBucket = "interviewly"
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		cfg.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration values are present.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config error: port out of range: %d", c.Port)
	}

	required := []struct {
		name  string
		value string
	}{
		{"DATABASE_URL", c.DatabaseURL},
		{"REDIS_URL", c.RedisURL},
		{"SUPABASE_URL", c.SupabaseURL},
		{"SUPABASE_SECRET_KEY", c.SupabaseSecretKey},
		{"SPEECHMATICS_API_KEY", c.SpeechmaticsAPIKey},
		{"GEMINI_API_KEY", c.GeminiAPIKey},
		{"JWT_SECRET_KEY", c.JWTSecret},
	}

	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("config error: %s is required", r.name)
		}
	}

	return nil
}
