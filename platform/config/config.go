// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// SessionConfig provides settings for wizard session tokens and expiry.
type SessionConfig interface {
	GetSessionSecret() string
	GetSessionTTL() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// ProviderConfig provides settings for the SOAP quoting provider.
type ProviderConfig interface {
	GetProviderEndpoint() string
	GetProviderNamespace() string
	GetProviderUsername() string
	GetProviderPassword() string
	GetProviderAgentCode() string
	GetProviderTimeout() time.Duration
}

// RefDataConfig provides settings for the reference data REST backend.
type RefDataConfig interface {
	GetRefDataBaseURL() string
	GetRefDataCacheTTL() time.Duration
}

// WizardConfig provides business settings for the quote wizard.
type WizardConfig interface {
	GetVATRequiredCountries() []string
	GetAppBaseURL() string
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketPolicyDocuments() string
	IsMinIOEnabled() bool
}

// GotenbergConfig provides settings for the Gotenberg HTML-to-PDF service.
type GotenbergConfig interface {
	GetGotenbergURL() string
	GetGotenbergUsername() string
	GetGotenbergPassword() string
	IsGotenbergEnabled() bool
}

// SMTPConfig provides settings for confirmation emails.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	IsEmailEnabled() bool
}

// SchedulerConfig provides settings for the asynq job queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                        string
	HTTPAddr                   string
	DatabaseURL                string
	SessionSecret              string
	SessionTTL                 time.Duration
	CORSAllowAll               bool
	CORSOrigins                []string
	CORSAllowCreds             bool
	AppBaseURL                 string
	ProviderEndpoint           string
	ProviderNamespace          string
	ProviderUsername           string
	ProviderPassword           string
	ProviderAgentCode          string
	ProviderTimeout            time.Duration
	RefDataBaseURL             string
	RefDataCacheTTL            time.Duration
	VATRequiredCountries       []string
	MinIOEndpoint              string
	MinIOAccessKey             string
	MinIOSecretKey             string
	MinIOUseSSL                bool
	MinIOMaxFileSize           int64
	MinioBucketPolicyDocuments string
	GotenbergURL               string
	GotenbergUsername          string
	GotenbergPassword          string
	SMTPHost                   string
	SMTPPort                   int
	SMTPUsername               string
	SMTPPassword               string
	EmailFromName              string
	EmailFromAddress           string
	RedisURL                   string
	RedisTLSInsecure           bool
	AsynqQueueName             string
	AsynqConcurrency           int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// SessionConfig implementation
func (c *Config) GetSessionSecret() string     { return c.SessionSecret }
func (c *Config) GetSessionTTL() time.Duration { return c.SessionTTL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// ProviderConfig implementation
func (c *Config) GetProviderEndpoint() string       { return c.ProviderEndpoint }
func (c *Config) GetProviderNamespace() string      { return c.ProviderNamespace }
func (c *Config) GetProviderUsername() string       { return c.ProviderUsername }
func (c *Config) GetProviderPassword() string       { return c.ProviderPassword }
func (c *Config) GetProviderAgentCode() string      { return c.ProviderAgentCode }
func (c *Config) GetProviderTimeout() time.Duration { return c.ProviderTimeout }

// RefDataConfig implementation
func (c *Config) GetRefDataBaseURL() string         { return c.RefDataBaseURL }
func (c *Config) GetRefDataCacheTTL() time.Duration { return c.RefDataCacheTTL }

// WizardConfig implementation
func (c *Config) GetVATRequiredCountries() []string { return c.VATRequiredCountries }
func (c *Config) GetAppBaseURL() string             { return c.AppBaseURL }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string   { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string  { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string  { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool       { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64 { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketPolicyDocuments() string {
	return c.MinioBucketPolicyDocuments
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// GotenbergConfig implementation
func (c *Config) GetGotenbergURL() string      { return c.GotenbergURL }
func (c *Config) GetGotenbergUsername() string { return c.GotenbergUsername }
func (c *Config) GetGotenbergPassword() string { return c.GotenbergPassword }
func (c *Config) IsGotenbergEnabled() bool     { return c.GotenbergURL != "" }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) IsEmailEnabled() bool        { return c.SMTPHost != "" }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                        getEnv("APP_ENV", "development"),
		HTTPAddr:                   getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:                getEnv("DATABASE_URL", ""),
		SessionSecret:              getEnv("SESSION_SECRET", ""),
		SessionTTL:                 mustDuration(getEnv("SESSION_TTL", "2h")),
		CORSAllowAll:               corsAllowAll,
		CORSOrigins:                corsOrigins,
		CORSAllowCreds:             strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		AppBaseURL:                 getEnv("APP_BASE_URL", "http://localhost:3000"),
		ProviderEndpoint:           getEnv("PROVIDER_ENDPOINT", ""),
		ProviderNamespace:          getEnv("PROVIDER_NAMESPACE", "http://tempuri.org/"),
		ProviderUsername:           getEnv("PROVIDER_USERNAME", ""),
		ProviderPassword:           getEnv("PROVIDER_PASSWORD", ""),
		ProviderAgentCode:          getEnv("PROVIDER_AGENT_CODE", ""),
		ProviderTimeout:            mustDuration(getEnv("PROVIDER_TIMEOUT", "20s")),
		RefDataBaseURL:             strings.TrimRight(getEnv("REFDATA_BASE_URL", "http://localhost:8081/api"), "/"),
		RefDataCacheTTL:            mustDuration(getEnv("REFDATA_CACHE_TTL", "1h")),
		VATRequiredCountries:       splitCSV(getEnv("VAT_REQUIRED_COUNTRIES", "GR,Greece")),
		MinIOEndpoint:              getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:             getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:             getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:                strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:           mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "20971520")),
		MinioBucketPolicyDocuments: getEnv("MINIO_BUCKET_POLICY_DOCUMENTS", "policy-documents"),
		GotenbergURL:               getEnv("GOTENBERG_URL", ""),
		GotenbergUsername:          getEnv("GOTENBERG_USERNAME", ""),
		GotenbergPassword:          getEnv("GOTENBERG_PASSWORD", ""),
		SMTPHost:                   getEnv("SMTP_HOST", ""),
		SMTPPort:                   int(mustInt64(getEnv("SMTP_PORT", "587"))),
		SMTPUsername:               getEnv("SMTP_USERNAME", ""),
		SMTPPassword:               getEnv("SMTP_PASSWORD", ""),
		EmailFromName:              getEnv("EMAIL_FROM_NAME", "Travel Insurance"),
		EmailFromAddress:           getEnv("EMAIL_FROM_ADDRESS", ""),
		RedisURL:                   getEnv("REDIS_URL", ""),
		RedisTLSInsecure:           strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:             getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:           int(mustInt64(getEnv("ASYNQ_CONCURRENCY", "5"))),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	if cfg.ProviderEndpoint == "" {
		return nil, fmt.Errorf("PROVIDER_ENDPOINT is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be a positive duration")
	}
	if cfg.IsEmailEnabled() && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when SMTP_HOST is set")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
