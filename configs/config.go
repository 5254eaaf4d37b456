package config

import (
	"os"
	"strings"
)

type Config struct {
	PostgresURI        string
	RedisURI           string
	ListenAddr         string
	SecretKey          string
	TokenEncryptionKey string
	AdminEmails        []string
	PublishTestSecret  string
	GraphBaseURL       string
	GraphAPIVersion    string
	DefaultTenantID    string
	DefaultUnitID      string
	IdentityAdminURL   string
	IdentityAdminKey   string
}

func LoadConfig() *Config {
	// The encryption seed historically fell back to the OAuth state secret
	// when no dedicated key was configured.
	encryptionKey := getEnv("TOKEN_ENCRYPTION_KEY", "")
	if encryptionKey == "" {
		encryptionKey = getEnv("OAUTH_STATE_SECRET", "")
	}

	return &Config{
		PostgresURI:        getEnv("POSTGRES_URI", ""),
		RedisURI:           getEnv("REDIS_URI", ""),
		ListenAddr:         getEnv("LISTEN_ADDR", ":3000"),
		SecretKey:          getEnv("SECRET_KEY", ""),
		TokenEncryptionKey: encryptionKey,
		AdminEmails:        splitEmails(getEnv("ADMIN_EMAILS", "")),
		PublishTestSecret:  getEnv("PUBLISH_TEST_SECRET", ""),
		GraphBaseURL:       getEnv("GRAPH_BASE_URL", "https://graph.facebook.com"),
		GraphAPIVersion:    getEnv("GRAPH_API_VERSION", "v22.0"),
		DefaultTenantID:    getEnv("DEFAULT_TENANT_ID", ""),
		DefaultUnitID:      getEnv("DEFAULT_UNIT_ID", ""),
		IdentityAdminURL:   getEnv("IDENTITY_ADMIN_URL", ""),
		IdentityAdminKey:   getEnv("IDENTITY_ADMIN_KEY", ""),
	}
}

func splitEmails(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		email := strings.ToLower(strings.TrimSpace(part))
		if email != "" {
			out = append(out, email)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
