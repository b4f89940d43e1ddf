// Package config handles configuration loading, saving, env overrides,
// and credential validation.
package config

import (
	"fmt"
	"strings"

	"github.com/relaykit/warelay/internal/appbridge"
)

// Config is the top-level warelay configuration.
type Config struct {
	Server   ServerConfig       `json:"server"`
	WhatsApp WhatsAppConfig     `json:"whatsapp"`
	App      appbridge.Selector `json:"app"`
	Backend  BackendConfig      `json:"backend"`
	Redis    RedisConfig        `json:"redis"`
}

// ServerConfig holds webhook server settings.
type ServerConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// WhatsAppConfig holds the Cloud API credentials and webhook settings.
type WhatsAppConfig struct {
	AccessToken   string `json:"accessToken"`
	PhoneNumberID string `json:"phoneNumberId"`
	VerifyToken   string `json:"verifyToken,omitempty"`
}

// BackendConfig holds the conversational backend connection settings.
type BackendConfig struct {
	URL            string `json:"url,omitempty"`
	APIKey         string `json:"apiKey,omitempty"`
	TimeoutSeconds int    `json:"timeoutSeconds,omitempty"`
}

// RedisConfig holds conversation store settings. An empty URL selects
// the in-memory store.
type RedisConfig struct {
	URL      string `json:"url,omitempty"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8090,
		},
		Backend: BackendConfig{
			TimeoutSeconds: 30,
		},
	}
}

// ValidateCredentials checks that both Cloud API credentials are set.
// The direct-send path refuses to run without them; the webhook path
// merely disables replies.
func ValidateCredentials(cfg Config) error {
	var missing []string
	if strings.TrimSpace(cfg.WhatsApp.AccessToken) == "" {
		missing = append(missing, "access_token")
	}
	if strings.TrimSpace(cfg.WhatsApp.PhoneNumberID) == "" {
		missing = append(missing, "phone_number_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}

// MaskSecret hides all but the last 4 characters of a secret for
// display in status output.
func MaskSecret(secret string) string {
	if secret == "" {
		return "(unset)"
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
