// Package config holds the typed runtime settings for the MIQ control plane.
// Settings are resolved once at startup: built-in defaults, then an optional
// JSON5 overlay file, then environment variables (highest precedence).
// Missing credentials for a production integration degrade that integration
// to demo mode; they never prevent startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings is the flat set of typed settings recognized by the platform.
type Settings struct {
	ProductionMode bool `json:"production_mode"`

	// OpenAI — enables LLM-backed production branches and router tier-3.
	OpenAIAPIKey string `json:"-"` // env only, never persisted
	OpenAIModel  string `json:"openai_model"`

	// Slack adapter.
	SlackBotToken       string `json:"-"` // env only
	SlackSigningSecret  string `json:"-"` // env only
	SlackDefaultChannel string `json:"slack_default_channel"`

	// Teams adapter.
	TeamsAppID       string `json:"teams_app_id"`
	TeamsAppPassword string `json:"-"` // env only
	TeamsTenantID    string `json:"teams_tenant_id"`

	// Memory journal sizing.
	MemoryDir                  string `json:"memory_dir"`
	MemoryMaxEntriesPerAgent   int    `json:"memory_max_entries_per_agent"`
	MemoryTrimTo               int    `json:"memory_trim_to"`
	MemoryRecentContextEntries int    `json:"memory_recent_context_entries"`

	// External call timeout, seconds.
	APITimeoutSeconds int `json:"api_timeout_seconds"`

	// HTTP binding.
	Host  string `json:"host"`
	Port  int    `json:"port"`
	Debug bool   `json:"debug"`

	// Trace export (OTLP HTTP). Off by default.
	OTELExportEnabled bool   `json:"otel_export_enabled"`
	OTELServiceName   string `json:"otel_service_name"`
}

// Defaults returns a Settings populated with built-in defaults.
func Defaults() *Settings {
	return &Settings{
		OpenAIModel:                "gpt-4o-mini",
		MemoryDir:                  "memory",
		MemoryMaxEntriesPerAgent:   2000,
		MemoryTrimTo:               1800,
		MemoryRecentContextEntries: 20,
		APITimeoutSeconds:          30,
		Host:                       "0.0.0.0",
		Port:                       8080,
		OTELServiceName:            "miq-gateway",
	}
}

// Load resolves settings from defaults, the optional overlay file, and the
// environment. overlayPath may be empty; a missing overlay file is not an
// error, a malformed one is.
func Load(overlayPath string) (*Settings, error) {
	s := Defaults()
	if overlayPath != "" {
		if err := s.applyOverlay(overlayPath); err != nil {
			return nil, fmt.Errorf("config overlay %s: %w", overlayPath, err)
		}
	}
	s.applyEnv()
	if s.MemoryTrimTo >= s.MemoryMaxEntriesPerAgent {
		s.MemoryTrimTo = s.MemoryMaxEntriesPerAgent * 9 / 10
	}
	return s, nil
}

func (s *Settings) applyEnv() {
	setBool(&s.ProductionMode, "PRODUCTION_MODE")
	setString(&s.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&s.OpenAIModel, "OPENAI_MODEL")
	setString(&s.SlackBotToken, "SLACK_BOT_TOKEN")
	setString(&s.SlackSigningSecret, "SLACK_SIGNING_SECRET")
	setString(&s.SlackDefaultChannel, "SLACK_DEFAULT_CHANNEL")
	setString(&s.TeamsAppID, "TEAMS_APP_ID")
	setString(&s.TeamsAppPassword, "TEAMS_APP_PASSWORD")
	setString(&s.TeamsTenantID, "TEAMS_TENANT_ID")
	setString(&s.MemoryDir, "MEMORY_DIR")
	setInt(&s.MemoryMaxEntriesPerAgent, "MEMORY_MAX_ENTRIES_PER_AGENT")
	setInt(&s.MemoryTrimTo, "MEMORY_TRIM_TO")
	setInt(&s.MemoryRecentContextEntries, "MEMORY_RECENT_CONTEXT_ENTRIES")
	setInt(&s.APITimeoutSeconds, "API_TIMEOUT_SECONDS")
	setString(&s.Host, "HOST")
	setInt(&s.Port, "PORT")
	setBool(&s.Debug, "DEBUG")
	setBool(&s.OTELExportEnabled, "OTEL_EXPORT_ENABLED")
	setString(&s.OTELServiceName, "OTEL_SERVICE_NAME")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		}
	}
}

// APITimeout returns the default timeout for external API calls.
func (s *Settings) APITimeout() time.Duration {
	return time.Duration(s.APITimeoutSeconds) * time.Second
}

// OpenAIConfigured reports whether the OpenAI integration has credentials.
func (s *Settings) OpenAIConfigured() bool { return s.OpenAIAPIKey != "" }

// SlackConfigured reports whether the Slack adapter has credentials.
func (s *Settings) SlackConfigured() bool {
	return s.SlackBotToken != "" && s.SlackSigningSecret != ""
}

// TeamsConfigured reports whether the Teams adapter has credentials.
func (s *Settings) TeamsConfigured() bool {
	return s.TeamsAppID != "" && s.TeamsAppPassword != ""
}

// IntegrationConfigured reports whether a named integration has what it needs
// to run in production. Unknown integration keys are never configured.
func (s *Settings) IntegrationConfigured(key string) bool {
	switch key {
	case "openai":
		return s.OpenAIConfigured()
	case "slack":
		return s.SlackConfigured()
	case "teams":
		return s.TeamsConfigured()
	default:
		return false
	}
}

// MissingIntegrations returns the subset of keys not configured.
func (s *Settings) MissingIntegrations(keys []string) []string {
	var missing []string
	for _, k := range keys {
		if !s.IntegrationConfigured(k) {
			missing = append(missing, k)
		}
	}
	return missing
}
