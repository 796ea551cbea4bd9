package config

import (
	"os"
	"testing"
)

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		previous, had := os.LookupEnv(key)
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("Unsetenv(%s): %v", key, err)
		}
		t.Cleanup(func() {
			if had {
				_ = os.Setenv(key, previous)
			}
		})
	}
}

func TestFromEnvRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected error when JWT_SECRET is empty")
	}
}

func TestFromEnvAppliesDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	unsetEnv(t, "PORT", "TRASH_RETENTION_DAYS", "PRACTICE_TIMEZONE",
		"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_PHONE_NUMBER")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.TrashRetentionDays != 30 {
		t.Fatalf("expected 30 day retention, got %d", cfg.TrashRetentionDays)
	}
	if cfg.Location == nil || cfg.Location.String() != "UTC" {
		t.Fatalf("expected UTC location, got %v", cfg.Location)
	}
	if cfg.SMSConfigured() {
		t.Fatalf("expected sms to be unconfigured without twilio credentials")
	}
}

func TestFromEnvRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PRACTICE_TIMEZONE", "Mars/Olympus_Mons")

	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected error for unknown timezone")
	}
}

func TestNormalizeEnv(t *testing.T) {
	cases := map[string]string{
		"dev":     "development",
		" LOCAL ": "development",
		"prod":    "production",
		"stage":   "staging",
		"custom":  "custom",
	}
	for input, want := range cases {
		if got := normalizeEnv(input); got != want {
			t.Fatalf("normalizeEnv(%q) = %q, want %q", input, got, want)
		}
	}
}
