package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cos71n/pipe-relining-pros/internal/usecase"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	c, err := FromEnv(envMap(nil))
	if err != nil {
		t.Fatalf("FromEnv returned error: %v", err)
	}
	if c.HTTPAddr != defaultHTTPAddr || c.SQLiteDSN != defaultSQLiteDSN {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.SessionTTL != defaultSessionTTL || c.RateLimitPerMinute != defaultRatePerMin {
		t.Fatalf("unexpected limits: ttl=%s rate=%d", c.SessionTTL, c.RateLimitPerMinute)
	}
	if c.Profile.BusinessName != usecase.DefaultBusinessName || c.Profile.Phone != usecase.DefaultPhone {
		t.Fatalf("unexpected profile: %+v", c.Profile)
	}
	if len(c.Profile.Services) != 6 {
		t.Fatalf("expected 6 default services, got %d", len(c.Profile.Services))
	}
	if len(c.AllowedOrigins) != 1 || c.AllowedOrigins[0] != defaultSiteURL {
		t.Fatalf("origins should default to site url, got %v", c.AllowedOrigins)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	c, err := FromEnv(envMap(map[string]string{
		"TELEGRAM_BOT_TOKEN":         " token ",
		"ADMIN_CHAT_IDS":             "1, 2,abc,,3",
		"NEXT_PUBLIC_BUSINESS_NAME":  "Pipe Relining Pros",
		"BUSINESS_PHONE":             "1300 000 000",
		"NEXT_PUBLIC_BUSINESS_PHONE": "ignored",
		"SITE_URL":                   "https://example.com.au",
		"ALLOWED_ORIGINS":            "https://a.example, https://b.example",
		"SESSION_TTL":                "5m",
		"RATE_LIMIT_PER_MINUTE":      "0",
	}))
	if err != nil {
		t.Fatalf("FromEnv returned error: %v", err)
	}
	if c.TelegramToken != "token" {
		t.Fatalf("token = %q", c.TelegramToken)
	}
	if len(c.AdminIDs) != 3 {
		t.Fatalf("admin ids = %v", c.AdminIDs)
	}
	if c.Profile.BusinessName != "Pipe Relining Pros" || c.Profile.Phone != "1300 000 000" {
		t.Fatalf("profile = %+v", c.Profile)
	}
	if len(c.AllowedOrigins) != 2 || c.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("origins = %v", c.AllowedOrigins)
	}
	if c.SessionTTL != 5*time.Minute || c.RateLimitPerMinute != 0 {
		t.Fatalf("ttl=%s rate=%d", c.SessionTTL, c.RateLimitPerMinute)
	}
}

func TestFromEnvRejectsBadNumbers(t *testing.T) {
	for _, env := range []map[string]string{
		{"SESSION_TTL": "soon"},
		{"RATE_LIMIT_PER_MINUTE": "-1"},
		{"RATE_LIMIT_PER_MINUTE": "many"},
	} {
		if _, err := FromEnv(envMap(env)); err == nil {
			t.Fatalf("expected error for %v", env)
		}
	}
}

func TestProfileFileOverridesServicesAndCopy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	profileYAML := strings.TrimSpace(`
business_name: Pipe Relining Pros
phone: 1300 111 222
services:
  - Blocked Drain
  - " CCTV Inspection "
  - Pipe Relining
copy:
  greeting: Hi, tell us about your pipes.
  final_prompt: Anything else?
`)
	if err := os.WriteFile(path, []byte(profileYAML), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := FromEnv(envMap(map[string]string{"BUSINESS_PROFILE": path}))
	if err != nil {
		t.Fatalf("FromEnv returned error: %v", err)
	}
	p := c.Profile
	if p.BusinessName != "Pipe Relining Pros" || p.Phone != "1300 111 222" {
		t.Fatalf("profile = %+v", p)
	}
	if len(p.Services) != 3 || p.Services[1] != "CCTV Inspection" {
		t.Fatalf("services = %v", p.Services)
	}
	if p.Copy.Greeting != "Hi, tell us about your pipes." || p.Copy.FinalPrompt != "Anything else?" {
		t.Fatalf("copy overrides not applied: %+v", p.Copy)
	}
	if p.Copy.NamePrompt != usecase.DefaultCopy().NamePrompt {
		t.Fatalf("unset copy should fall back to defaults, got %q", p.Copy.NamePrompt)
	}
}

func TestProfileFileValidation(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"empty.yaml": "services:\n  - Drain\n  - \"  \"\n",
		"dup.yaml":   "services:\n  - Drain\n  - Drain\n",
		"bad.yaml":   "services: [unclosed\n",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadProfileFile(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := LoadProfileFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("missing file should fail")
	}
}

func TestParseAdminIDs(t *testing.T) {
	ids := ParseAdminIDs(" 10,x, 20 ")
	if _, ok := ids[10]; !ok {
		t.Fatalf("missing 10: %v", ids)
	}
	if _, ok := ids[20]; !ok {
		t.Fatalf("missing 20: %v", ids)
	}
	if len(ParseAdminIDs("")) != 0 {
		t.Fatalf("empty input should give no ids")
	}
}
