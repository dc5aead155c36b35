// Package config reads the bot and widget settings from the environment,
// an optional .env file and an optional YAML business profile.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cos71n/pipe-relining-pros/internal/usecase"
)

const (
	defaultHTTPAddr     = ":8080"
	defaultSQLiteDSN    = "quotechat.db"
	defaultSessionTTL   = 30 * time.Minute
	defaultRatePerMin   = 30
	defaultLogMode      = "dev"
	defaultSiteURL      = "https://bordermobilemechanic.com.au"
	defaultProfileEnv   = "BUSINESS_PROFILE"
	nextPublicEnvPrefix = "NEXT_PUBLIC_"
)

type Config struct {
	TelegramToken      string
	AdminIDs           map[int64]struct{}
	SQLiteDSN          string
	HTTPAddr           string
	LogMode            string
	SiteURL            string
	AllowedOrigins     []string
	SessionTTL         time.Duration
	RateLimitPerMinute int
	Profile            usecase.Profile
}

// ProfileFile is the YAML shape of BUSINESS_PROFILE.
type ProfileFile struct {
	BusinessName string       `yaml:"business_name"`
	Phone        string       `yaml:"phone"`
	ServiceArea  string       `yaml:"service_area"`
	Services     []string     `yaml:"services"`
	Copy         usecase.Copy `yaml:"copy"`
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	env := func(name string) string { return strings.TrimSpace(getenv(name)) }
	// the site templates read NEXT_PUBLIC_ names; accept both
	public := func(name string) string {
		if v := env(name); v != "" {
			return v
		}
		return env(nextPublicEnvPrefix + name)
	}

	c := &Config{
		TelegramToken:      env("TELEGRAM_BOT_TOKEN"),
		AdminIDs:           ParseAdminIDs(env("ADMIN_CHAT_IDS")),
		SQLiteDSN:          orDefault(env("SQLITE_DSN"), defaultSQLiteDSN),
		HTTPAddr:           orDefault(env("HTTP_ADDR"), defaultHTTPAddr),
		LogMode:            orDefault(env("LOG_MODE"), defaultLogMode),
		SiteURL:            orDefault(public("SITE_URL"), defaultSiteURL),
		AllowedOrigins:     splitList(env("ALLOWED_ORIGINS")),
		SessionTTL:         defaultSessionTTL,
		RateLimitPerMinute: defaultRatePerMin,
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{c.SiteURL}
	}
	if v := env("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("config: SESSION_TTL: %w", err)
		}
		c.SessionTTL = d
	}
	if v := env("RATE_LIMIT_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("config: RATE_LIMIT_PER_MINUTE must be a non-negative integer, got %q", v)
		}
		c.RateLimitPerMinute = n
	}

	profile := usecase.DefaultProfile()
	if path := env(defaultProfileEnv); path != "" {
		pf, err := LoadProfileFile(path)
		if err != nil {
			return nil, err
		}
		profile = pf.apply(profile)
	}
	if v := public("BUSINESS_NAME"); v != "" {
		profile.BusinessName = v
	}
	if v := public("BUSINESS_PHONE"); v != "" {
		profile.Phone = v
	}
	if v := public("SERVICE_AREA"); v != "" {
		profile.ServiceArea = v
	}
	c.Profile = profile
	return c, nil
}

// LoadProfileFile parses a YAML business profile.
func LoadProfileFile(path string) (*ProfileFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read profile %s: %w", path, err)
	}
	var pf ProfileFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("config: parse profile %s: %w", path, err)
	}
	seen := make(map[string]struct{}, len(pf.Services))
	for i, s := range pf.Services {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, fmt.Errorf("config: profile %s: service #%d is empty", path, i+1)
		}
		if _, dup := seen[s]; dup {
			return nil, fmt.Errorf("config: profile %s: duplicate service %q", path, s)
		}
		seen[s] = struct{}{}
		pf.Services[i] = s
	}
	return &pf, nil
}

func (pf *ProfileFile) apply(p usecase.Profile) usecase.Profile {
	if pf.BusinessName != "" {
		p.BusinessName = pf.BusinessName
	}
	if pf.Phone != "" {
		p.Phone = pf.Phone
	}
	if pf.ServiceArea != "" {
		p.ServiceArea = pf.ServiceArea
	}
	if len(pf.Services) > 0 {
		p.Services = pf.Services
	}
	p.Copy = pf.Copy.Merge(p.Copy)
	return p
}

// ParseAdminIDs reads a comma separated list of Telegram chat ids, skipping
// anything that is not a number.
func ParseAdminIDs(raw string) map[int64]struct{} {
	ids := map[int64]struct{}{}
	for _, part := range splitList(raw) {
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids[id] = struct{}{}
		}
	}
	return ids
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
