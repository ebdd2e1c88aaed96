// Package config loads process configuration from flags with environment defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// DefaultBaseURL is the public origin used in generated hook URLs when BASE_URL is unset.
const DefaultBaseURL = "https://api.notyfai.com"

// Config is the server configuration.
type Config struct {
	SupabaseURL            string
	SupabasePublishableKey string
	DatabaseURL            string
	HookSecret             string
	FirebaseServiceAccount string
	BaseURL                string
	Port                   int
	Migrate                bool
	ShutdownTimeout        time.Duration
}

// Addr is the listen address.
func (c *Config) Addr() string { return ":" + strconv.Itoa(c.Port) }

// Load parses args (without the program name) over environment defaults.
func Load(args []string) (*Config, error) {
	return load(args, os.LookupEnv)
}

func load(args []string, lookup func(string) (string, bool)) (*Config, error) {
	env := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	port, err := strconv.Atoi(env("PORT", "3000"))
	if err != nil {
		return nil, fmt.Errorf("config: PORT: %w", err)
	}
	migrate, err := strconv.ParseBool(env("NOTYFAI_MIGRATE", "true"))
	if err != nil {
		return nil, fmt.Errorf("config: NOTYFAI_MIGRATE: %w", err)
	}

	cfg := &Config{}
	fs := pflag.NewFlagSet("notyfai-server", pflag.ContinueOnError)
	fs.StringVar(&cfg.SupabaseURL, "supabase-url", env("SUPABASE_URL", ""), "identity provider URL")
	fs.StringVar(&cfg.SupabasePublishableKey, "supabase-publishable-key", env("SUPABASE_PUBLISHABLE_KEY", ""), "identity provider public key")
	fs.StringVar(&cfg.DatabaseURL, "database-url", env("DATABASE_URL", ""), "PostgreSQL DSN (elevated credential)")
	fs.StringVar(&cfg.HookSecret, "hook-secret", env("HOOK_SECRET", ""), "HMAC secret for webhook tokens")
	fs.StringVar(&cfg.FirebaseServiceAccount, "firebase-service-account", env("FIREBASE_SERVICE_ACCOUNT", ""), "Firebase service account JSON or path")
	fs.StringVar(&cfg.BaseURL, "base-url", env("BASE_URL", DefaultBaseURL), "public base URL used in hook URLs")
	fs.IntVar(&cfg.Port, "port", port, "listen port")
	fs.BoolVar(&cfg.Migrate, "migrate", migrate, "apply database migrations on start")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", 10*time.Second, "graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	for _, req := range []struct{ key, val string }{
		{"SUPABASE_URL", c.SupabaseURL},
		{"SUPABASE_PUBLISHABLE_KEY", c.SupabasePublishableKey},
		{"DATABASE_URL", c.DatabaseURL},
		{"HOOK_SECRET", c.HookSecret},
	} {
		if strings.TrimSpace(req.val) == "" {
			missing = append(missing, req.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required %s", strings.Join(missing, ", "))
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.New("config: port out of range")
	}
	return nil
}
