// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

// Package config loads server configuration from defaults, an optional YAML
// file, environment fallbacks and command-line flags, in increasing priority.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
	"github.com/xhit/go-str2duration/v2"

	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/auth"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Defaults.
const (
	DefaultHTTPAddr       = ":8080"
	DefaultMetricsAddr    = "127.0.0.1:9100"
	DefaultDatabaseURL    = "postgres://localhost:5432/noteful?sslmode=disable"
	DefaultJWTExpiry      = "7d"
	DefaultBcryptCost     = 10
	DefaultConnectRetries = 5
	DefaultLogFormat      = "json"
)

// Config is the fully resolved server configuration. It is not modified
// after Load returns.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Database DatabaseConfig `koanf:"database"`
	Store    string         `koanf:"store" jsonschema:"description=postgres or memory"`
	JWT      JWTConfig      `koanf:"jwt"`
	Hasher   HasherConfig   `koanf:"hasher"`
	Log      LogConfig      `koanf:"log"`
}

// HTTPConfig configures the API listener. Setting both TLSCert and TLSKey
// serves HTTPS. An empty CORSOrigins disables CORS headers.
type HTTPConfig struct {
	Addr        string   `koanf:"addr" jsonschema:"description=API listen address"`
	TLSCert     string   `koanf:"tls_cert" jsonschema:"description=PEM certificate file"`
	TLSKey      string   `koanf:"tls_key" jsonschema:"description=PEM private key file"`
	CORSOrigins []string `koanf:"cors_origins" jsonschema:"description=allowed browser origins; * and ? globs match within a host label"`
}

// TLSEnabled reports whether a serving key pair is configured.
func (c HTTPConfig) TLSEnabled() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

// MetricsConfig configures the observability listener. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" jsonschema:"description=metrics and health listen address; empty disables"`
}

// DatabaseConfig configures the PostgreSQL connection. AutoMigrate applies
// pending schema migrations before serve accepts traffic.
type DatabaseConfig struct {
	URL            string `koanf:"url"`
	AutoMigrate    bool   `koanf:"auto_migrate"`
	ConnectRetries int    `koanf:"connect_retries" jsonschema:"minimum=0"`
}

// JWTConfig holds the token signing secret and lifetime. Expiry accepts
// Go durations plus d and w units ("7d", "12h") or a bare number of seconds.
type JWTConfig struct {
	Secret string `koanf:"secret"`
	Expiry string `koanf:"expiry" jsonschema:"oneof_type=string;integer"`
}

// HasherConfig selects the password hashing algorithm.
type HasherConfig struct {
	Algorithm   string `koanf:"algorithm" jsonschema:"enum=bcrypt,enum=argon2id"`
	BcryptCost  int    `koanf:"bcrypt_cost" jsonschema:"minimum=4,maximum=31"`
	Concurrency int    `koanf:"concurrency" jsonschema:"minimum=0"`
}

// LogConfig selects the log output format: "json" or "text".
type LogConfig struct {
	Format string `koanf:"format" jsonschema:"enum=json,enum=text"`
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"http-addr":        "http.addr",
	"tls-cert":         "http.tls_cert",
	"tls-key":          "http.tls_key",
	"cors-origin":      "http.cors_origins",
	"metrics-addr":     "metrics.addr",
	"database-url":     "database.url",
	"auto-migrate":     "database.auto_migrate",
	"db-retries":       "database.connect_retries",
	"store":            "store",
	"jwt-secret":       "jwt.secret",
	"jwt-expiry":       "jwt.expiry",
	"hasher":           "hasher.algorithm",
	"bcrypt-cost":      "hasher.bcrypt_cost",
	"hash-concurrency": "hasher.concurrency",
	"log-format":       "log.format",
}

// envKeys maps environment variables to configuration keys.
var envKeys = map[string]string{
	"CLIENT_ORIGIN":           "http.cors_origins",
	"DATABASE_URL":            "database.url",
	"NOTEFUL_DB_AUTO_MIGRATE": "database.auto_migrate",
	"JWT_SECRET":              "jwt.secret",
	"JWT_EXPIRY":              "jwt.expiry",
}

// listKeys are comma-separated when read from the environment.
var listKeys = map[string]bool{
	"http.cors_origins": true,
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// RegisterFlags defines the server flags on fs. Their defaults are the
// configuration defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("http-addr", DefaultHTTPAddr, "API listen address")
	fs.String("tls-cert", "", "PEM certificate for serving HTTPS")
	fs.String("tls-key", "", "PEM private key for serving HTTPS")
	fs.StringSlice("cors-origin", nil, "allowed CORS origin, globs allowed (repeatable)")
	fs.String("metrics-addr", DefaultMetricsAddr, "metrics and health listen address (empty disables)")
	fs.String("database-url", DefaultDatabaseURL, "PostgreSQL connection URL")
	fs.Bool("auto-migrate", false, "apply pending migrations on startup (postgres store)")
	fs.Int("db-retries", DefaultConnectRetries, "times to retry the initial database ping")
	fs.String("store", StorePostgres, "user store backend (postgres|memory)")
	fs.String("jwt-secret", "", "token signing secret")
	fs.String("jwt-expiry", DefaultJWTExpiry, "token lifetime, e.g. 7d, 12h or seconds")
	fs.String("hasher", auth.AlgorithmBcrypt, "password hash algorithm (bcrypt|argon2id)")
	fs.Int("bcrypt-cost", DefaultBcryptCost, "bcrypt work factor")
	fs.Int("hash-concurrency", 0, "maximum concurrent hash operations (0 = GOMAXPROCS)")
	fs.String("log-format", DefaultLogFormat, "log format (json|text)")
}

// Load resolves configuration. path may be empty. fs must have been
// prepared with RegisterFlags and parsed. getenv is usually os.Getenv.
func Load(path string, fs *pflag.FlagSet, getenv func(string) string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied
		if err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
		if err := ValidateDocument(data); err != nil {
			return nil, oops.With("path", path).Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if getenv == nil {
		getenv = os.Getenv
	}
	for env, key := range envKeys {
		if v := getenv(env); v != "" {
			var val any = v
			if listKeys[key] {
				val = splitList(v)
			}
			if err := k.Set(key, val); err != nil {
				return nil, oops.Code("CONFIG_LOAD_FAILED").With("env", env).Wrap(err)
			}
		}
	}

	// Changed flags override everything; unchanged flags only fill gaps.
	provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	})
	if err := k.Load(provider, nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "unmarshal").Wrap(err)
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	return &cfg, nil
}

// Validate reports the first configuration problem.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return oops.Code("CONFIG_INVALID").With("key", "http.addr").Errorf("http address is required")
	}
	if (c.HTTP.TLSCert == "") != (c.HTTP.TLSKey == "") {
		return oops.Code("CONFIG_INVALID").With("key", "http.tls_cert").Errorf("tls cert and key must be set together")
	}
	switch c.Store {
	case StorePostgres:
		if c.Database.URL == "" {
			return oops.Code("CONFIG_INVALID").With("key", "database.url").Errorf("database url is required for the postgres store")
		}
	case StoreMemory:
	default:
		return oops.Code("CONFIG_INVALID").With("key", "store").Errorf("unknown store %q", c.Store)
	}
	if c.Database.ConnectRetries < 0 {
		return oops.Code("CONFIG_INVALID").With("key", "database.connect_retries").Errorf("connect retries cannot be negative")
	}
	if c.JWT.Secret == "" {
		return oops.Code("CONFIG_INVALID").With("key", "jwt.secret").Errorf("jwt secret is required")
	}
	if _, err := ParseExpiry(c.JWT.Expiry); err != nil {
		return err
	}
	switch c.Hasher.Algorithm {
	case "", auth.AlgorithmBcrypt, auth.AlgorithmArgon2id:
	default:
		return oops.Code("CONFIG_INVALID").With("key", "hasher.algorithm").Errorf("unknown hash algorithm %q", c.Hasher.Algorithm)
	}
	if c.Hasher.Concurrency < 0 {
		return oops.Code("CONFIG_INVALID").With("key", "hasher.concurrency").Errorf("hash concurrency cannot be negative")
	}
	switch c.Log.Format {
	case "", "json", "text":
	default:
		return oops.Code("CONFIG_INVALID").With("key", "log.format").Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// TokenConfig converts the JWT section for auth.NewTokenIssuer.
func (c *Config) TokenConfig() (auth.TokenConfig, error) {
	expiry, err := ParseExpiry(c.JWT.Expiry)
	if err != nil {
		return auth.TokenConfig{}, err
	}
	return auth.TokenConfig{Secret: []byte(c.JWT.Secret), Expiry: expiry}, nil
}

// ParseExpiry parses a token lifetime. A bare integer is seconds.
func ParseExpiry(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, oops.Code("CONFIG_INVALID").With("key", "jwt.expiry").Errorf("jwt expiry is required")
	}

	var d time.Duration
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		d = time.Duration(secs) * time.Second
	} else {
		d, err = str2duration.ParseDuration(s)
		if err != nil {
			return 0, oops.Code("CONFIG_INVALID").With("key", "jwt.expiry").With("value", s).Wrap(err)
		}
	}

	if d <= 0 {
		return 0, oops.Code("CONFIG_INVALID").
			With("key", "jwt.expiry").
			With("value", s).
			Errorf("jwt expiry must be positive")
	}
	return d, nil
}
