// Package config reads server and CLI settings from flags, the environment and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends selected by DSN scheme.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongodb"
)

// DevSecret signs tokens when the server runs with -dev and no secret is configured.
const DevSecret = "ngotes-dev-secret"

// Server holds cmd/server settings.
type Server struct {
	Addr       string
	DSN        string
	DBName     string
	JWTSecret  string
	BasePath   string
	Pool       bool
	Dev        bool
	IssueToken string
	TokenTTL   time.Duration
}

// CLI holds cmd/cli global settings; Args are the remaining command words.
type CLI struct {
	APIURL      string
	IdentityURL string
	Timeout     time.Duration
	Verbose     bool
	Args        []string
}

// LoadEnvFile loads variables from path without overriding the environment.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ParseServer parses server flags; unset flags fall back to getenv, then to defaults.
func ParseServer(args []string, getenv func(string) string) (Server, error) {
	env := envReader{getenv: getenv}
	fset := flag.NewFlagSet("ngotes-server", flag.ContinueOnError)
	fset.SetOutput(io.Discard)

	var c Server
	fset.StringVar(&c.Addr, "addr", env.str("ADDR", ":8888"), "listen address")
	fset.StringVar(&c.DSN, "dsn", env.str("DATABASE_URL", "memory://"), "store DSN: postgres://, mongodb:// or memory://")
	fset.StringVar(&c.DBName, "db-name", env.str("DB_NAME", "ngotes"), "database name (mongodb)")
	fset.StringVar(&c.JWTSecret, "jwt-secret", env.str("JWT_SECRET", ""), "identity provider HS256 secret (required)")
	fset.StringVar(&c.BasePath, "base-path", env.str("BASE_PATH", ""), "route prefix, e.g. /.netlify/functions")
	fset.BoolVar(&c.Pool, "pool", env.boolean("DB_POOL", false), "reuse pooled postgres connections")
	fset.BoolVar(&c.Dev, "dev", env.boolean("DEV", false), "development mode")
	fset.StringVar(&c.IssueToken, "issue-token", "", "print a token for the given subject and exit")
	fset.DurationVar(&c.TokenTTL, "token-ttl", env.duration("TOKEN_TTL", 24*time.Hour), "lifetime of -issue-token tokens")

	if err := fset.Parse(args); err != nil {
		return Server{}, err
	}
	if err := env.err(); err != nil {
		return Server{}, err
	}

	if c.JWTSecret == "" {
		if !c.Dev {
			return Server{}, errors.New("missing jwt secret (-jwt-secret or JWT_SECRET)")
		}
		c.JWTSecret = DevSecret
	}
	if _, err := c.Backend(); err != nil {
		return Server{}, err
	}
	return c, nil
}

// Backend reports which store the DSN selects.
func (c Server) Backend() (string, error) {
	u, err := url.Parse(c.DSN)
	if err != nil {
		return "", fmt.Errorf("bad dsn: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		return BackendPostgres, nil
	case "mongodb", "mongodb+srv":
		return BackendMongo, nil
	case "memory":
		return BackendMemory, nil
	}
	return "", fmt.Errorf("unsupported dsn scheme %q", u.Scheme)
}

// ParseCLI parses the CLI global flags.
func ParseCLI(args []string, getenv func(string) string) (CLI, error) {
	env := envReader{getenv: getenv}
	fset := flag.NewFlagSet("ngotes", flag.ContinueOnError)
	fset.SetOutput(io.Discard)

	var c CLI
	fset.StringVar(&c.APIURL, "api", env.str("NOTES_API_URL", "http://localhost:8888"), "notes API base URL")
	fset.StringVar(&c.IdentityURL, "identity", env.str("IDENTITY_ENDPOINT", ""), "identity provider URL")
	fset.DurationVar(&c.Timeout, "timeout", env.duration("NOTES_TIMEOUT", 30*time.Second), "request timeout")
	fset.BoolVar(&c.Verbose, "v", env.boolean("NOTES_VERBOSE", false), "log requests to stderr")

	if err := fset.Parse(args); err != nil {
		return CLI{}, err
	}
	if err := env.err(); err != nil {
		return CLI{}, err
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	c.IdentityURL = strings.TrimRight(c.IdentityURL, "/")
	c.Args = fset.Args()
	return c, nil
}

// envReader collects parse errors so flag defaults can be declared inline.
type envReader struct {
	getenv func(string) string
	errs   []error
}

func (e *envReader) str(key, def string) string {
	if v := strings.TrimSpace(e.getenv(key)); v != "" {
		return v
	}
	return def
}

func (e *envReader) boolean(key string, def bool) bool {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (e *envReader) err() error { return errors.Join(e.errs...) }
