package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/csvlint/internal/csvcheck"
)

// LookupFunc returns the value of a variable and whether it is set.
type LookupFunc func(key string) (string, bool)

// Load reads configuration from environment variables, applies defaults and
// validates the result. Every bad variable is reported, not just the first.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom is Load with a custom variable source.
func LoadFrom(lookup LookupFunc) (*Config, error) {
	cfg := &Config{}

	if errs := populate(reflect.ValueOf(cfg).Elem(), lookup); len(errs) > 0 {
		return nil, fmt.Errorf("config load: %w", errors.Join(errs...))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// populate fills tagged fields of the struct v, descending into nested
// section structs, and returns one error per variable it could not parse.
func populate(v reflect.Value, lookup LookupFunc) []error {
	var errs []error
	t := v.Type()

	for i := range t.NumField() {
		sf, fv := t.Field(i), v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if sf.Type.Kind() == reflect.Struct {
			errs = append(errs, populate(fv, lookup)...)
			continue
		}

		name := sf.Tag.Get("env")
		if name == "" {
			continue
		}
		raw := firstSet(lookup, name, sf.Tag.Get("envAlt"))
		if raw == "" {
			raw = sf.Tag.Get("default")
		}
		if raw == "" {
			continue
		}
		if err := assign(fv, raw); err != nil {
			errs = append(errs, fmt.Errorf("%s=%q: %w", name, raw, err))
		}
	}
	return errs
}

// firstSet returns the first non-empty value among the named variables.
func firstSet(lookup LookupFunc, names ...string) string {
	for _, n := range names {
		if n == "" {
			continue
		}
		if v, _ := lookup(n); v != "" {
			return v
		}
	}
	return ""
}

// assign parses raw into fv according to the field's type.
func assign(fv reflect.Value, raw string) error {
	if fv.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return errors.New("not a duration")
		}
		fv.SetInt(int64(d))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return errors.New("not an integer")
		}
		fv.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return errors.New("not a boolean")
		}
		fv.SetBool(b)
	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported list of %s", fv.Type().Elem())
		}
		fv.Set(reflect.ValueOf(splitList(raw)))
	default:
		return fmt.Errorf("unsupported type %s", fv.Type())
	}
	return nil
}

// splitList splits a comma-separated value, dropping blank entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// problems collects validation failures for one section.
type problems []string

func (p *problems) add(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

// Validate checks the loaded settings and describes every failure at once.
func (c *Config) Validate() error {
	var p problems
	c.Server.check(&p)
	c.Database.check(&p)
	c.Upload.check(&p)
	c.Rate.check(&p)
	c.Security.check(&p)
	c.Validation.check(&p)
	c.Retention.check(&p)
	c.Logging.check(&p)

	if len(p) == 0 {
		return nil
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(p, "\n  - "))
}

func (s ServerConfig) check(p *problems) {
	if s.Port < 1 || s.Port > 65535 {
		p.add("SERVER_PORT (%d) must be 1-65535", s.Port)
	}
	if s.ReadTimeout < 0 || s.WriteTimeout < 0 || s.IdleTimeout < 0 {
		p.add("SERVER_READ_TIMEOUT, SERVER_WRITE_TIMEOUT and SERVER_IDLE_TIMEOUT must be non-negative")
	}
	if s.ShutdownTimeout <= 0 {
		p.add("SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if s.RequestTimeout <= 0 {
		p.add("SERVER_REQUEST_TIMEOUT must be positive")
	}
}

// check validates pool sizing only when a database is configured.
func (d DatabaseConfig) check(p *problems) {
	if d.URL == "" {
		return
	}
	switch {
	case d.MaxConns <= 0:
		p.add("DB_MAX_CONNS must be positive")
	case d.MinConns < 0:
		p.add("DB_MIN_CONNS must be non-negative")
	case d.MaxConns < d.MinConns:
		p.add("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", d.MaxConns, d.MinConns)
	}
}

func (u UploadConfig) check(p *problems) {
	if u.MaxFileSize <= 0 {
		p.add("UPLOAD_MAX_FILE_SIZE must be positive")
	}
	if u.MaxConcurrent <= 0 {
		p.add("UPLOAD_MAX_CONCURRENT must be positive")
	}
	if u.MaxWaitTime <= 0 {
		p.add("UPLOAD_MAX_WAIT_TIME must be positive")
	}
	if u.Timeout <= 0 {
		p.add("UPLOAD_TIMEOUT must be positive")
	}
}

func (r RateLimitConfig) check(p *problems) {
	if r.Enabled && r.RequestsPerMinute <= 0 {
		p.add("RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
}

func (s SecurityConfig) check(p *problems) {
	if s.RequireAPIKey && len(s.APIKeys) == 0 {
		p.add("REQUIRE_API_KEY is set but API_KEYS is empty")
	}
}

func (v ValidationConfig) check(p *problems) {
	if _, err := csvcheck.ParseSeparator(v.Separator); err != nil {
		p.add("CSV_SEPARATOR: %v", err)
	} else if err := v.Options().Validate(); err != nil {
		p.add("CSV_SEPARATOR: %v", err)
	}
	if v.MaxLineBytes <= 0 {
		p.add("CSV_MAX_LINE_BYTES must be positive")
	}
}

func (r RetentionConfig) check(p *problems) {
	if r.Days < 0 {
		p.add("REPORT_RETENTION_DAYS must be non-negative")
	}
	if r.Days > 0 && r.CheckInterval <= 0 {
		p.add("REPORT_RETENTION_INTERVAL must be positive")
	}
}

func (l LoggingConfig) check(p *problems) {
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		p.add("LOG_LEVEL (%q) must be one of: debug, info, warn, error", l.Level)
	}
	switch strings.ToLower(l.Format) {
	case "text", "json":
	default:
		p.add("LOG_FORMAT (%q) must be one of: text, json", l.Format)
	}
}

// Options converts the configured dialect into validator options.
// An unparseable separator falls back to a comma; Validate reports it.
func (v ValidationConfig) Options() csvcheck.Options {
	opts := csvcheck.DefaultOptions()
	if sep, err := csvcheck.ParseSeparator(v.Separator); err == nil {
		opts.Separator = sep
	}
	opts.HasHeader = v.HasHeader
	return opts
}

// String renders the config for startup logs with the database URL and API
// keys masked.
func (c *Config) String() string {
	dbURL := "[none]"
	if c.Database.URL != "" {
		dbURL = "[MASKED]"
	}
	return fmt.Sprintf("Config{Server: {Addr: %q}, Database: {URL: %s, MaxConns: %d}, "+
		"Upload: {MaxFileSize: %d, MaxConcurrent: %d, Timeout: %s}, Rate: {Enabled: %t, PerMinute: %d}, "+
		"Security: {RequireAPIKey: %t, APIKeys: %d}, Validation: {Separator: %q, HasHeader: %t, ProfileDir: %q}, "+
		"Retention: {Days: %d}, Logging: {Level: %q, Format: %q}}",
		c.Server.Addr(), dbURL, c.Database.MaxConns,
		c.Upload.MaxFileSize, c.Upload.MaxConcurrent, c.Upload.Timeout, c.Rate.Enabled, c.Rate.RequestsPerMinute,
		c.Security.RequireAPIKey, len(c.Security.APIKeys), c.Validation.Separator, c.Validation.HasHeader, c.Validation.ProfileDir,
		c.Retention.Days, c.Logging.Level, c.Logging.Format)
}
