package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env      string `yaml:"app_env"`
		Name     string `yaml:"name"`
		LogLevel string `yaml:"log_level"`
		Version  string `yaml:"-"`
	} `yaml:"app"`

	Server struct {
		Addr            string `yaml:"addr"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
		MaxBodyBytes    int64  `yaml:"max_body_bytes"`
	} `yaml:"server"`

	// Endpoint de publicación de claves del emisor de tokens.
	JWKS struct {
		URL          string `yaml:"url"`
		CacheTTL     string `yaml:"cache_ttl"`     // default 10m
		FetchTimeout string `yaml:"fetch_timeout"` // default 10s
	} `yaml:"jwks"`

	// Validación opcional de claims sobre tokens ya verificados.
	Claims struct {
		Issuer        string `yaml:"issuer"`
		Audience      string `yaml:"audience"`
		Leeway        string `yaml:"leeway"`
		RequireExpiry bool   `yaml:"require_expiry"`
	} `yaml:"claims"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			CleanupInterval string `yaml:"cleanup_interval"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	Pairing struct {
		TTL     string `yaml:"ttl"`      // default 5m
		AppName string `yaml:"app_name"` // aparece en el challenge
	} `yaml:"pairing"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		Window      string `yaml:"window"`
		MaxRequests int    `yaml:"max_requests"`
	} `yaml:"rate"`
}

// Default devuelve la configuración sin YAML (sólo defaults + env).
func Default() (*Config, error) {
	var c Config
	return c.finish()
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return c.finish()
}

func (c *Config) finish() (*Config, error) {
	c.applyDefaults()
	// Overrides por env
	c.applyEnvOverrides()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Name == "" {
		c.App.Name = "sigverify"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "15s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 64 << 10
	}
	if c.JWKS.CacheTTL == "" {
		c.JWKS.CacheTTL = "10m"
	}
	if c.JWKS.FetchTimeout == "" {
		c.JWKS.FetchTimeout = "10s"
	}
	if c.Claims.Leeway == "" {
		c.Claims.Leeway = "30s"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "sigverify"
	}
	if c.Cache.Memory.CleanupInterval == "" {
		c.Cache.Memory.CleanupInterval = "1m"
	}
	if c.Pairing.TTL == "" {
		c.Pairing.TTL = "5m"
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 60
	}
}

// ---- Helpers env ----
func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = strings.ToLower(v)
	}
	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	// JWKS
	if v, ok := getEnvStr("JWKS_URL"); ok {
		c.JWKS.URL = v
	}
	if v, ok := getEnvStr("JWKS_CACHE_TTL"); ok {
		c.JWKS.CacheTTL = v
	}
	if v, ok := getEnvStr("JWKS_FETCH_TIMEOUT"); ok {
		c.JWKS.FetchTimeout = v
	}
	// CLAIMS
	if v, ok := getEnvStr("CLAIMS_ISSUER"); ok {
		c.Claims.Issuer = v
	}
	if v, ok := getEnvStr("CLAIMS_AUDIENCE"); ok {
		c.Claims.Audience = v
	}
	if v, ok := getEnvBool("CLAIMS_REQUIRE_EXPIRY"); ok {
		c.Claims.RequireExpiry = v
	}
	// CACHE
	if v, ok := getEnvStr("CACHE_DRIVER"); ok {
		c.Cache.Kind = v
	} else if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}
	// PAIRING
	if v, ok := getEnvStr("PAIRING_TTL"); ok {
		c.Pairing.TTL = v
	}
	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
}

// Validate chequea URLs, drivers y duraciones. No exige JWKS.URL: los
// comandos que no verifican tokens (recover, jwks) no lo necesitan.
func (c *Config) Validate() error {
	var errs []error

	if u := strings.TrimSpace(c.JWKS.URL); u != "" {
		pu, err := url.Parse(u)
		if err != nil || (pu.Scheme != "http" && pu.Scheme != "https") || pu.Host == "" {
			errs = append(errs, fmt.Errorf("jwks.url: must be an absolute http(s) URL, got %q", u))
		} else if pu.Scheme == "http" && c.IsProd() {
			errs = append(errs, errors.New("jwks.url: https required in prod"))
		}
	}

	switch strings.ToLower(c.Cache.Kind) {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.Cache.Redis.Addr) == "" {
			errs = append(errs, errors.New("cache.redis.addr: required when cache.kind=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.kind: unknown %q", c.Cache.Kind))
	}

	for name, v := range map[string]string{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"jwks.cache_ttl":          c.JWKS.CacheTTL,
		"jwks.fetch_timeout":      c.JWKS.FetchTimeout,
		"claims.leeway":           c.Claims.Leeway,
		"cache.memory.cleanup":    c.Cache.Memory.CleanupInterval,
		"pairing.ttl":             c.Pairing.TTL,
		"rate.window":             c.Rate.Window,
	} {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s: must not be negative", name))
		}
	}
	if c.Rate.Enabled && c.Rate.MaxRequests <= 0 {
		errs = append(errs, errors.New("rate.max_requests: must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProd() bool { return strings.EqualFold(c.App.Env, "prod") }

// Dur parsea una duración ya validada.
func Dur(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
