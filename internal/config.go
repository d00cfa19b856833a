package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/marca/internal/registry"
	"github.com/starford/marca/internal/scoring"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Registry RegistryConfig    `yaml:"registry"`
	Cache    CacheConfig       `yaml:"cache"`
	Scoring  ScoringConfig     `yaml:"scoring"`
	Watch    WatchConfig       `yaml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Registry.Validate(); err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int        `yaml:"port"`
	CORS CORSConfig `yaml:"cors"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RegistryConfig describes the trademark registry endpoints and how to talk to them.
type RegistryConfig struct {
	EntryURL        string             `yaml:"entry_url"`
	SearchURL       string             `yaml:"search_url"`
	UserAgent       string             `yaml:"user_agent"`
	AcceptLanguage  string             `yaml:"accept_language"`
	Timeout         time.Duration      `yaml:"timeout"`
	MaxRedirects    int                `yaml:"max_redirects"`
	CaptchaAttempts int                `yaml:"captcha_attempts"`
	CaptchaDelay    time.Duration      `yaml:"captcha_delay"`
	SessionTTL      time.Duration      `yaml:"session_ttl"`
	Selectors       registry.Selectors `yaml:"selectors"`
}

// Validate validates the registry configuration.
func (c *RegistryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.EntryURL, validation.Required, is.URL),
		validation.Field(&c.SearchURL, validation.Required, is.URL),
		validation.Field(&c.UserAgent, validation.Required),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.MaxRedirects, validation.Min(0), validation.Max(20)),
		validation.Field(&c.CaptchaAttempts, validation.Required, validation.Min(1), validation.Max(10)),
		validation.Field(&c.CaptchaDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.SessionTTL, validation.Required, validation.Min(time.Minute)),
		validation.Field(&c.Selectors, validation.By(func(any) error {
			return validation.ValidateStruct(&c.Selectors,
				validation.Field(&c.Selectors.Captcha, validation.Required),
				validation.Field(&c.Selectors.Rows, validation.Required),
			)
		})),
	)
}

// CacheConfig controls the search response cache.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Second)),
	)
}

// ScoringConfig holds the registry status labels the scoring engine treats
// specially. It can be changed at runtime when watching is enabled.
type ScoringConfig struct {
	ActiveStatuses     []string `yaml:"active_statuses"`
	OppositionStatuses []string `yaml:"opposition_statuses"`
}

// Validate validates the scoring configuration.
func (c *ScoringConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ActiveStatuses, validation.Required, validation.Each(validation.Required)),
		validation.Field(&c.OppositionStatuses, validation.Each(validation.Required)),
	)
}

// Policy converts the configuration into a scoring policy.
func (c *ScoringConfig) Policy() scoring.Policy {
	return scoring.Policy{
		ActiveStatuses:     c.ActiveStatuses,
		OppositionStatuses: c.OppositionStatuses,
	}
}

// WatchConfig controls config file hot reload.
type WatchConfig struct {
	Enabled bool `yaml:"enabled"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	policy := scoring.DefaultPolicy()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 3001,
				CORS: CORSConfig{AllowedOrigins: []string{"*"}},
			},
		},
		Registry: RegistryConfig{
			EntryURL:        "https://busca.inpi.gov.br/pePI/jsp/marcas/Pesquisa_classe_basica.jsp",
			SearchURL:       "https://busca.inpi.gov.br/pePI/servlet/MarcasServletController",
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			AcceptLanguage:  "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7",
			Timeout:         30 * time.Second,
			MaxRedirects:    5,
			CaptchaAttempts: 3,
			CaptchaDelay:    2 * time.Second,
			SessionTTL:      15 * time.Minute,
			Selectors:       registry.DefaultSelectors(),
		},
		Cache: CacheConfig{
			TTL: time.Hour,
		},
		Scoring: ScoringConfig{
			ActiveStatuses:     policy.ActiveStatuses,
			OppositionStatuses: policy.OppositionStatuses,
		},
	}
}
