package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/shell-match/internal/match"
)

// Config holds the full application configuration.
type Config struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Assess     AssessConfig     `yaml:"assess" mapstructure:"assess"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai" mapstructure:"openai"`
	Domains    DomainsConfig    `yaml:"domains" mapstructure:"domains"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Match      MatchConfig      `yaml:"-" mapstructure:"-"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	CORSOrigins    []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	MaxUploadMB    int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	RequestTimeout int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
}

// SalesforceConfig holds Salesforce auth settings. One of AccessToken, JWT
// (ClientID + KeyPath + Username) or Username + Password must be set.
type SalesforceConfig struct {
	LoginURL      string        `yaml:"login_url" mapstructure:"login_url"`
	Username      string        `yaml:"username" mapstructure:"username"`
	Password      string        `yaml:"password" mapstructure:"password"`
	SecurityToken string        `yaml:"security_token" mapstructure:"security_token"`
	ClientID      string        `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret  string        `yaml:"client_secret" mapstructure:"client_secret"`
	KeyPath       string        `yaml:"key_path" mapstructure:"key_path"`
	AccessToken   string        `yaml:"access_token" mapstructure:"access_token"`
	RateLimit     float64       `yaml:"rate_limit" mapstructure:"rate_limit"`
	SessionMaxAge time.Duration `yaml:"session_max_age" mapstructure:"session_max_age"`
}

// Configured reports whether any Salesforce auth flow has its credentials.
func (c SalesforceConfig) Configured() bool {
	return c.AccessToken != "" ||
		(c.ClientID != "" && c.KeyPath != "" && c.Username != "") ||
		(c.Username != "" && c.Password != "")
}

// AssessConfig configures the LLM second opinion on matched pairs.
type AssessConfig struct {
	Enabled       bool          `yaml:"enabled" mapstructure:"enabled"`
	Provider      string        `yaml:"provider" mapstructure:"provider"`
	MaxTokens     int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature   float64       `yaml:"temperature" mapstructure:"temperature"`
	Concurrency   int           `yaml:"concurrency" mapstructure:"concurrency"`
	BatchSize     int           `yaml:"batch_size" mapstructure:"batch_size"`
	CallDelay     time.Duration `yaml:"call_delay" mapstructure:"call_delay"`
	BatchDelay    time.Duration `yaml:"batch_delay" mapstructure:"batch_delay"`
	RetryAttempts int           `yaml:"retry_attempts" mapstructure:"retry_attempts"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// DomainsConfig points at an optional bad-domain YAML file.
type DomainsConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// StoreConfig configures the run store. An empty or "none" driver disables it.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// MatchConfig reports the candidate index constants. They are fixed by the
// matcher and only surfaced for diagnostics.
type MatchConfig struct {
	CandidateThreshold int `json:"candidate_threshold"`
	MinTokenLength     int `json:"min_token_length"`
}

// envAliases maps config keys to the plain variable names commonly found in
// .env files, checked after the SHELLMATCH_ form.
var envAliases = map[string][]string{
	"salesforce.username":       {"SALESFORCE_USERNAME"},
	"salesforce.password":       {"SALESFORCE_PASSWORD"},
	"salesforce.security_token": {"SALESFORCE_SECURITY_TOKEN"},
	"salesforce.login_url":      {"SALESFORCE_DOMAIN"},
	"salesforce.access_token":   {"SALESFORCE_ACCESS_TOKEN"},
	"anthropic.key":             {"ANTHROPIC_API_KEY"},
	"openai.key":                {"OPENAI_API_KEY"},
	"store.database_url":        {"DATABASE_URL"},
}

// Load reads configuration from .env files, config.yaml and the environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path falls back
// to an optional config.yaml in the working directory; a named file must
// exist.
func LoadFile(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("SHELLMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		names := append([]string{"SHELLMATCH_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("server.request_timeout_secs", 600)
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.rate_limit", 10)
	v.SetDefault("salesforce.session_max_age", time.Hour)
	v.SetDefault("assess.enabled", true)
	v.SetDefault("assess.provider", "openai")
	v.SetDefault("assess.max_tokens", 1000)
	v.SetDefault("assess.temperature", 0.1)
	v.SetDefault("assess.concurrency", 10)
	v.SetDefault("assess.batch_size", 10)
	v.SetDefault("assess.call_delay", time.Second)
	v.SetDefault("assess.batch_delay", 2*time.Second)
	v.SetDefault("assess.retry_attempts", 3)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "shellmatch.db")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if cfg.Store.Driver == "none" {
		cfg.Store.Driver = ""
	}
	cfg.Salesforce.LoginURL = loginURL(cfg.Salesforce.LoginURL)
	cfg.Match = MatchConfig{
		CandidateThreshold: match.NameUnionThreshold,
		MinTokenLength:     match.MinNameTokenLen,
	}

	return &cfg, nil
}

// loginURL expands a bare Salesforce domain such as "login" or "test" to
// its https URL.
func loginURL(domain string) string {
	if domain == "" || strings.Contains(domain, "://") {
		return domain
	}
	domain = strings.TrimSuffix(domain, ".salesforce.com")
	return "https://" + domain + ".salesforce.com"
}

// loadEnvFiles loads .env.local then .env. Variables already set win, so
// .env.local overrides .env and the real environment overrides both.
func loadEnvFiles() {
	for _, f := range []string{".env.local", ".env"} {
		_ = godotenv.Load(f)
	}
}

// Validate checks the settings a mode needs and reports every problem in
// one error. Modes: "serve", "salesforce", "assess", "store".
func (c *Config) Validate(mode string) error {
	var errs []string
	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.MaxUploadMB <= 0 {
			errs = append(errs, "server.max_upload_mb must be > 0")
		}
		errs = append(errs, c.validateAssessBounds()...)
		errs = append(errs, c.validateStore()...)
	case "salesforce":
		if !c.Salesforce.Configured() {
			errs = append(errs, "salesforce credentials are required (access_token, client_id+key_path+username, or username+password)")
		}
		if c.Salesforce.LoginURL == "" && c.Salesforce.AccessToken == "" {
			errs = append(errs, "salesforce.login_url is required")
		}
	case "assess":
		switch c.Assess.Provider {
		case "anthropic":
			if c.Anthropic.Key == "" {
				errs = append(errs, "anthropic.key is required")
			}
		case "openai":
			if c.OpenAI.Key == "" {
				errs = append(errs, "openai.key is required")
			}
		default:
			errs = append(errs, "assess.provider must be anthropic or openai")
		}
		errs = append(errs, c.validateAssessBounds()...)
	case "store":
		errs = append(errs, c.validateStore()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}
	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateAssessBounds() []string {
	var errs []string
	if c.Assess.Concurrency < 1 || c.Assess.Concurrency > 50 {
		errs = append(errs, "assess.concurrency must be between 1 and 50")
	}
	if c.Assess.BatchSize < 1 {
		errs = append(errs, "assess.batch_size must be > 0")
	}
	if c.Assess.CallDelay < 0 || c.Assess.BatchDelay < 0 {
		errs = append(errs, "assess delays must not be negative")
	}
	return errs
}

func (c *Config) validateStore() []string {
	switch c.Store.Driver {
	case "", "sqlite":
		return nil
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return []string{"store.database_url is required"}
		}
		return nil
	}
	return []string{"store.driver must be sqlite, postgres or none"}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
