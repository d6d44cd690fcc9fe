package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/newthinker/tradesim/internal/core"
	"github.com/newthinker/tradesim/internal/ingest"
	"github.com/newthinker/tradesim/internal/simulation"
	"github.com/newthinker/tradesim/internal/storage/archive"
	"github.com/spf13/viper"
)

type Config struct {
	Simulation SimulationConfig `mapstructure:"simulation"`
	Input      InputConfig      `mapstructure:"input"`
	Output     OutputConfig     `mapstructure:"output"`
	Server     ServerConfig     `mapstructure:"server"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Log        LogConfig        `mapstructure:"log"`
}

type SimulationConfig struct {
	TradingWindow        int     `mapstructure:"trading_window"`
	DailyInvestmentLimit float64 `mapstructure:"daily_investment_limit"`
	ZeroOpenPolicy       string  `mapstructure:"zero_open_policy"` // "skip" or "fail"
}

type InputConfig struct {
	Prefix  string        `mapstructure:"prefix"` // file or directory inside storage
	Storage StorageConfig `mapstructure:"storage"`
	Format  FormatConfig  `mapstructure:"format"`
}

type FormatConfig struct {
	HeaderSentinel string `mapstructure:"header_sentinel"`
	Delimiter      string `mapstructure:"delimiter"`
	DateLayout     string `mapstructure:"date_layout"`
	DateField      int    `mapstructure:"date_field"`
	OpenField      int    `mapstructure:"open_field"`
	AdjCloseField  int    `mapstructure:"adj_close_field"`
	SymbolField    int    `mapstructure:"symbol_field"` // -1 takes the symbol from the file name
}

type OutputConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Storage StorageConfig `mapstructure:"storage"`
}

type StorageConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	JobTTLHours int    `mapstructure:"job_ttl_hours"`
	MaxJobs     int    `mapstructure:"max_jobs"`
	APIKey      string `mapstructure:"api_key"` // empty disables auth
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Path     string `mapstructure:"path"`
	Textfile string `mapstructure:"textfile"` // written after a CLI run when set
}

type LLMConfig struct {
	Provider string       `mapstructure:"provider"`
	Claude   ClaudeConfig `mapstructure:"claude"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
}

type ClaudeConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// NotifyConfig lists the endpoints told about finished runs.
type NotifyConfig struct {
	Webhooks []WebhookConfig `mapstructure:"webhooks"`
}

type WebhookConfig struct {
	Name    string            `mapstructure:"name"`
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads configuration from file on top of Defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides, e.g. TRADESIM_SIMULATION_TRADING_WINDOW
	v.SetEnvPrefix("tradesim")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	format := ingest.DefaultFormat()
	return &Config{
		Simulation: SimulationConfig{
			TradingWindow:        30,
			DailyInvestmentLimit: 10000,
			ZeroOpenPolicy:       string(simulation.ZeroOpenSkip),
		},
		Input: InputConfig{
			Storage: StorageConfig{Type: archive.TypeLocalFS, Path: "."},
			Format: FormatConfig{
				HeaderSentinel: format.HeaderSentinel,
				Delimiter:      format.Delimiter,
				DateLayout:     format.DateLayout,
				DateField:      format.DateField,
				OpenField:      format.OpenField,
				AdjCloseField:  format.AdjCloseField,
				SymbolField:    format.SymbolField,
			},
		},
		Output: OutputConfig{
			Storage: StorageConfig{Type: archive.TypeLocalFS, Path: "runs"},
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			JobTTLHours: 1,
			MaxJobs:     100,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Simulation.Params().Validate(); err != nil {
		return err
	}

	f := c.Input.Format
	if f.Delimiter == "" {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("input delimiter cannot be empty"))
	}
	if f.DateLayout == "" {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("input date_layout cannot be empty"))
	}
	if f.DateField < 0 || f.OpenField < 0 || f.AdjCloseField < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("date, open and adj_close field positions must be non-negative"))
	}

	if err := c.Input.Storage.validate("input"); err != nil {
		return err
	}
	if c.Output.Enabled {
		if err := c.Output.Storage.validate("output"); err != nil {
			return err
		}
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	// LLM validation - if provider set, check config exists
	switch c.LLM.Provider {
	case "":
	case "claude":
		if c.LLM.Claude.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("claude api_key required when provider is claude"))
		}
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("openai api_key required when provider is openai"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
	}

	seen := make(map[string]bool)
	for i, w := range c.Notify.Webhooks {
		if w.URL == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("notify webhook %d: url required", i))
		}
		name := w.Name
		if name == "" {
			name = "webhook"
		}
		if seen[name] {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("notify webhook name %q used twice", name))
		}
		seen[name] = true
	}

	return nil
}

func (s StorageConfig) validate(section string) error {
	switch s.Type {
	case "", archive.TypeLocalFS:
		return nil
	case archive.TypeS3:
		if s.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("%s s3 bucket required when storage type is s3", section))
		}
		return nil
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("%s storage type must be localfs or s3, got %q", section, s.Type))
	}
}

// Params converts the section into simulator parameters.
func (s SimulationConfig) Params() simulation.Config {
	return simulation.Config{
		TradingWindow:        s.TradingWindow,
		DailyInvestmentLimit: s.DailyInvestmentLimit,
		ZeroOpen:             simulation.ZeroOpenPolicy(s.ZeroOpenPolicy),
	}
}

// Options converts the section into storage backend options.
func (s StorageConfig) Options() archive.Options {
	return archive.Options{
		Type: s.Type,
		Path: s.Path,
		S3: archive.S3Config{
			Bucket:    s.S3.Bucket,
			Endpoint:  s.S3.Endpoint,
			Region:    s.S3.Region,
			AccessKey: s.S3.AccessKey,
			SecretKey: s.S3.SecretKey,
			Prefix:    s.S3.Prefix,
		},
	}
}

// Format converts the section into an ingest line format.
func (f FormatConfig) Format() ingest.Format {
	return ingest.Format{
		HeaderSentinel: f.HeaderSentinel,
		Delimiter:      f.Delimiter,
		DateLayout:     f.DateLayout,
		DateField:      f.DateField,
		OpenField:      f.OpenField,
		AdjCloseField:  f.AdjCloseField,
		SymbolField:    f.SymbolField,
	}
}
