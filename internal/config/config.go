package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	EnvLogLevel = "SAIDL_LOG_LEVEL"
	EnvRedisURL = "SAIDL_REDIS_URL"

	defaultLogLevel     = LogLevelInfo
	defaultTimeout      = 30 * time.Second
	defaultRetryBackoff = time.Second
	defaultCacheTTL     = 24 * time.Hour
	defaultFragmentExt  = "ts"
	defaultWorkDir      = "."
	defaultFFmpeg       = "ffmpeg"
	defaultAuthor       = "Sai"
)

type HTTPConfig struct {
	H2           bool          `yaml:"h2"`
	Timeout      time.Duration `yaml:"timeout"`
	Retry        *int          `yaml:"retry"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	Delay        time.Duration `yaml:"delay"`
	RateLimit    float64       `yaml:"rate_limit"`
	HeadersFile  string        `yaml:"headers_file"`
}

type CacheConfig struct {
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
}

type BookConfig struct {
	Name            string `yaml:"name"`
	Author          string `yaml:"author"`
	TitleSelector   string `yaml:"title_selector"`
	ContentSelector string `yaml:"content_selector"`
	ChapterNum      bool   `yaml:"chapter_num"`
	MultiThread     bool   `yaml:"multi_thread"`
	Preface         string `yaml:"preface"`
	Flow            Flow   `yaml:"flow"`
}

type MediaConfig struct {
	Input       string `yaml:"input"`
	PNG         bool   `yaml:"png"`
	Keep        bool   `yaml:"keep"`
	Output      string `yaml:"output"`
	MultiThread bool   `yaml:"multi_thread"`
	Ext         string `yaml:"ext"`
	WorkDir     string `yaml:"work_dir"`
	FFmpeg      string `yaml:"ffmpeg"`
}

type Config struct {
	LogLevel string      `yaml:"log_level"`
	HTTP     HTTPConfig  `yaml:"http"`
	Cache    CacheConfig `yaml:"cache"`
	Book     BookConfig  `yaml:"book"`
	Media    MediaConfig `yaml:"media"`
}

func (c *Config) SetDefaults() {
	c.LogLevel = defaultLogLevel
	c.HTTP.Timeout = defaultTimeout
	c.HTTP.RetryBackoff = defaultRetryBackoff
	c.Cache.TTL = defaultCacheTTL
	c.Book.Author = defaultAuthor
	c.Media.Ext = defaultFragmentExt
	c.Media.WorkDir = defaultWorkDir
	c.Media.FFmpeg = defaultFFmpeg
}

func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	return LoadWithFS(afero.NewOsFs(), path)
}

// LoadWithFS applies defaults, then the YAML file (if path is set), then the environment.
func LoadWithFS(fs afero.Fs, path string) (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.SetDefaults()

	if path != "" {
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
		}
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}

	if v := os.Getenv(EnvRedisURL); v != "" {
		cfg.Cache.RedisURL = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}

	if c.HTTP.Retry != nil && *c.HTTP.Retry < 0 {
		return fmt.Errorf("retry must not be negative")
	}

	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if c.HTTP.Delay < 0 || c.HTTP.RetryBackoff < 0 {
		return fmt.Errorf("delay and retry_backoff must not be negative")
	}

	if c.HTTP.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}

	return nil
}

func (c *BookConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("book name is required")
	}

	if c.TitleSelector == "" || c.ContentSelector == "" {
		return fmt.Errorf("title_selector and content_selector are required")
	}

	return c.Flow.Validate()
}

func (c *MediaConfig) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("input file is required")
	}

	if c.Ext == "" {
		return fmt.Errorf("fragment extension is required")
	}

	return nil
}
