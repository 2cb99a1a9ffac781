package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full application configuration. Values load from a YAML
// file, with secrets taken from the environment so they never live on disk.
type Config struct {
	Logging  Logging  `yaml:"logging"`
	Database Database `yaml:"database"`
	ArXiv    ArXiv    `yaml:"arxiv"`
	LLM      LLM      `yaml:"llm"`
	Telegram Telegram `yaml:"telegram"`
	SMTP     SMTP     `yaml:"smtp"`
	Web      Web      `yaml:"web"`
	Digest   Digest   `yaml:"digest"`
}

type Logging struct {
	Level string `yaml:"level"`
}

type Database struct {
	Path string `yaml:"path"`
}

type ArXiv struct {
	Categories      []string `yaml:"categories"`
	MaxPerCategory  int      `yaml:"max_per_category"`
	IntervalMinutes int      `yaml:"interval_minutes"`
}

// Interval is the fetch cycle period.
func (a ArXiv) Interval() time.Duration {
	return time.Duration(a.IntervalMinutes) * time.Minute
}

type LLM struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"-"`
}

type Telegram struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"-"`
}

type SMTP struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	From     string `yaml:"from"`
	User     string `yaml:"-"`
	Password string `yaml:"-"`
}

type Web struct {
	Addr string `yaml:"addr"`
}

type Digest struct {
	Enabled bool `yaml:"enabled"`
}

func defaults() Config {
	return Config{
		Logging:  Logging{Level: "info"},
		Database: Database{Path: "paperscribe.db"},
		ArXiv: ArXiv{
			Categories:      []string{"cs.LG", "cs.CL", "cs.AI"},
			MaxPerCategory:  100,
			IntervalMinutes: 60,
		},
		LLM: LLM{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		SMTP: SMTP{Port: 587},
		Web:  Web{Addr: ":8080"},
	}
}

// Load reads the config file at path (optional, defaults apply when absent)
// and overlays environment secrets.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	cfg.Telegram.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.SMTP.User = os.Getenv("SMTP_USER")
	cfg.SMTP.Password = os.Getenv("SMTP_PASS")

	switch cfg.LLM.Provider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case "gemini":
		cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
	}
}

func (c Config) validate() error {
	if len(c.ArXiv.Categories) == 0 {
		return fmt.Errorf("config: at least one arxiv category is required")
	}
	if c.ArXiv.IntervalMinutes <= 0 {
		return fmt.Errorf("config: interval_minutes must be positive")
	}
	switch c.LLM.Provider {
	case "openai", "anthropic", "gemini", "ollama":
	default:
		return fmt.Errorf("config: unknown llm provider %q", c.LLM.Provider)
	}
	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return fmt.Errorf("config: telegram enabled but TELEGRAM_BOT_TOKEN is not set")
	}
	if c.Digest.Enabled && c.SMTP.Host == "" {
		return fmt.Errorf("config: digests enabled but smtp host is not set")
	}
	return nil
}
