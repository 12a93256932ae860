package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes yaml strings in Go's duration syntax ("300ms", "30s",
// "2h45m") into a time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// Std converts back to the standard type.
func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Analysis struct {
		MaxFiles     int      `yaml:"maxFiles"`
		PollInterval Duration `yaml:"pollInterval"`
		PassTimeout  Duration `yaml:"passTimeout"`
	} `yaml:"analysis"`

	AI struct {
		BaseURL         string   `yaml:"baseURL"`
		APIKey          string   `yaml:"apiKey"`
		Model           string   `yaml:"model"`
		MaxConcurrent   int      `yaml:"maxConcurrent"`
		CacheTTL        Duration `yaml:"cacheTTL"`
		BatchRetention  Duration `yaml:"batchRetention"`
		GenerateTimeout Duration `yaml:"generateTimeout"`
		Temperature     float32  `yaml:"temperature"`
		MaxTokens       int      `yaml:"maxTokens"`
	} `yaml:"ai"`

	Analyzers struct {
		ESLintConfig string   `yaml:"eslintConfig"`
		SemgrepRules []string `yaml:"semgrepRules"`
	} `yaml:"analyzers"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"cors"`

	RateLimit struct {
		PerSecond int `yaml:"perSecond"`
		Burst     int `yaml:"burst"`
	} `yaml:"rateLimit"`
}

// Load reads the yaml config file and applies env overrides. A missing file
// yields the defaults so the server can run with zero configuration.
func Load(path string) (*Config, error) {
	var cfg Config
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.Server.Port = 8000
	c.Analysis.MaxFiles = 10000
	c.AI.BaseURL = "http://localhost:11434/v1"
	c.AI.APIKey = "ollama"
	c.AI.MaxConcurrent = 2
	c.AI.CacheTTL = Duration(7 * 24 * time.Hour)
	c.AI.BatchRetention = Duration(24 * time.Hour)
	c.Logging.Level = "info"
	c.Logging.Format = "text"
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MAX_ANALYSIS_FILES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Analysis.MaxFiles = n
		}
	}
	if v := os.Getenv("AI_BASE_URL"); v != "" {
		c.AI.BaseURL = v
	}
	if v := os.Getenv("AI_API_KEY"); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Server.Port = n
		}
	}
}
