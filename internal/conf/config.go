package conf

import (
	"fmt"
	"time"

	"github.com/lk2023060901/mercari-shopper-backend/internal/pkg/cache"
	"github.com/lk2023060901/mercari-shopper-backend/internal/pkg/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     logger.Config `mapstructure:"log"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Agent   AgentConfig   `mapstructure:"agent"`
	Scraper ScraperConfig `mapstructure:"scraper"`
	Cache   cache.Config  `mapstructure:"cache"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type AgentConfig struct {
	MaxRounds     int           `mapstructure:"max_rounds"`
	TopK          int           `mapstructure:"top_k"`
	SearchLimit   int           `mapstructure:"search_limit"`
	EnrichWorkers int           `mapstructure:"enrich_workers"`
	RoundTimeout  time.Duration `mapstructure:"round_timeout"`
	DetailTimeout time.Duration `mapstructure:"detail_timeout"`
}

type ScraperConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Headless       bool          `mapstructure:"headless"`
	ExecutablePath string        `mapstructure:"executable_path"`
	SearchWait     time.Duration `mapstructure:"search_wait"`
	DetailTimeout  time.Duration `mapstructure:"detail_timeout"`
	SearchLimit    int           `mapstructure:"search_limit"`
}

func LoadConfig(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()

	// The API key comes from the process environment, never from the file.
	_ = viper.BindEnv("openai.api_key", "OPENAI_API_KEY")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4.1-mini"
	}
	if c.OpenAI.Timeout == 0 {
		c.OpenAI.Timeout = 30 * time.Second
	}
	if c.Agent.MaxRounds == 0 {
		c.Agent.MaxRounds = 6
	}
	if c.Agent.TopK == 0 {
		c.Agent.TopK = 3
	}
	if c.Agent.SearchLimit == 0 {
		c.Agent.SearchLimit = 20
	}
	if c.Agent.EnrichWorkers == 0 {
		c.Agent.EnrichWorkers = 5
	}
	if c.Agent.RoundTimeout == 0 {
		c.Agent.RoundTimeout = 30 * time.Second
	}
	if c.Agent.DetailTimeout == 0 {
		c.Agent.DetailTimeout = 20 * time.Second
	}
	if c.Scraper.BaseURL == "" {
		c.Scraper.BaseURL = "https://jp.mercari.com"
	}
	if c.Scraper.SearchWait == 0 {
		c.Scraper.SearchWait = 10 * time.Second
	}
	if c.Scraper.DetailTimeout == 0 {
		c.Scraper.DetailTimeout = 20 * time.Second
	}
	if c.Scraper.SearchLimit == 0 {
		c.Scraper.SearchLimit = 20
	}
}
