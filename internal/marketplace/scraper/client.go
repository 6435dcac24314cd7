package scraper

import (
	"fmt"
	"os"
	"time"

	"github.com/lk2023060901/mercari-shopper-backend/internal/pkg/cache"
	"github.com/lk2023060901/mercari-shopper-backend/internal/pkg/logger"
	pw "github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// Config holds scraper settings.
type Config struct {
	BaseURL        string        `mapstructure:"base_url" yaml:"base_url"`
	Headless       bool          `mapstructure:"headless" yaml:"headless"`
	ExecutablePath string        `mapstructure:"executable_path" yaml:"executable_path"`
	SearchWait     time.Duration `mapstructure:"search_wait" yaml:"search_wait"`   // render-wait budget for result tiles
	DetailTimeout  time.Duration `mapstructure:"detail_timeout" yaml:"detail_timeout"`
	SearchLimit    int           `mapstructure:"search_limit" yaml:"search_limit"` // default cap on returned summaries
}

// DefaultConfig returns scraper defaults matching jp.mercari.com.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:       "https://jp.mercari.com",
		Headless:      true,
		SearchWait:    10 * time.Second,
		DetailTimeout: 20 * time.Second,
		SearchLimit:   20,
	}
}

// Client drives a headless Chromium instance against the marketplace. Both
// operations are read-only; Search degrades to an empty result set on render
// timeout while FetchDetail propagates failures to the caller.
type Client struct {
	config  *Config
	pw      *pw.Playwright
	browser pw.Browser
	cache   *cache.Client
	logger  *logger.Logger
}

// New starts Playwright and launches the browser. The cache client may be
// nil; searches then always hit the marketplace.
func New(cfg *Config, searchCache *cache.Client, log *logger.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	instance, err := pw.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOptions := pw.BrowserTypeLaunchOptions{
		Headless: pw.Bool(cfg.Headless),
	}

	executablePath := cfg.ExecutablePath
	if executablePath == "" {
		executablePath = os.Getenv("PLAYWRIGHT_EXECUTABLE_PATH")
	}
	if executablePath != "" {
		launchOptions.ExecutablePath = &executablePath
		log.Info("using browser executable", zap.String("path", executablePath))
	}

	browser, err := instance.Chromium.Launch(launchOptions)
	if err != nil {
		_ = instance.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &Client{
		config:  cfg,
		pw:      instance,
		browser: browser,
		cache:   searchCache,
		logger:  log.Named("scraper"),
	}, nil
}

// Close shuts the browser and the Playwright driver down.
func (c *Client) Close() error {
	if err := c.browser.Close(); err != nil {
		c.logger.Warn("browser close failed", zap.Error(err))
	}
	return c.pw.Stop()
}
