package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lk2023060901/mercari-shopper-backend/internal/agent/biz"
	"github.com/lk2023060901/mercari-shopper-backend/internal/agent/llm"
	agentservice "github.com/lk2023060901/mercari-shopper-backend/internal/agent/service"
	"github.com/lk2023060901/mercari-shopper-backend/internal/conf"
	"github.com/lk2023060901/mercari-shopper-backend/internal/marketplace/scraper"
	"github.com/lk2023060901/mercari-shopper-backend/internal/pkg/cache"
	"github.com/lk2023060901/mercari-shopper-backend/internal/pkg/logger"
	"github.com/lk2023060901/mercari-shopper-backend/internal/pkg/workerpool"
	"github.com/lk2023060901/mercari-shopper-backend/internal/server"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "config.yaml", "config file path")
)

func main() {
	flag.Parse()

	// Optional .env for local development; the real environment wins.
	_ = godotenv.Load()

	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(&config.Log)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	if err := logger.InitGlobal(&config.Log); err != nil {
		log.Fatal("failed to initialize global logger", zap.Error(err))
	}

	log.Info("config loaded successfully")

	// LLM client; fails fast on a missing API key before anything network-y.
	llmClient, err := llm.New(&llm.Config{
		APIKey:  config.OpenAI.APIKey,
		BaseURL: config.OpenAI.BaseURL,
		Model:   config.OpenAI.Model,
		Timeout: config.OpenAI.Timeout,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize LLM client", zap.Error(err))
	}

	// Optional search cache.
	searchCache, err := cache.New(&config.Cache, log)
	if err != nil {
		log.Fatal("failed to initialize search cache", zap.Error(err))
	}
	defer searchCache.Close()

	// Marketplace scraper.
	market, err := scraper.New(&scraper.Config{
		BaseURL:        config.Scraper.BaseURL,
		Headless:       config.Scraper.Headless,
		ExecutablePath: config.Scraper.ExecutablePath,
		SearchWait:     config.Scraper.SearchWait,
		DetailTimeout:  config.Scraper.DetailTimeout,
		SearchLimit:    config.Scraper.SearchLimit,
	}, searchCache, log)
	if err != nil {
		log.Fatal("failed to initialize marketplace scraper", zap.Error(err))
	}
	defer market.Close()

	// Bounded pool for detail enrichment; each fetch may hold a browser page.
	pool, err := workerpool.New(config.Agent.EnrichWorkers, log.Logger)
	if err != nil {
		log.Fatal("failed to initialize worker pool", zap.Error(err))
	}
	defer pool.Release()

	selector := biz.NewSelector(llmClient, log)
	enricher := biz.NewEnricher(market, pool, config.Agent.DetailTimeout, log)
	agent := biz.NewAgent(llmClient, market, selector, enricher, biz.Config{
		MaxRounds:     config.Agent.MaxRounds,
		TopK:          config.Agent.TopK,
		SearchLimit:   config.Agent.SearchLimit,
		RoundTimeout:  config.Agent.RoundTimeout,
		DetailTimeout: config.Agent.DetailTimeout,
	}, log)

	agentService := agentservice.NewAgentService(agent, log)
	httpServer := server.NewHTTPServer(config, log, agentService)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	log.Info("server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
