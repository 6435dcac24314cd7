// Command shopper runs a single shopping request from the command line:
//
//	shopper "I want a used iPhone under 15000 yen"
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lk2023060901/mercari-shopper-backend/internal/agent/biz"
	"github.com/lk2023060901/mercari-shopper-backend/internal/agent/llm"
	"github.com/lk2023060901/mercari-shopper-backend/internal/conf"
	"github.com/lk2023060901/mercari-shopper-backend/internal/marketplace/scraper"
	"github.com/lk2023060901/mercari-shopper-backend/internal/pkg/cache"
	"github.com/lk2023060901/mercari-shopper-backend/internal/pkg/logger"
	"github.com/lk2023060901/mercari-shopper-backend/internal/pkg/workerpool"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "config.yaml", "config file path")
)

func main() {
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: shopper [-config config.yaml] <request>")
		os.Exit(2)
	}
	userInput := strings.Join(flag.Args(), " ")

	_ = godotenv.Load()

	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	log, err := logger.New(&config.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	llmClient, err := llm.New(&llm.Config{
		APIKey:  config.OpenAI.APIKey,
		BaseURL: config.OpenAI.BaseURL,
		Model:   config.OpenAI.Model,
		Timeout: config.OpenAI.Timeout,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize LLM client", zap.Error(err))
	}

	searchCache, err := cache.New(&config.Cache, log)
	if err != nil {
		log.Fatal("failed to initialize search cache", zap.Error(err))
	}
	defer searchCache.Close()

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

	result, err := agent.Respond(context.Background(), userInput)
	if err != nil {
		log.Fatal("request failed", zap.Error(err))
	}

	fmt.Println(result.Message)
	if len(result.Products) > 0 {
		fmt.Println()
		for i, p := range result.Products {
			fmt.Printf("%d. %s  %s\n", i+1, p.Name, p.Price)
			if p.URL != "" {
				fmt.Printf("   %s\n", p.URL)
			}
		}
	}
}
