package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"podbrief/internal/ai"
	"podbrief/internal/config"
	"podbrief/internal/db"
	"podbrief/internal/email"
	"podbrief/internal/jobs"
	"podbrief/internal/pipeline"
	"podbrief/internal/search"
	"podbrief/internal/store/rabbitmq"
	"podbrief/internal/store/redisstore"
)

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

func buildProvider(cfg config.Config) (ai.Provider, error) {
	reg := ai.NewRegistry()

	reg.Register("anthropic", func(model string) (ai.Provider, error) {
		if cfg.AnthropicAPIKey == "" {
			return nil, errors.New("anthropic api key not configured")
		}
		if model == "" {
			model = cfg.AnthropicModel
		}
		return ai.NewAnthropicProvider(cfg.AnthropicBaseURL, cfg.AnthropicAPIKey, model), nil
	})

	reg.Register("openrouter", func(model string) (ai.Provider, error) {
		if cfg.OpenRouterAPIKey == "" {
			return nil, errors.New("openrouter api key not configured")
		}
		if model == "" {
			model = cfg.OpenRouterModel
		}
		return ai.NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, model), nil
	})

	return reg.Get(cfg.AIProvider, "")
}

func buildProcessor(cfg config.Config, repo *jobs.Repo, cache *redisstore.Store) *pipeline.Processor {
	provider, err := buildProvider(cfg)
	if err != nil {
		log.Fatalf("ai provider: %v", err)
	}

	fetcher, err := pipeline.NewFetcher(pipeline.FetcherConfig{
		BaseURL: cfg.TranscriptBaseURL,
		APIKey:  cfg.TranscriptAPIKey,
	})
	if err != nil {
		log.Fatalf("transcript fetcher: %v", err)
	}

	var searcher pipeline.Searcher
	if cfg.TavilyAPIKey != "" {
		searcher = search.NewClient(cfg.TavilyBaseURL, cfg.TavilyAPIKey)
	}

	cleaner, err := pipeline.NewCleaner(pipeline.CleanerConfig{
		Provider:         provider,
		Searcher:         searcher,
		MaxChunkTokens:   cfg.CleanChunkTokens,
		OverlapTokens:    cfg.CleanOverlapTokens,
		SkipFailedChunks: cfg.CleanSkipFailedChunks,
	})
	if err != nil {
		log.Fatalf("cleaner: %v", err)
	}

	summarizer, err := pipeline.NewSummarizer(pipeline.SummarizerConfig{
		Provider:       provider,
		ChunkThreshold: cfg.SummaryChunkThreshold,
		ChunkTokens:    cfg.SummaryChunkTokens,
		OverlapTokens:  cfg.SummaryOverlapTokens,
	})
	if err != nil {
		log.Fatalf("summarizer: %v", err)
	}

	var notifier pipeline.Notifier
	if cfg.ResendAPIKey != "" {
		notifier = email.NewClient(cfg.ResendBaseURL, cfg.ResendAPIKey, cfg.ResendFrom)
	}

	return pipeline.NewProcessor(repo, fetcher, cleaner, summarizer, notifier, cache, cfg.AppURL)
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)
	repo := jobs.NewRepo(gdb)

	cache := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer cache.Close()

	processor := buildProcessor(cfg, repo, cache)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("rabbit dial: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("rabbit channel: %v", err)
	}
	defer ch.Close()

	if err := rabbitmq.DeclareTopology(ch, cfg.RabbitQueue); err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	concurrency := workerConcurrency()
	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("worker started, queue=%s concurrency=%d", cfg.RabbitQueue, concurrency)

	deliveries := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range deliveries {
				var m rabbitmq.JobMessage
				if err := json.Unmarshal(d.Body, &m); err != nil || m.JobID == "" {
					log.Printf("worker=%d bad message: %v", workerID, err)
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				// All outcomes land in the job store; the message is done
				// either way once ProcessJob returns.
				processor.ProcessJob(ctx, m.JobID)
				log.Printf("worker=%d job=%s cost=%s", workerID, m.JobID, time.Since(start))

				if err := d.Ack(false); err != nil {
					log.Printf("worker=%d ack failed job=%s err=%v", workerID, m.JobID, err)
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("worker shutting down")
			close(deliveries)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Printf("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			deliveries <- d
		}
	}
}
