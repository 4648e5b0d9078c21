package main

import (
	"log"

	"github.com/joho/godotenv"

	"podbrief/internal/config"
	"podbrief/internal/db"
	"podbrief/internal/httpapi"
	"podbrief/internal/jobs"
	"podbrief/internal/store/rabbitmq"
	"podbrief/internal/store/redisstore"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)
	repo := jobs.NewRepo(gdb)

	cache := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer cache.Close()

	pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		log.Fatalf("rabbit publisher: %v", err)
	}
	defer pub.Close()

	r := httpapi.NewRouter(repo, cfg, cache, pub)

	log.Printf("api listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
