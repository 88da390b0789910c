package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rollcall/internal/config"
	"rollcall/internal/live"
	"rollcall/internal/session"
	"rollcall/internal/store"
)

// Worker sweeps expired sessions and mirrors the live feed into the Redis
// rollup cache so dashboards can poll a counter instead of scanning events.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)
	sessionRepo := session.NewRepository(db.Client)

	var feed live.Feed
	if cfg.FeedBackend == "memory" {
		feed = live.NewInMemoryFeed()
	} else {
		feed = live.NewRedisFeed(redisClient.Client, "rollcall:session")
	}

	updates, err := feed.SubscribeAll(ctx)
	if err != nil {
		log.Fatalf("live feed subscribe failed: %v", err)
	}
	go func() {
		for update := range updates {
			if err := redisClient.IncrPresent(ctx, update.SessionID); err != nil {
				log.Printf("rollup cache update failed for %s: %v", update.SessionID, err)
			}
		}
	}()

	log.Printf("worker started, sweeping expired sessions every %s", cfg.ExpirySweepInterval)
	ticker := time.NewTicker(cfg.ExpirySweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := sessionRepo.ExpireStale(ctx, time.Now())
			if err != nil {
				log.Printf("expiry sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("expired %d stale session(s)", n)
			}
		case <-ctx.Done():
			log.Println("worker stopped")
			return
		}
	}
}
