package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"smartattend/internal/config"
	"smartattend/internal/queue"
	"smartattend/internal/store"
)

// Worker consumes check-in events and maintains the per-session tally
// hash in Redis, which the API reads when listing sessions. Deleting a
// session drops its tally; its attendance records stay in the ledger.
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

	redisClient := store.NewRedis(cfg.RedisAddr)
	if !redisClient.Healthy(ctx) {
		log.Println("WARNING: redis not reachable, tallies will lag until it returns")
	}

	// The worker only makes sense against the shared queue; the memory
	// backend would give it a private, always-empty channel.
	if cfg.QueueBackend != "redis" {
		log.Fatalf("worker requires QUEUE_BACKEND=redis, got %q", cfg.QueueBackend)
	}
	q := queue.NewRedisQueue(redisClient.Client, "smartattend:events")

	events, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for events...")
	for evt := range events {
		switch evt.Type {
		case queue.TypeCheckIn:
			if err := redisClient.Client.HIncrBy(ctx, store.TallyKey, evt.SessionID, 1).Err(); err != nil {
				log.Printf("tally increment for session %s failed: %v", evt.SessionID, err)
				continue
			}
			log.Printf("session %s: recorded check-in %s", evt.SessionID, evt.RecordID)

		case queue.TypeSessionDeleted:
			if err := redisClient.Client.HDel(ctx, store.TallyKey, evt.SessionID).Err(); err != nil {
				log.Printf("tally drop for session %s failed: %v", evt.SessionID, err)
				continue
			}
			log.Printf("session %s deleted, tally dropped", evt.SessionID)

		default:
			log.Printf("ignoring unknown event type %q", evt.Type)
		}
	}

	log.Println("worker stopped")
}
