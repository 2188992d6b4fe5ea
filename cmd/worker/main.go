// main wires the profile worker: consume domain events, recompute profiles
// from durable evidence, invalidate the cache.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"

	"calldex/internal/advisory"
	"calldex/internal/events"
	"calldex/internal/platform/config"
	"calldex/internal/platform/kafka"
	"calldex/internal/platform/logger"
	"calldex/internal/platform/postgres"
	"calldex/internal/platform/redis"
	"calldex/internal/profile/cache"
	"calldex/internal/profile/store/cluster"
	"calldex/internal/profile/store/contribution"
	"calldex/internal/profile/store/identity"
	"calldex/internal/profile/store/profilerow"
	"calldex/internal/profile/store/spamreport"
	"calldex/internal/resolve"
	"calldex/internal/worker"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		log.Error("postgres connect failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("redis connect failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	consumer, err := kafka.NewConsumer(cfg.Kafka)
	if err != nil {
		log.Error("kafka connect failed", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	if err := kafka.EnsureTopic(ctx, consumer, cfg.Kafka.Topic, cfg.Kafka.Partitions); err != nil {
		log.Error("topic provisioning failed", "topic", cfg.Kafka.Topic, "error", err)
		os.Exit(1)
	}

	// Retries are produced back onto the topic.
	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		log.Error("kafka producer connect failed", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	identities := identity.NewPostgres(db)
	contributions := contribution.NewPostgres(db)
	clusters := cluster.NewPostgres(db)
	reports := spamreport.NewPostgres(db)
	profiles := profilerow.NewPostgres(db)

	bus := events.NewKafkaBus(producer, cfg.Kafka.Topic, events.WithBusLogger(log))
	go bus.Start(ctx)

	profileCache := cache.New(profiles, redisRaw(redisClient), cache.Config{
		LocalCapacity: cfg.Cache.LocalCapacity,
		LocalTTL:      cfg.Cache.LocalTTL,
		SharedTTL:     cfg.Cache.SharedTTL,
		NegativeTTL:   cfg.Cache.NegativeTTL,
	}, cache.WithLogger(log))

	resolver, err := resolve.New(identities, contributions, clusters, resolve.WithLogger(log))
	if err != nil {
		log.Error("resolver init failed", "error", err)
		os.Exit(1)
	}

	advisor := advisory.Disabled()
	if cfg.Advisory.Endpoint != "" {
		advisor = advisory.NewHTTP(cfg.Advisory.Endpoint,
			advisory.WithTimeout(cfg.Advisory.Timeout),
			advisory.WithLogger(log))
	}

	w, err := worker.New(identities, contributions, reports, profiles, resolver,
		advisor, profileCache, bus,
		worker.WithLogger(log),
		worker.WithConcurrency(cfg.Worker.Concurrency))
	if err != nil {
		log.Error("worker init failed", "error", err)
		os.Exit(1)
	}

	loop, err := worker.NewConsumer(consumer, w, log)
	if err != nil {
		log.Error("consumer init failed", "error", err)
		os.Exit(1)
	}

	log.Info("starting calldex worker",
		"topic", cfg.Kafka.Topic,
		"group", cfg.Kafka.Group,
		"concurrency", cfg.Worker.Concurrency)

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
	log.Info("worker drained, shutting down")
}

func redisRaw(c *redis.Client) *goredis.Client {
	if c == nil {
		return nil
	}
	return c.Client
}
