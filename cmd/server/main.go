// main wires the lookup and intake services behind the HTTP router and keeps
// the server lifecycle small. Business logic lives in internal services
// packages.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"calldex/internal/events"
	"calldex/internal/intake"
	"calldex/internal/intake/device"
	"calldex/internal/lookup"
	"calldex/internal/platform/config"
	"calldex/internal/platform/httpserver"
	"calldex/internal/platform/kafka"
	"calldex/internal/platform/logger"
	"calldex/internal/platform/postgres"
	"calldex/internal/platform/redis"
	"calldex/internal/profile/cache"
	"calldex/internal/profile/store/contribution"
	"calldex/internal/profile/store/contributor"
	"calldex/internal/profile/store/identity"
	"calldex/internal/profile/store/profilerow"
	"calldex/internal/profile/store/spamreport"
	"calldex/internal/ratelimit"
	httptransport "calldex/internal/transport/http"
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

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		log.Error("kafka connect failed", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	identities := identity.NewPostgres(db)
	contributors := contributor.NewPostgres(db)
	contributions := contribution.NewPostgres(db)
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
	go profileCache.Start(ctx)

	intakeSvc, err := intake.New(identities, contributors, contributions, reports, bus,
		intake.WithLogger(log))
	if err != nil {
		log.Error("intake service init failed", "error", err)
		os.Exit(1)
	}
	lookupSvc, err := lookup.New(profileCache, reports, lookup.WithLogger(log))
	if err != nil {
		log.Error("lookup service init failed", "error", err)
		os.Exit(1)
	}

	probes := map[string]httptransport.HealthProbe{
		"postgres": db.PingContext,
	}
	if redisClient != nil {
		probes["redis"] = redisClient.Health
	}
	probes["kafka"] = producer.Ping

	router := httptransport.NewRouter(log, probes, buildRateLimit(cfg.RateLimit, redisClient, log),
		httptransport.NewLookupHandler(lookupSvc, log),
		httptransport.NewIntakeHandler(intakeSvc, device.NewService(true), log),
		httptransport.NewAdminHandler(intakeSvc, log),
	)

	srv := httpserver.New(cfg.Server.Addr, router)
	log.Info("starting calldex server", "addr", cfg.Server.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// redisRaw unwraps the health-checking client for the cache tier; a nil
// wrapper stays nil so the cache runs local-only.
func redisRaw(c *redis.Client) *goredis.Client {
	if c == nil {
		return nil
	}
	return c.Client
}

// buildRateLimit assembles the API rate limiter. The window state lives in
// Redis when configured so limits hold across replicas; otherwise each
// replica enforces its own budget in memory.
func buildRateLimit(cfg config.RateLimit, redisClient *redis.Client, log *slog.Logger) *ratelimit.Middleware {
	if !cfg.Enabled {
		return nil
	}

	var store ratelimit.Store = ratelimit.NewMemoryStore()
	if redisClient != nil {
		store = ratelimit.NewRedisStore(redisClient.Client)
	}

	limiter := ratelimit.NewLimiter(store,
		ratelimit.WithLimit(ratelimit.ClassLookup, ratelimit.Limit{Requests: cfg.LookupPerMinute, Window: time.Minute}),
		ratelimit.WithLimit(ratelimit.ClassIntake, ratelimit.Limit{Requests: cfg.IntakePerMinute, Window: time.Minute}),
		ratelimit.WithLimit(ratelimit.ClassAdmin, ratelimit.Limit{Requests: cfg.AdminPerMinute, Window: time.Minute}),
	)
	return ratelimit.NewMiddleware(limiter, log)
}
