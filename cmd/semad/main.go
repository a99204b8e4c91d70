package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"semaforo/sema"
	"semaforo/sema/application"
	"semaforo/sema/domain"
	"semaforo/sema/infra"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := readConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		store    domain.ListStore
		stats    domain.StatsStore
		memStats *infra.MemoryStatsStore
	)

	if cfg.redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.redisAddr,
			Password: cfg.redisPassword,
			DB:       cfg.redisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancelPing := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancelPing()
		if err != nil {
			log.Fatalf("redis ping error: %v", err)
		}

		store = infra.NewRedisListStore(rdb, infra.WithKeyPrefix(cfg.keyPrefix))
		if cfg.statsEnabled {
			stats = infra.NewRedisStatsStore(rdb,
				infra.WithStatsTTL(cfg.statsTTL),
				infra.WithStatsTrackNames(cfg.statsTrackNames),
			)
		}
	} else {
		// sem Redis: modo standalone/debug com o store em memória
		mem := infra.NewMemoryListStore()
		mem.StartJanitor(ctx)
		store = mem
		if cfg.statsEnabled {
			memStats = infra.NewMemoryStatsStore(infra.WithTrackNames(cfg.statsTrackNames))
			stats = memStats
		}
	}

	reg := sema.NewLocalRegistry()
	sema.Bind(reg, sema.Options{
		Service: application.Service{Store: store},
		Stats:   stats,
		MaxWait: cfg.decMaxWait,
	})

	mux := http.NewServeMux()
	mux.Handle("/sema/", sema.HostHandler(reg))
	if memStats != nil {
		mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(struct {
				Total  infra.Counters            `json:"total"`
				ByName map[string]infra.Counters `json:"by_name,omitempty"`
			}{Total: memStats.Total(), ByName: memStats.ByName()})
		})
	}

	h := http.Handler(mux)
	h = sema.ConcurrencyGuard(sema.ConcurrencyOptions{
		Max:            cfg.concurrencyMax,
		AcquireTimeout: cfg.concurrencyTimeout,
	})(h)
	if cfg.rateRPS > 0 {
		h = sema.RateLimitMiddleware(rate.NewLimiter(rate.Limit(cfg.rateRPS), cfg.rateBurst))(h)
	}

	// o WriteTimeout precisa acomodar a espera máxima de um sema/dec;
	// sem teto de espera, fica sem limite
	var writeTimeout time.Duration
	if cfg.decMaxWait > 0 {
		writeTimeout = cfg.decMaxWait + 10*time.Second
	}

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	backend := "memory"
	if cfg.redisAddr != "" {
		backend = "redis " + cfg.redisAddr
	}
	log.Printf("semad listening on %s (store: %s)", cfg.listenAddr, backend)
	log.Printf("commands: %v", reg.Names())
	log.Printf("dec: maxWait=%s | rate: rps=%.3f burst=%d | concurrency: max=%d acquireTimeout=%s",
		cfg.decMaxWait, cfg.rateRPS, cfg.rateBurst, cfg.concurrencyMax, cfg.concurrencyTimeout)
	log.Printf("stats: enabled=%v trackNames=%v ttl=%s", cfg.statsEnabled, cfg.statsTrackNames, cfg.statsTTL)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}

type config struct {
	listenAddr string

	redisAddr     string
	redisPassword string
	redisDB       int
	keyPrefix     string

	decMaxWait time.Duration

	rateRPS            float64
	rateBurst          int
	concurrencyMax     int
	concurrencyTimeout time.Duration

	statsEnabled    bool
	statsTTL        time.Duration
	statsTrackNames bool
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":7380")

	cfg.redisAddr = os.Getenv("REDIS_ADDR")
	cfg.redisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.redisDB = getenvIntDefault("REDIS_DB", 0)
	cfg.keyPrefix = getenvDefault("SEMA_KEY_PREFIX", "sema:")

	// teto da espera aceita em sema/dec; 0 desliga o teto (a espera do
	// cliente passa a valer inteira)
	cfg.decMaxWait = getenvDurationDefault("DEC_MAX_WAIT", 1*time.Minute)

	cfg.rateRPS = getenvFloatDefault("RATE_RPS", 0)
	cfg.rateBurst = getenvIntDefault("RATE_BURST", 20)
	cfg.concurrencyMax = getenvIntDefault("CONCURRENCY_MAX", 100)
	cfg.concurrencyTimeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", 0)

	cfg.statsEnabled = getenvBoolDefault("STATS_ENABLED", false)
	cfg.statsTTL = getenvDurationDefault("STATS_TTL", 24*time.Hour)
	cfg.statsTrackNames = getenvBoolDefault("STATS_TRACK_NAMES", false)

	if cfg.rateRPS > 0 && cfg.rateBurst <= 0 {
		return config{}, errors.New("RATE_BURST must be > 0 when RATE_RPS is set")
	}
	if cfg.concurrencyMax < 0 {
		return config{}, errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if cfg.decMaxWait < 0 {
		return config{}, errors.New("DEC_MAX_WAIT must be >= 0")
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvFloatDefault(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
