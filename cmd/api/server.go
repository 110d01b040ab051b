package main

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/5w1tchy/library-api/internal/api/handlers"
	mw "github.com/5w1tchy/library-api/internal/api/middlewares"
	"github.com/5w1tchy/library-api/internal/api/router"
	"github.com/5w1tchy/library-api/internal/catalog"
	"github.com/5w1tchy/library-api/internal/config"
	"github.com/5w1tchy/library-api/internal/logging"
	"github.com/5w1tchy/library-api/internal/repository/migrations"
	"github.com/5w1tchy/library-api/internal/repository/sqlconnect"
	"github.com/5w1tchy/library-api/internal/store/library"
	"github.com/5w1tchy/library-api/internal/store/pagecache"
	"github.com/5w1tchy/library-api/internal/validate"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load(".env", "../../.env")
	if err != nil {
		// logging is not configured yet
		boot := logging.New(logging.Config{})
		boot.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logging.New(cfg.Log)

	for _, w := range validate.HardeningWarnings(cfg) {
		log.Warn().Msg(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := migrations.Up(cfg.DatabaseURL, logging.Component(log, "migrations")); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
	}

	db, err := sqlconnect.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()
	log.Info().Msg("connected to database")

	rdb, err := connectRedis(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid redis configuration")
	}
	if rdb != nil {
		defer rdb.Close()
		if err := validate.PingRedis(rdb, 2*time.Second); err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		log.Info().Msg("connected to redis")
	}

	cache := pagecache.New(rdb, cfg.PageCacheTTL, logging.Component(log, "pagecache"))
	store := library.NewCached(library.New(db, logging.Component(log, "store")), cache)

	deps := handlers.Deps{
		Catalog:       catalog.New(time.Now),
		Paging:        cfg.Pagination,
		PublicBaseURL: cfg.PublicBaseURL,
		TrustProxy:    cfg.TrustProxyHeaders,
		Log:           logging.Component(log, "api"),
	}

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           middlewareChain(router.Router(deps, store), cfg, rdb, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Port).Bool("tls", cfg.TLS()).Msg("server is running")
		if cfg.TLS() {
			errc <- server.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
			return
		}
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}

func middlewareChain(h http.Handler, cfg *config.Config, rdb *redis.Client, log zerolog.Logger) http.Handler {
	var tokenBucket, slidingWindow mw.Middleware
	if rdb != nil {
		rl := logging.Component(log, "ratelimit")
		tokenBucket = mw.NewRedisTokenBucket(rdb, cfg.RateLimit.PerSecond, cfg.RateLimit.Burst, mw.PerIPKey("tb", cfg.TrustProxyHeaders), rl).Middleware
		slidingWindow = mw.NewRedisSlidingWindow(rdb, cfg.RateLimit.WindowMax, cfg.RateLimit.Window, mw.PerIPKey("sw", cfg.TrustProxyHeaders), rl).Middleware
	}

	// outermost first
	return mw.Chain(h,
		mw.RequestID,
		mw.AccessLog(logging.Component(log, "http")),
		mw.Recovery(logging.Component(log, "recovery")),
		mw.Cors(cfg.AllowedOrigins, logging.Component(log, "cors")),
		mw.ResponseTime,
		mw.SecurityHeaders(cfg.StrictSecurity),
		mw.HPP(mw.DefaultHPPOptions(logging.Component(log, "hpp"))),
		tokenBucket,
		slidingWindow,
		mw.BodySizeLimit(cfg.MaxBodySize),
		mw.Compression,
		mw.CacheHeaders(10*time.Minute),
	)
}

// connectRedis returns nil when Redis is not configured.
func connectRedis(c config.Redis) (*redis.Client, error) {
	if c.URL != "" {
		opt, err := redis.ParseURL(c.URL) // rediss:// enables TLS
		if err != nil {
			return nil, err
		}
		opt.DialTimeout = 5 * time.Second
		opt.ReadTimeout = time.Second
		opt.WriteTimeout = time.Second
		return redis.NewClient(opt), nil
	}
	if c.Addr == "" {
		return nil, nil
	}
	return redis.NewClient(&redis.Options{
		Addr:         c.Addr,
		Username:     c.User,
		Password:     c.Password,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	}), nil
}
