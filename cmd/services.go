package cmd

import (
	"context"
	"path/filepath"
	"time"

	"sjsage522/weibosearch/config"
	"sjsage522/weibosearch/helpers"
	"sjsage522/weibosearch/logger"
	"sjsage522/weibosearch/services/cache"
	"sjsage522/weibosearch/services/fetcher"
	"sjsage522/weibosearch/services/publisher"
	"sjsage522/weibosearch/services/sink"
)

// Services holds all the initialized services
type Services struct {
	Cache      cache.CacheService
	Fetcher    *fetcher.Fetcher
	Sink       *sink.Multi
	FailureLog *helpers.FailureLog
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Sink != nil {
		if err := s.Sink.Close(); err != nil {
			logger.LogError("sink", err, "failed to close sinks")
		}
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{
		Cache:      newCache(cfg),
		FailureLog: helpers.NewFailureLog(filepath.Join(cfg.ResultDir, "failed_requests.log")),
	}

	f, err := fetcher.New(fetcher.Options{
		Cookie:    cfg.Cookie,
		UserAgent: cfg.UserAgent,
		ProxyURL:  cfg.ProxyURL,
		Delay:     cfg.DownloadDelay,
		Cache:     services.Cache,
		BlockTime: cfg.RateLimitBlock,
	})
	if err != nil {
		return nil, err
	}
	services.Fetcher = f
	if cfg.Cookie == "" {
		logger.Warn("WEIBO_COOKIE is empty, search results will be limited")
	}

	var pub publisher.Publisher
	if cfg.HasSink(config.SinkRedis) {
		redisPublisher := publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(ctx); err != nil {
			redisPublisher.Close()
			return nil, err
		}
		pub = redisPublisher
		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	var media sink.Downloader
	if cfg.HasSink(config.SinkMedia) {
		if media, err = newMediaFetcher(cfg); err != nil {
			if pub != nil {
				pub.Close()
			}
			return nil, err
		}
	}

	services.Sink, err = sink.FromConfig(ctx, cfg, media, pub)
	if err != nil {
		if pub != nil {
			pub.Close()
		}
		return nil, err
	}
	return services, nil
}

// newMediaFetcher builds the downloader for pictures and videos. The image
// CDN gets no session cookie, no pacing and no rate-limit block, so media
// never stalls or blocks the search requests.
func newMediaFetcher(cfg *config.Config) (*fetcher.Fetcher, error) {
	return fetcher.New(fetcher.Options{
		UserAgent: cfg.UserAgent,
		ProxyURL:  cfg.ProxyURL,
		Timeout:   2 * time.Minute,
	})
}

// newCache connects to memcache when configured and falls back to an
// in-process cache otherwise
func newCache(cfg *config.Config) cache.CacheService {
	if cfg.MemcacheAddr == "" {
		return cache.NewMemoryCache()
	}
	mc := cache.NewMemcacheService(cfg.MemcacheAddr)
	if err := mc.Ping(); err != nil {
		logger.ForCache().Warn().
			Err(err).
			Str("addr", cfg.MemcacheAddr).
			Msg("Memcache unavailable, using in-process cache")
		return cache.NewMemoryCache()
	}
	logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
	return mc
}
