package main

import (
	"context"
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/weibosearch/config"
	"sjsage522/weibosearch/internal/planner"
	"sjsage522/weibosearch/internal/weibo"
	"sjsage522/weibosearch/services/cache"
	"sjsage522/weibosearch/services/fetcher"
	"sjsage522/weibosearch/services/publisher"
	"sjsage522/weibosearch/services/sink"
	"sjsage522/weibosearch/services/worker"
)

const noResultHTML = `<html><body><div class="card card-no-result"><p>抱歉，未找到相关结果。</p></div></body></html>`

// fakeWeibo serves the search fixture as page 1 and an empty page 2
type fakeWeibo struct {
	mu       sync.Mutex
	requests []url.Values
}

func (f *fakeWeibo) handler(t *testing.T) http.Handler {
	page, err := os.ReadFile(filepath.Join("internal", "weibo", "testdata", "search_page.html"))
	require.NoError(t, err)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.URL.Query())
		f.mu.Unlock()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.URL.Query().Get("page") == "2" {
			w.Write([]byte(noResultHTML))
			return
		}
		w.Write(page)
	})
}

// runCrawl crawls keyword against server for one day into sinks
func runCrawl(t *testing.T, server *httptest.Server, cfg *config.Config, pub publisher.Publisher) []worker.KeywordStats {
	t.Helper()
	ctx := context.Background()

	f, err := fetcher.New(fetcher.Options{Cookie: "SUB=test", Cache: cache.NewMemoryCache(), BlockTime: time.Minute})
	require.NoError(t, err)

	sinks, err := sink.FromConfig(ctx, cfg, f, pub)
	require.NoError(t, err)

	search := weibo.SearchOptions{BaseURL: server.URL}
	p := planner.New(planner.NewBudget(cfg.MaxItemsPerKeyword, cfg.LimitResult))
	w := worker.NewWorker(p, search, f, weibo.NewParser(search), sinks, worker.Options{
		StartDate:     "2024-03-10",
		EndDate:       "2024-03-10",
		Retries:       1,
		RetryInterval: time.Millisecond,
	}).WithDedup(worker.NewDedup(cache.NewMemoryCache(), 0))

	stats, err := w.Run(ctx, []string{"#春天#"})
	require.NoError(t, err)
	require.NoError(t, sinks.Close())
	return stats
}

// TestIntegration crawls a fake search site end to end into the file sinks
func TestIntegration(t *testing.T) {
	fake := &fakeWeibo{}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	cfg := &config.Config{
		Sinks:          []string{config.SinkCSV, config.SinkSQLite},
		ResultDir:      t.TempDir(),
		SQLiteDatabase: "weibo.db",
	}
	stats := runCrawl(t, server, cfg, nil)

	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].Pages)
	assert.Equal(t, 3, stats[0].Accepted)
	require.Len(t, fake.requests, 2)
	assert.Equal(t, "#春天#", fake.requests[0].Get("q"))
	assert.Equal(t, "custom:2024-03-10-0:2024-03-11-0", fake.requests[0].Get("timescope"))

	// CSV: header plus one row per post, retweeted post first
	data, err := os.ReadFile(filepath.Join(cfg.ResultDir, "春天", "春天.csv"))
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), "\ufeff"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "5000000000000001", rows[1][0])
	assert.Equal(t, "4900000000000009", rows[2][0])
	assert.Equal(t, "5000000000000002", rows[3][0])
	assert.Equal(t, "4900000000000009", rows[3][16])

	db, err := sqlx.Open("sqlite", filepath.Join(cfg.ResultDir, "weibo.db"))
	require.NoError(t, err)
	defer db.Close()
	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM weibo WHERE keyword = ?", "#春天#"))
	assert.Equal(t, 3, count)
}

// TestIntegrationRedis publishes crawled posts onto a Redis stream
func TestIntegrationRedis(t *testing.T) {
	// Skip this test if running in CI or without Redis
	if os.Getenv("CI") != "" {
		t.Skip("Skipping integration test in CI environment")
	}

	ctx := context.Background()
	redisAddr := "localhost:6379"
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr, DB: 0})
	defer redisClient.Close()

	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		t.Skip("Redis is not available, skipping integration test")
	}

	stream := "weibosearch_integration_" + time.Now().Format("150405.000000")
	defer redisClient.Del(context.Background(), stream)

	fake := &fakeWeibo{}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	cfg := &config.Config{
		Sinks:     []string{config.SinkRedis},
		ResultDir: t.TempDir(),
	}
	pub := publisher.NewRedisPublisher(redisAddr, 0, stream, 1, 100)
	runCrawl(t, server, cfg, pub)

	messages, err := redisClient.XRange(ctx, stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, messages, 3)

	var ids []string
	for _, msg := range messages {
		decoded, err := base64.StdEncoding.DecodeString(msg.Values["weibo"].(string))
		require.NoError(t, err)

		var rec sink.Record
		require.NoError(t, json.Unmarshal(decoded, &rec))
		assert.Equal(t, "#春天#", rec.Keyword)
		ids = append(ids, rec.Post.ID)
	}
	assert.Equal(t, []string{"5000000000000001", "4900000000000009", "5000000000000002"}, ids)
}
