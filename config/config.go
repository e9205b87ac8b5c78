package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"sjsage522/weibosearch/pkg/errors"
)

// DateLayout is the layout of START_DATE and END_DATE
const DateLayout = "2006-01-02"

// Sink names accepted in SINKS
const (
	SinkCSV    = "csv"
	SinkSQLite = "sqlite"
	SinkMySQL  = "mysql"
	SinkMongo  = "mongo"
	SinkRedis  = "redis"
	SinkMedia  = "media"
)

var knownSinks = map[string]bool{
	SinkCSV: true, SinkSQLite: true, SinkMySQL: true,
	SinkMongo: true, SinkRedis: true, SinkMedia: true,
}

// Config represents the application configuration
type Config struct {
	// Search configuration
	Keywords           []string
	KeywordFile        string
	StartDate          string
	EndDate            string
	FurtherThreshold   int
	LimitResult        int
	MaxItemsPerKeyword int
	Regions            []string
	RegionFile         string
	WeiboType          int
	ContainType        int
	FetchIP            bool

	// Fetcher configuration
	SearchBaseURL      string
	Cookie             string
	UserAgent          string
	DownloadDelay      time.Duration
	ConcurrentKeywords int
	FetchRetries       int
	ProxyURL           string
	RateLimitBlock     time.Duration

	// Storage configuration
	Sinks          []string
	ResultDir      string
	SQLiteDatabase string
	MySQLDSN       string
	MongoURI       string
	MongoDatabase  string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration, empty means in-process cache
	MemcacheAddr string

	// Hot search configuration
	HotSearchURL   string
	MaxHotKeywords int

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	today := time.Now().Format(DateLayout)

	return &Config{
		Keywords:           splitList(getEnv("KEYWORDS", "")),
		KeywordFile:        getEnv("KEYWORD_FILE", ""),
		StartDate:          getEnv("START_DATE", today),
		EndDate:            getEnv("END_DATE", today),
		FurtherThreshold:   getEnvInt("FURTHER_THRESHOLD", 46),
		LimitResult:        getEnvInt("LIMIT_RESULT", 0),
		MaxItemsPerKeyword: getEnvInt("MAX_ITEMS_PER_KEYWORD", 10),
		Regions:            splitList(getEnv("REGION", "全部")),
		RegionFile:         getEnv("REGION_FILE", ""),
		WeiboType:          getEnvInt("WEIBO_TYPE", 1),
		ContainType:        getEnvInt("CONTAIN_TYPE", 0),
		FetchIP:            getEnvBool("FETCH_IP", false),

		SearchBaseURL:      getEnv("SEARCH_BASE_URL", "https://s.weibo.com"),
		Cookie:             getEnv("WEIBO_COOKIE", ""),
		UserAgent:          getEnv("USER_AGENT", ""),
		DownloadDelay:      time.Duration(getEnvInt("DOWNLOAD_DELAY", 10)) * time.Second,
		ConcurrentKeywords: getEnvInt("CONCURRENT_KEYWORDS", 1),
		FetchRetries:       getEnvInt("FETCH_RETRIES", 3),
		ProxyURL:           getEnv("PROXY_URL", ""),
		RateLimitBlock:     time.Duration(getEnvInt("RATE_LIMIT_BLOCK_SECONDS", 300)) * time.Second,

		Sinks:          splitList(getEnv("SINKS", SinkCSV)),
		ResultDir:      getEnv("RESULT_DIR", "results"),
		SQLiteDatabase: getEnv("SQLITE_DATABASE", "weibo.db"),
		MySQLDSN:       getEnv("MYSQL_DSN", ""),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:  getEnv("MONGO_DATABASE", "weibo"),

		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "weibo"),
		RedisStreamCount:     getEnvInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 10000),

		MemcacheAddr: getEnv("MEMCACHE_ADDR", ""),

		HotSearchURL:   getEnv("HOT_SEARCH_URL", "https://tophub.today/n/KqndgxeLl9"),
		MaxHotKeywords: getEnvInt("MAX_HOT_KEYWORDS", 50),

		Environment: getEnv("WEIBO_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for errors that must abort the run
func (c *Config) Validate() error {
	start, err := time.Parse(DateLayout, c.StartDate)
	if err != nil {
		return errors.NewConfiguration(fmt.Sprintf("invalid START_DATE %q", c.StartDate), err)
	}
	end, err := time.Parse(DateLayout, c.EndDate)
	if err != nil {
		return errors.NewConfiguration(fmt.Sprintf("invalid END_DATE %q", c.EndDate), err)
	}
	if start.After(end) {
		return errors.NewConfiguration("START_DATE must not be after END_DATE", nil)
	}
	if c.FurtherThreshold <= 0 {
		return errors.NewConfiguration("FURTHER_THRESHOLD must be positive", nil)
	}
	if c.LimitResult < 0 || c.MaxItemsPerKeyword < 0 {
		return errors.NewConfiguration("result limits must not be negative", nil)
	}
	if c.WeiboType < 0 || c.WeiboType > 6 {
		return errors.NewConfiguration(fmt.Sprintf("WEIBO_TYPE %d out of range 0-6", c.WeiboType), nil)
	}
	if c.ContainType < 0 || c.ContainType > 4 {
		return errors.NewConfiguration(fmt.Sprintf("CONTAIN_TYPE %d out of range 0-4", c.ContainType), nil)
	}
	if c.ConcurrentKeywords < 1 {
		return errors.NewConfiguration("CONCURRENT_KEYWORDS must be at least 1", nil)
	}
	if len(c.Sinks) == 0 {
		return errors.NewConfiguration("SINKS must name at least one sink", nil)
	}
	for _, s := range c.Sinks {
		if !knownSinks[s] {
			return errors.NewConfiguration(fmt.Sprintf("unknown sink %q", s), nil)
		}
		if s == SinkMySQL && c.MySQLDSN == "" {
			return errors.NewConfiguration("MYSQL_DSN is required by the mysql sink", nil)
		}
	}
	return nil
}

// HasSink reports whether the named sink is enabled
func (c *Config) HasSink(name string) bool {
	for _, s := range c.Sinks {
		if s == name {
			return true
		}
	}
	return false
}

// ResolveKeywords returns the keywords to search: KEYWORDS first, then
// one keyword per non-empty line of KEYWORD_FILE, without duplicates.
func (c *Config) ResolveKeywords() ([]string, error) {
	keywords := append([]string(nil), c.Keywords...)
	if c.KeywordFile != "" {
		data, err := os.ReadFile(c.KeywordFile)
		if err != nil {
			return nil, errors.NewConfiguration(fmt.Sprintf("read keyword file %s", c.KeywordFile), err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				keywords = append(keywords, line)
			}
		}
	}

	seen := make(map[string]bool, len(keywords))
	out := keywords[:0]
	for _, kw := range keywords {
		if !seen[kw] {
			seen[kw] = true
			out = append(out, kw)
		}
	}
	if len(out) == 0 {
		return nil, errors.NewConfiguration("no keywords: set KEYWORDS, KEYWORD_FILE or --keyword", nil)
	}
	return out, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
