package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/weibosearch/pkg/errors"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	today := time.Now().Format(DateLayout)
	assert.Equal(t, today, config.StartDate)
	assert.Equal(t, today, config.EndDate)
	assert.Equal(t, 46, config.FurtherThreshold)
	assert.Equal(t, 10, config.MaxItemsPerKeyword)
	assert.Equal(t, []string{"全部"}, config.Regions)
	assert.Equal(t, []string{SinkCSV}, config.Sinks)
	assert.Equal(t, 10*time.Second, config.DownloadDelay)
	assert.Equal(t, "localhost:6379", config.RedisAddr)
	assert.Empty(t, config.MemcacheAddr)

	// Test with environment variables
	t.Setenv("KEYWORDS", "迪丽热巴, #春节#,")
	t.Setenv("START_DATE", "2024-01-01")
	t.Setenv("END_DATE", "2024-01-03")
	t.Setenv("FURTHER_THRESHOLD", "40")
	t.Setenv("REGION", "北京,上海")
	t.Setenv("DOWNLOAD_DELAY", "2")
	t.Setenv("SINKS", "csv,sqlite")
	t.Setenv("FETCH_IP", "true")
	t.Setenv("MEMCACHE_ADDR", "memcache.example.com:11211")

	config = LoadConfig()
	assert.Equal(t, []string{"迪丽热巴", "#春节#"}, config.Keywords)
	assert.Equal(t, "2024-01-01", config.StartDate)
	assert.Equal(t, "2024-01-03", config.EndDate)
	assert.Equal(t, 40, config.FurtherThreshold)
	assert.Equal(t, []string{"北京", "上海"}, config.Regions)
	assert.Equal(t, 2*time.Second, config.DownloadDelay)
	assert.True(t, config.HasSink(SinkSQLite))
	assert.False(t, config.HasSink(SinkMongo))
	assert.True(t, config.FetchIP)
	assert.Equal(t, "memcache.example.com:11211", config.MemcacheAddr)
	assert.NoError(t, config.Validate())
}

func TestLoadConfigIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("FURTHER_THRESHOLD", "many")
	assert.Equal(t, 46, LoadConfig().FurtherThreshold)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"inverted range", func(c *Config) { c.StartDate, c.EndDate = "2024-01-03", "2024-01-01" }},
		{"bad start date", func(c *Config) { c.StartDate = "2024/01/01" }},
		{"zero threshold", func(c *Config) { c.FurtherThreshold = 0 }},
		{"negative limit", func(c *Config) { c.LimitResult = -1 }},
		{"weibo type", func(c *Config) { c.WeiboType = 7 }},
		{"contain type", func(c *Config) { c.ContainType = 5 }},
		{"unknown sink", func(c *Config) { c.Sinks = []string{"csv", "excel"} }},
		{"mysql without dsn", func(c *Config) { c.Sinks = []string{SinkMySQL}; c.MySQLDSN = "" }},
		{"no concurrency", func(c *Config) { c.ConcurrentKeywords = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadConfig()
			cfg.StartDate, cfg.EndDate = "2024-01-01", "2024-01-01"
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))
		})
	}
}

func TestResolveKeywords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.txt")
	require.NoError(t, os.WriteFile(path, []byte("春节\n\n  #高铁#  \r\n迪丽热巴\n"), 0o644))

	cfg := &Config{Keywords: []string{"迪丽热巴"}, KeywordFile: path}
	keywords, err := cfg.ResolveKeywords()
	require.NoError(t, err)
	assert.Equal(t, []string{"迪丽热巴", "春节", "#高铁#"}, keywords)

	_, err = (&Config{}).ResolveKeywords()
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))

	_, err = (&Config{KeywordFile: filepath.Join(t.TempDir(), "missing.txt")}).ResolveKeywords()
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))
}
