package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/weibosearch/config"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()
	assert.Equal(t, "weibosearch", cmd.Use)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"search", "hot", "regions"}, names)
}

func TestRegionsCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"regions", "--cities"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "REGION")
	assert.Contains(t, out.String(), "北京")
	assert.Contains(t, out.String(), "朝阳区:5")
}

func TestRegionsCmdBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- name: [broken"), 0o644))

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"regions", "--region-file", path})
	assert.Error(t, cmd.Execute())
}

func TestSearchFlagsOverrideConfig(t *testing.T) {
	cmd := &cobra.Command{Use: "search"}
	var flags searchFlags
	flags.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{
		"-k", "春节", "-k", "#高铁#",
		"--start", "2024-01-01",
		"--end", "2024-01-03",
		"-r", "北京",
		"--limit", "0",
		"--fetch-ip",
	}))

	cfg := config.LoadConfig()
	cfg.LimitResult = 100
	cfg.MaxItemsPerKeyword = 10
	flags.apply(cmd, cfg)

	assert.Equal(t, []string{"春节", "#高铁#"}, cfg.Keywords)
	assert.Equal(t, "2024-01-01", cfg.StartDate)
	assert.Equal(t, "2024-01-03", cfg.EndDate)
	assert.Equal(t, []string{"北京"}, cfg.Regions)
	assert.Equal(t, 0, cfg.LimitResult)
	// unset flags keep the environment value
	assert.Equal(t, 10, cfg.MaxItemsPerKeyword)
	assert.True(t, cfg.FetchIP)
}

const testPage = `<html><body>
<div class="card-wrap" mid="5100000000000001"><div class="card">
<div class="card-feed"><div class="content">
<div class="info"><div></div><div><a href="//weibo.com/1001" nick-name="作者">作者</a></div></div>
<p class="txt">测试内容</p>
<div class="from"><a href="//weibo.com/1001/QwErTy123">2024年01月01日 10:00</a><a>微博网页版</a></div>
</div></div>
<div class="card-act"><ul>
<li><a action-type="feed_list_forward">转发 1</a></li>
<li><a action-type="feed_list_comment">评论 2</a></li>
<li><a action-type="feed_list_like"><button><span></span><span>3</span></button></a></li>
</ul></div>
</div></div>
<ul class="s-scroll"><li>第1页</li></ul>
</body></html>`

func TestRunSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(testPage))
	}))
	defer server.Close()

	cfg := config.LoadConfig()
	cfg.SearchBaseURL = server.URL
	cfg.StartDate, cfg.EndDate = "2024-01-01", "2024-01-01"
	cfg.DownloadDelay = 0
	cfg.ResultDir = t.TempDir()
	cfg.Sinks = []string{config.SinkCSV}
	cfg.MemcacheAddr = ""

	var out bytes.Buffer
	require.NoError(t, runSearch(context.Background(), &out, cfg, []string{"测试"}))
	assert.Contains(t, out.String(), "KEYWORD")
	assert.Contains(t, out.String(), "测试")
	assert.FileExists(t, filepath.Join(cfg.ResultDir, "测试", "测试.csv"))
}

func TestRunSearchInvalidConfig(t *testing.T) {
	cfg := config.LoadConfig()
	cfg.StartDate, cfg.EndDate = "2024-01-03", "2024-01-01"

	err := runSearch(context.Background(), &bytes.Buffer{}, cfg, []string{"测试"})
	assert.Error(t, err)
}

func TestMediaFetcherSkipsCookieAndPacing(t *testing.T) {
	var mu sync.Mutex
	var cookies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		cookies = append(cookies, r.Header.Get("Cookie"))
		mu.Unlock()
		w.Write([]byte{0xff, 0xd8})
	}))
	defer server.Close()

	cfg := &config.Config{Cookie: "SUB=secret", DownloadDelay: time.Hour}
	f, err := newMediaFetcher(cfg)
	require.NoError(t, err)

	// a paced fetcher would wait an hour for the second download
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < 3; i++ {
		var buf bytes.Buffer
		_, err := f.Download(ctx, server.URL+"/large/pic.jpg", &buf)
		require.NoError(t, err)
	}
	mu.Lock()
	assert.Equal(t, []string{"", "", ""}, cookies)
	mu.Unlock()
	assert.False(t, f.Blocked())
}
