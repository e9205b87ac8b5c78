package sink

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"sjsage522/weibosearch/pkg/errors"
)

// utf-8 byte order mark so spreadsheet tools detect the encoding
const bom = "\ufeff"

var csvHeader = []string{
	"id", "bid", "user_id", "用户昵称", "微博正文", "头条文章url", "发布位置", "艾特用户", "话题",
	"转发数", "评论数", "点赞数", "发布时间", "发布工具", "微博图片url", "微博视频url",
	"retweet_id", "ip", "user_authentication", "会员类型", "会员等级",
}

// CSVSink appends records to <dir>/<keyword>/<keyword>.csv
type CSVSink struct {
	mu  sync.Mutex
	dir string
}

// NewCSVSink creates a CSV sink rooted at dir
func NewCSVSink(dir string) *CSVSink {
	return &CSVSink{dir: dir}
}

func (s *CSVSink) Name() string { return "csv" }

// Path returns the file a keyword's records are written to
func (s *CSVSink) Path(keyword string) string {
	name := CleanKeyword(keyword)
	return filepath.Join(s.dir, name, name+".csv")
}

func (s *CSVSink) Write(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(rec.Keyword)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewStorage("csv", "failed to create result directory", err)
	}

	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.NewStorage("csv", "failed to open "+path, err)
	}
	defer f.Close()

	if isNew {
		if _, err := f.WriteString(bom); err != nil {
			return errors.NewStorage("csv", "failed to write byte order mark", err)
		}
	}

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(csvHeader); err != nil {
			return errors.NewStorage("csv", "failed to write header", err)
		}
	}
	if err := w.Write(csvRow(rec)); err != nil {
		return errors.NewStorage("csv", "failed to write row", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.NewStorage("csv", "failed to flush row", err)
	}
	return nil
}

func (s *CSVSink) Close() error { return nil }

func csvRow(rec Record) []string {
	p := rec.Post
	return []string{
		p.ID,
		p.BID,
		p.UserID,
		p.ScreenName,
		p.Text,
		p.ArticleURL,
		p.Location,
		strings.Join(p.AtUsers, ","),
		strings.Join(p.Topics, ","),
		strconv.FormatInt(p.RepostsCount, 10),
		strconv.FormatInt(p.CommentsCount, 10),
		strconv.FormatInt(p.AttitudesCount, 10),
		p.CreatedAt,
		p.Source,
		strings.Join(p.Pics, ","),
		p.VideoURL,
		p.RetweetID,
		p.IP,
		p.UserAuthentication,
		p.VIPType,
		strconv.Itoa(p.VIPLevel),
	}
}
