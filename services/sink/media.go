package sink

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"sjsage522/weibosearch/logger"
	"sjsage522/weibosearch/pkg/errors"
)

// Downloader streams a remote resource into w
type Downloader interface {
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// MediaSink downloads a post's pictures to <dir>/<keyword>/images and its
// video to <dir>/<keyword>/videos. Files already on disk are skipped.
type MediaSink struct {
	dir        string
	downloader Downloader
}

// NewMediaSink creates a media sink rooted at dir
func NewMediaSink(dir string, d Downloader) *MediaSink {
	return &MediaSink{dir: dir, downloader: d}
}

func (s *MediaSink) Name() string { return "media" }

func (s *MediaSink) Write(ctx context.Context, rec Record) error {
	base := filepath.Join(s.dir, CleanKeyword(rec.Keyword))
	var errs []error

	for i, pic := range rec.Post.Pics {
		if strings.TrimSpace(pic) == "" {
			continue
		}
		name := rec.Post.ID + "_" + strconv.Itoa(i) + imageExt(pic)
		errs = append(errs, s.save(ctx, pic, filepath.Join(base, "images", name)))
	}
	if rec.Post.VideoURL != "" {
		name := rec.Post.ID + ".mp4"
		errs = append(errs, s.save(ctx, rec.Post.VideoURL, filepath.Join(base, "videos", name)))
	}
	return stderrors.Join(errs...)
}

func (s *MediaSink) Close() error { return nil }

func (s *MediaSink) save(ctx context.Context, url, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.NewStorage("media", "failed to create directory", err)
	}

	// download to a temp file so an interrupted transfer leaves nothing behind
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return errors.NewStorage("media", "failed to create temp file", err)
	}
	defer os.Remove(tmp.Name())

	n, err := s.downloader.Download(ctx, url, tmp)
	closeErr := tmp.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return errors.NewStorage("media", "failed to write "+dest, closeErr)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return errors.NewStorage("media", "failed to move "+dest, err)
	}

	logger.ForSink("media").Debug().
		Str("url", url).
		Str("path", dest).
		Int64("bytes", n).
		Msg("Saved media")
	return nil
}

// imageExt returns the extension of a picture url, .jpg when it has none
// or it looks bogus
func imageExt(url string) string {
	url, _, _ = strings.Cut(url, "?")
	ext := path.Ext(url)
	if ext == "" || len(ext) > 5 {
		return ".jpg"
	}
	return ext
}
