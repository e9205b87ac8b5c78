package sink

import (
	"context"
	stderrors "errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"sjsage522/weibosearch/internal/weibo"
	"sjsage522/weibosearch/logger"
)

// Record is one accepted post together with the keyword that found it
type Record struct {
	Keyword string     `json:"keyword" bson:"keyword"`
	Post    weibo.Post `json:"weibo" bson:"weibo"`
}

// Sink persists accepted records
type Sink interface {
	// Name identifies the sink in logs
	Name() string

	// Write stores one record. Keyed stores (SQL, Mongo) overwrite a post
	// written twice; CSV and Redis append it again; media skips files that exist.
	Write(ctx context.Context, rec Record) error

	// Close flushes and releases the sink
	Close() error
}

// Multi fans a record out to several sinks. A failing sink does not stop
// the others; their errors are joined.
type Multi struct {
	sinks []Sink
}

// NewMulti creates a fan-out over sinks
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Name returns the names of the wrapped sinks
func (m *Multi) Name() string {
	names := make([]string, len(m.sinks))
	for i, s := range m.sinks {
		names[i] = s.Name()
	}
	return strings.Join(names, ",")
}

// Write writes rec to every sink
func (m *Multi) Write(ctx context.Context, rec Record) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(ctx, rec); err != nil {
			logger.ForSink(s.Name()).Error().
				Err(err).
				Str("keyword", rec.Keyword).
				Str("id", rec.Post.ID).
				Msg("Failed to write record")
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// Close closes every sink
func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// Backticks and control characters are included because the result is
// quoted as a MySQL identifier.
var unsafeNameRegex = regexp.MustCompile("[#@!$%^&*(){}\\[\\];:\"'<>,.?\\\\/|`\\p{Cc}]")

// CleanKeyword turns a keyword into a name usable as a directory or table
func CleanKeyword(keyword string) string {
	clean := strings.Trim(unsafeNameRegex.ReplaceAllString(keyword, "_"), "_ ")
	if clean == "" {
		return "default_topic"
	}
	if utf8.RuneCountInString(clean) > 50 {
		clean = string([]rune(clean)[:50])
	}
	return clean
}
