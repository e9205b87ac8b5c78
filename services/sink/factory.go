package sink

import (
	"context"
	"path/filepath"
	"time"

	"sjsage522/weibosearch/config"
	"sjsage522/weibosearch/logger"
	"sjsage522/weibosearch/pkg/errors"
	"sjsage522/weibosearch/services/publisher"
)

// FromConfig opens every sink named in cfg.Sinks. The publisher is only
// needed by the redis sink and the downloader only by the media sink.
// Sinks opened before a failure are closed again.
func FromConfig(ctx context.Context, cfg *config.Config, d Downloader, p publisher.Publisher) (*Multi, error) {
	var sinks []Sink
	fail := func(err error) (*Multi, error) {
		NewMulti(sinks...).Close()
		return nil, err
	}

	for _, name := range cfg.Sinks {
		var s Sink
		switch name {
		case config.SinkCSV:
			s = NewCSVSink(cfg.ResultDir)
		case config.SinkSQLite:
			path := cfg.SQLiteDatabase
			if !filepath.IsAbs(path) {
				path = filepath.Join(cfg.ResultDir, path)
			}
			sqlite, err := NewSQLiteSink(path)
			if err != nil {
				return fail(err)
			}
			s = sqlite
		case config.SinkMySQL:
			mysql, err := NewMySQLSink(cfg.MySQLDSN, time.Now())
			if err != nil {
				return fail(err)
			}
			s = mysql
		case config.SinkMongo:
			mongo, err := NewMongoSink(ctx, cfg.MongoURI, cfg.MongoDatabase)
			if err != nil {
				return fail(err)
			}
			s = mongo
		case config.SinkRedis:
			if p == nil {
				return fail(errors.NewConfiguration("redis sink needs a publisher", nil))
			}
			s = NewRedisSink(p)
		case config.SinkMedia:
			if d == nil {
				return fail(errors.NewConfiguration("media sink needs a downloader", nil))
			}
			s = NewMediaSink(cfg.ResultDir, d)
		default:
			return fail(errors.NewConfiguration("unknown sink "+name, nil))
		}

		logger.ForSink(name).Info().Msg("Sink ready")
		sinks = append(sinks, s)
	}
	return NewMulti(sinks...), nil
}
