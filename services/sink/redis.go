package sink

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"sjsage522/weibosearch/pkg/errors"
	"sjsage522/weibosearch/services/publisher"
)

// streamKey is the message key records are published under
const streamKey = "weibo"

// RedisSink publishes each record as JSON onto the Redis streams
type RedisSink struct {
	publisher publisher.Publisher
}

// NewRedisSink wraps a publisher
func NewRedisSink(p publisher.Publisher) *RedisSink {
	return &RedisSink{publisher: p}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Write(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.NewPublisher("redis", "failed to marshal record", err)
	}
	return s.publisher.Publish(ctx, streamKey, data)
}

// Close trims the streams and closes the publisher
func (s *RedisSink) Close() error {
	trimErr := s.publisher.TrimStreams(context.Background())
	return stderrors.Join(trimErr, s.publisher.Close())
}
