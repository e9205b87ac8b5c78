package publisher

import (
	"context"
	"encoding/base64"
	"math/rand/v2"
	"strconv"

	"github.com/redis/go-redis/v9"

	"sjsage522/weibosearch/pkg/errors"
)

// RedisPublisher implements Publisher on Redis streams
type RedisPublisher struct {
	client          *redis.Client
	streamPrefix    string
	streamCount     int
	streamMaxLength int
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(addr string, db int, streamPrefix string, streamCount int, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		streamPrefix:    streamPrefix,
		streamCount:     streamCount,
		streamMaxLength: streamMaxLength,
	}
}

// Ping checks the connection
func (p *RedisPublisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return errors.NewPublisher("redis", "ping failed", err)
	}
	return nil
}

// Stream returns the stream a message goes to. With several streams the
// name is picked at random, stream:0 ~ stream:n-1.
func (p *RedisPublisher) Stream() string {
	if p.streamCount <= 1 {
		return p.streamPrefix
	}
	return p.streamPrefix + ":" + strconv.Itoa(rand.IntN(p.streamCount))
}

// Publish adds a message to a Redis stream.
// The message is base64 encoded before publishing.
func (p *RedisPublisher) Publish(ctx context.Context, key string, message []byte) error {
	encodedMessage := base64.StdEncoding.EncodeToString(message)

	args := &redis.XAddArgs{
		Stream: p.Stream(),
		Values: map[string]interface{}{
			key: encodedMessage,
		},
	}
	if p.streamMaxLength > 0 {
		args.MaxLen = int64(p.streamMaxLength)
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return errors.NewPublisher(args.Stream, "xadd failed", err)
	}
	return nil
}

// TrimStreams trims all streams to the configured maximum length
func (p *RedisPublisher) TrimStreams(ctx context.Context) error {
	if p.streamMaxLength <= 0 {
		return nil
	}

	streams := []string{p.streamPrefix}
	if p.streamCount > 1 {
		streams = streams[:0]
		for i := 0; i < p.streamCount; i++ {
			streams = append(streams, p.streamPrefix+":"+strconv.Itoa(i))
		}
	}

	for _, stream := range streams {
		if err := p.client.XTrimMaxLen(ctx, stream, int64(p.streamMaxLength)).Err(); err != nil {
			return errors.NewPublisher(stream, "trim failed", err)
		}
	}
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
