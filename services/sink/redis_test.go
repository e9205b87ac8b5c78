package sink

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/weibosearch/services/publisher"
)

// MockPublisher implements the publisher.Publisher interface for testing
type MockPublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte
	trimmed  bool
	closed   bool
}

var _ publisher.Publisher = (*MockPublisher)(nil)

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{messages: make(map[string][][]byte)}
}

func (m *MockPublisher) Publish(_ context.Context, key string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[key] = append(m.messages[key], append([]byte(nil), message...))
	return nil
}

func (m *MockPublisher) TrimStreams(context.Context) error {
	m.trimmed = true
	return nil
}

func (m *MockPublisher) Close() error {
	m.closed = true
	return nil
}

func TestRedisSink(t *testing.T) {
	pub := NewMockPublisher()
	s := NewRedisSink(pub)

	require.NoError(t, s.Write(context.Background(), testRecord()))
	require.Len(t, pub.messages["weibo"], 1)

	var got Record
	require.NoError(t, json.Unmarshal(pub.messages["weibo"][0], &got))
	assert.Equal(t, "#春天#", got.Keyword)
	assert.Equal(t, "5000000000000001", got.Post.ID)

	require.NoError(t, s.Close())
	assert.True(t, pub.trimmed)
	assert.True(t, pub.closed)
}
