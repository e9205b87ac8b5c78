package sink

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/weibosearch/internal/weibo"
)

// MockSink records every write for assertions
type MockSink struct {
	mu       sync.Mutex
	name     string
	records  []Record
	writeErr error
	closed   bool
}

var _ Sink = (*MockSink)(nil)

func (m *MockSink) Name() string { return m.name }

func (m *MockSink) Write(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *MockSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func testRecord() Record {
	return Record{
		Keyword: "#春天#",
		Post: weibo.Post{
			ID:                 "5000000000000001",
			BID:                "NaBcDeF12",
			UserID:             "1001",
			ScreenName:         "测试用户",
			Text:               "春天来了",
			Location:           "北京·朝阳",
			AtUsers:            []string{"小明"},
			Topics:             []string{"春天"},
			RepostsCount:       12,
			AttitudesCount:     12000,
			CreatedAt:          "2024-03-10 11:55",
			Source:             "iPhone客户端",
			Pics:               []string{"https://wx1.sinaimg.cn/large/a.jpg", "https://wx2.sinaimg.cn/large/b.png?x=1"},
			UserAuthentication: "蓝V",
			VIPType:            "超级会员",
			VIPLevel:           5,
		},
	}
}

func TestMultiFansOut(t *testing.T) {
	failing := &MockSink{name: "broken", writeErr: errors.New("disk full")}
	first := &MockSink{name: "first"}
	last := &MockSink{name: "last"}

	m := NewMulti(first, failing, last)
	assert.Equal(t, "first,broken,last", m.Name())

	err := m.Write(context.Background(), testRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Len(t, first.records, 1)
	assert.Len(t, last.records, 1)

	require.NoError(t, m.Close())
	assert.True(t, first.closed)
	assert.True(t, failing.closed)
	assert.True(t, last.closed)
}

func TestCleanKeyword(t *testing.T) {
	tests := []struct {
		keyword string
		want    string
	}{
		{"#春天#", "春天"},
		{"a/b?c", "a_b_c"},
		{"plain", "plain"},
		{"###", "default_topic"},
		{"", "default_topic"},
		{"#x` (id int) -- #", "x_ _id int_ --"},
		{"a\tb\x00c|d", "a_b_c_d"},
		{"  #话题# ", "话题"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanKeyword(tt.keyword), tt.keyword)
	}

	long := ""
	for i := 0; i < 60; i++ {
		long += "字"
	}
	assert.Equal(t, 50, len([]rune(CleanKeyword(long))))
	assert.NotContains(t, CleanKeyword("a`b``c"), "`")
}

func TestNewRow(t *testing.T) {
	r := newRow(testRecord())
	assert.Equal(t, "春天", r.Topics)
	assert.Equal(t, "https://wx1.sinaimg.cn/large/a.jpg,https://wx2.sinaimg.cn/large/b.png?x=1", r.Pics)
	assert.True(t, r.CreatedAt.Valid)
	assert.Equal(t, "#春天#", r.Keyword)

	rec := testRecord()
	rec.Post.CreatedAt = "昨天"
	assert.False(t, newRow(rec).CreatedAt.Valid)
}
