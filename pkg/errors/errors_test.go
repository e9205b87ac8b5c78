package errors

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCrawlerErrorMessage(t *testing.T) {
	err := NewNetwork("fetcher", "GET failed", io.ErrUnexpectedEOF)
	assert.Equal(t, "[network] fetcher: GET failed - unexpected EOF", err.Error())

	cfgErr := NewConfiguration("START_DATE must not be after END_DATE", nil)
	assert.Equal(t, "[configuration] START_DATE must not be after END_DATE", cfgErr.Error())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, NewNetwork("fetcher", "timeout", nil).IsRetryable())
	assert.False(t, NewParsing("weibo", "missing like button", nil).IsRetryable())
	assert.False(t, NewRateLimit("fetcher", time.Minute).IsRetryable())

	wrapped := fmt.Errorf("slice 2024-01-01: %w", NewNetwork("fetcher", "reset", nil))
	assert.True(t, IsRetryable(wrapped))
	assert.False(t, IsRetryable(io.EOF))
}

func TestIsType(t *testing.T) {
	wrapped := fmt.Errorf("plan: %w", NewConfiguration("unknown region", nil))
	assert.True(t, IsType(wrapped, ErrorTypeConfiguration))
	assert.False(t, IsType(wrapped, ErrorTypeNetwork))
	assert.False(t, IsType(nil, ErrorTypeNetwork))
}
