package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComponentLoggers(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	var buf bytes.Buffer
	InitWithWriter(&buf)

	ForKeyword("#topic#").Info().Int("page", 2).Msg("page fetched")
	assert.Contains(t, buf.String(), `"keyword":"#topic#"`)
	assert.Contains(t, buf.String(), `"component":"worker"`)
	assert.Contains(t, buf.String(), `"page":2`)

	buf.Reset()
	LogError("sink", errors.New("disk full"), "write %s", "csv")
	assert.Contains(t, buf.String(), `"error":"disk full"`)
	assert.Contains(t, buf.String(), "write csv")
}

func TestLogLevelFromEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("WEIBO_ENVIRONMENT", "production")
	assert.Equal(t, "info", getLogLevel().String())

	t.Setenv("WEIBO_ENVIRONMENT", "development")
	assert.Equal(t, "debug", getLogLevel().String())

	t.Setenv("LOG_LEVEL", "warn")
	assert.Equal(t, "warn", getLogLevel().String())

	t.Setenv("LOG_LEVEL", "nonsense")
	assert.Equal(t, "info", getLogLevel().String())
}

func TestWithPairs(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf)

	Get().With("sink", "csv", "dangling").Warn().Msg("slow write")
	assert.Contains(t, buf.String(), `"sink":"csv"`)
	assert.NotContains(t, buf.String(), "dangling")

	buf.Reset()
	ForSink("mysql").Info().Msg("opened")
	assert.Contains(t, buf.String(), `"component":"sink"`)
	assert.Contains(t, buf.String(), `"sink":"mysql"`)
}
