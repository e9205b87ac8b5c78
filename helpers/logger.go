package helpers

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"sjsage522/weibosearch/logger"
)

// FailureLogger records requests the scheduler gave up on
type FailureLogger interface {
	LogFailure(keyword, url string, err error)
}

// FailureLog appends abandoned requests to a text file
type FailureLog struct {
	mu   sync.Mutex
	path string
}

// NewFailureLog creates a failure log writing to path
func NewFailureLog(path string) *FailureLog {
	return &FailureLog{path: path}
}

// LogFailure appends one line with timestamp, keyword, url and error
func (l *FailureLog) LogFailure(keyword, url string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
			logger.Warn("failure log directory %s: %v", dir, mkErr)
			return
		}
	}
	f, fileErr := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if fileErr != nil {
		logger.Warn("failure log %s: %v", l.path, fileErr)
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(f, "[%s] [%s] %s %v\n", timestamp, keyword, url, err)
}
