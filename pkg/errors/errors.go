package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorType classifies a CrawlerError
type ErrorType string

const (
	ErrorTypeNetwork   ErrorType = "network"
	ErrorTypeParsing   ErrorType = "parsing"
	ErrorTypeRateLimit ErrorType = "rate_limit"
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeStorage marks a failed sink write or sink setup
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeValidation marks a request the server rejected (4xx)
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeConfiguration ErrorType = "configuration"
)

// CrawlerError is the error type shared by every component.
// Source names the component or keyword the error belongs to and may be
// empty for run-wide configuration errors.
type CrawlerError struct {
	Type    ErrorType
	Source  string
	Message string
	Err     error
	Time    time.Time
}

// Error renders "[type] source: message - cause", omitting empty parts
func (e *CrawlerError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] ", e.Type)
	if e.Source != "" {
		b.WriteString(e.Source)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, " - %v", e.Err)
	}
	return b.String()
}

func (e *CrawlerError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether repeating the request may succeed.
// Only transport failures and 5xx responses qualify; a rate-limit block is
// handled by waiting instead.
func (e *CrawlerError) IsRetryable() bool {
	return e.Type == ErrorTypeNetwork
}

// New creates a CrawlerError stamped with the current time
func New(errType ErrorType, source, message string, err error) *CrawlerError {
	return &CrawlerError{
		Type:    errType,
		Source:  source,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

func NewNetwork(source, message string, err error) *CrawlerError {
	return New(ErrorTypeNetwork, source, message, err)
}

func NewParsing(source, message string, err error) *CrawlerError {
	return New(ErrorTypeParsing, source, message, err)
}

// NewRateLimit reports that source is blocked for d
func NewRateLimit(source string, d time.Duration) *CrawlerError {
	return New(ErrorTypeRateLimit, source, fmt.Sprintf("rate limited for %v", d), nil)
}

func NewPublisher(source, message string, err error) *CrawlerError {
	return New(ErrorTypePublisher, source, message, err)
}

func NewStorage(source, message string, err error) *CrawlerError {
	return New(ErrorTypeStorage, source, message, err)
}

func NewValidation(source, message string) *CrawlerError {
	return New(ErrorTypeValidation, source, message, nil)
}

// NewConfiguration reports an unusable setting; it has no source
func NewConfiguration(message string, err error) *CrawlerError {
	return New(ErrorTypeConfiguration, "", message, err)
}

func as(err error) (*CrawlerError, bool) {
	var ce *CrawlerError
	ok := stderrors.As(err, &ce)
	return ce, ok
}

// IsType reports whether err wraps a CrawlerError of the given type
func IsType(err error, errType ErrorType) bool {
	ce, ok := as(err)
	return ok && ce.Type == errType
}

// IsRetryable reports whether err wraps a retryable CrawlerError
func IsRetryable(err error) bool {
	ce, ok := as(err)
	return ok && ce.IsRetryable()
}
