package weibo

import (
	"context"
	"encoding/json"
	"strings"

	"sjsage522/weibosearch/pkg/errors"
)

// DefaultStatusURL is the post detail endpoint used for IP lookups
const DefaultStatusURL = "https://weibo.com/ajax/statuses/show"

// Getter fetches a URL and returns its UTF-8 body
type Getter interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// IPLookup resolves the IP region a post was published from
type IPLookup struct {
	getter    Getter
	statusURL string
}

// NewIPLookup creates a lookup against statusURL, or DefaultStatusURL when empty
func NewIPLookup(getter Getter, statusURL string) *IPLookup {
	if statusURL == "" {
		statusURL = DefaultStatusURL
	}
	return &IPLookup{getter: getter, statusURL: statusURL}
}

type statusResponse struct {
	RegionName string `json:"region_name"`
}

// Lookup returns the region of the post with the given bid, e.g. "北京".
// Posts without a published region return an empty string.
func (l *IPLookup) Lookup(ctx context.Context, bid string) (string, error) {
	body, err := l.getter.Fetch(ctx, l.statusURL+"?id="+bid+"&locale=zh-CN")
	if err != nil {
		return "", err
	}

	var status statusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return "", errors.NewParsing(bid, "invalid status response", err)
	}
	fields := strings.Fields(status.RegionName)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[len(fields)-1], nil
}
