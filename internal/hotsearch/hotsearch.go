package hotsearch

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/weibosearch/logger"
	"sjsage522/weibosearch/pkg/errors"
)

// DefaultURL is the tophub page mirroring the Weibo hot list
const DefaultURL = "https://tophub.today/n/KqndgxeLl9"

// rowSelector matches one ranked row of the hot list table
const rowSelector = `div[class*="jc rank-all-item"] div.jc-c table.table tbody tr`

// Getter fetches a URL and returns its UTF-8 body
type Getter interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Topic is one hot list entry
type Topic struct {
	Rank     string
	Title    string
	HotValue string
}

// Keyword returns the topic as a hashtag search keyword
func (t Topic) Keyword() string {
	return "#" + strings.TrimSpace(strings.ReplaceAll(t.Title, "#", "")) + "#"
}

// Scraper reads the current hot list
type Scraper struct {
	getter Getter
	url    string
	max    int
}

// NewScraper creates a scraper reading at most max rows of url
func NewScraper(getter Getter, url string, max int) *Scraper {
	if url == "" {
		url = DefaultURL
	}
	return &Scraper{getter: getter, url: url, max: max}
}

// Topics fetches the hot list. Ads and rows without a title are dropped;
// max caps the rows read, not the topics returned.
func (s *Scraper) Topics(ctx context.Context) ([]Topic, error) {
	body, err := s.getter.Fetch(ctx, s.url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewParsing(s.url, "invalid HTML document", err)
	}

	rows := doc.Find(rowSelector)
	if rows.Length() == 0 {
		return nil, errors.NewParsing(s.url, "hot list table not found", nil)
	}

	log := logger.ForWorker()
	var topics []Topic
	rows.EachWithBreak(func(i int, tr *goquery.Selection) bool {
		if s.max > 0 && i >= s.max {
			return false
		}
		cells := tr.Find("td")
		topic := Topic{
			Rank:     strings.ReplaceAll(strings.TrimSpace(cells.Eq(0).Text()), ".", ""),
			Title:    strings.TrimSpace(cells.Eq(1).Find("a").First().Text()),
			HotValue: strings.TrimSpace(cells.Eq(2).Text()),
		}
		if topic.Title == "" || strings.Contains(topic.Title, "广告") {
			log.Debug().Str("rank", topic.Rank).Str("title", topic.Title).Msg("Skipping hot list row")
			return true
		}
		topics = append(topics, topic)
		return true
	})

	log.Info().Int("rows", rows.Length()).Int("topics", len(topics)).Msg("Hot list fetched")
	return topics, nil
}

// Keywords fetches the hot list and returns its topics as search keywords
func (s *Scraper) Keywords(ctx context.Context) ([]string, error) {
	topics, err := s.Topics(ctx)
	if err != nil {
		return nil, err
	}
	keywords := make([]string, len(topics))
	for i, t := range topics {
		keywords[i] = t.Keyword()
	}
	return keywords, nil
}
