package weibo

import (
	stderrors "errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/weibosearch/internal/planner"
	"sjsage522/weibosearch/pkg/errors"
)

// Selectors contains CSS selectors for the search result page
type Selectors struct {
	EmptyMarker  string
	PageList     string
	NextLink     string
	Card         string
	Info         string
	Avatar       string
	From         string
	Text         string
	LongText     string
	Fold         string
	Retweet      string
	Forwarded    string
	Actions      string
	Reposts      string
	Comments     string
	Likes        string
	PicList      string
	Video        string
	VIPContainer string
}

// DefaultSelectors matches the current s.weibo.com markup
var DefaultSelectors = Selectors{
	EmptyMarker:  "div.card.card-no-result",
	PageList:     "ul.s-scroll li",
	NextLink:     "a.next",
	Card:         "div.card-wrap",
	Info:         "div.card > div.card-feed > div.content > div.info",
	Avatar:       "div.card > div.card-feed > div.avator",
	From:         "div.from a",
	Text:         "p.txt",
	LongText:     `p[node-type="feed_list_content_full"]`,
	Fold:         `a[action-type="fl_fold"], a[action-type="fl_unfold"]`,
	Retweet:      "div.card-comment",
	Forwarded:    `div[node-type="feed_list_forwardContent"]`,
	Actions:      "div.card-act",
	Reposts:      `a[action-type="feed_list_forward"]`,
	Comments:     `a[action-type="feed_list_comment"]`,
	Likes:        `a[action-type="feed_list_like"] button span:nth-of-type(2)`,
	PicList:      "div.media.media-piclist",
	Video:        "div.thumbnail video-player",
	VIPContainer: "div.user_vip_icon_container",
}

// Parser extracts posts from search result pages
type Parser struct {
	Selectors Selectors
	search    SearchOptions
	now       func() time.Time
}

// NewParser creates a parser resolving links against the search host
func NewParser(search SearchOptions) *Parser {
	return &Parser{
		Selectors: DefaultSelectors,
		search:    search,
		now: func() time.Time {
			return time.Now().In(planner.ChinaStandardTime)
		},
	}
}

// WithClock sets the clock relative display times are resolved against
func (p *Parser) WithClock(now func() time.Time) *Parser {
	p.now = now
	return p
}

// ParsePage parses one results page. Cards that fail extraction are left
// out and reported in the returned error, which is joined from parsing
// errors; the page-level fields are always filled when the document parses.
func (p *Parser) ParsePage(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.NewParsing("page", "invalid HTML document", err)
	}

	page := &Page{
		Empty:     doc.Find(p.Selectors.EmptyMarker).Length() > 0,
		PageCount: doc.Find(p.Selectors.PageList).Length(),
	}
	if href, ok := doc.Find(p.Selectors.NextLink).First().Attr("href"); ok {
		page.NextURL = p.search.ResolveURL(strings.TrimSpace(href))
	}
	if page.Empty {
		return page, nil
	}

	posts, err := p.processCards(doc.Find(p.Selectors.Card))
	page.Posts = posts
	return page, err
}

type cardResult struct {
	posts []Post
	err   error
}

// processCards extracts cards in parallel and keeps page order
func (p *Parser) processCards(cards *goquery.Selection) ([]Post, error) {
	results := make([]cardResult, cards.Length())
	now := p.now()

	var wg sync.WaitGroup
	cards.Each(func(i int, s *goquery.Selection) {
		wg.Add(1)
		go func(i int, s *goquery.Selection) {
			defer wg.Done()
			posts, err := p.parseCard(s, now)
			results[i] = cardResult{posts: posts, err: err}
		}(i, s)
	})
	wg.Wait()

	var posts []Post
	var errs []error
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		posts = append(posts, r.posts...)
	}
	return posts, stderrors.Join(errs...)
}
