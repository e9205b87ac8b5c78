package worker

import (
	"bytes"
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"sjsage522/weibosearch/helpers"
	"sjsage522/weibosearch/internal/planner"
	"sjsage522/weibosearch/internal/weibo"
	"sjsage522/weibosearch/logger"
	"sjsage522/weibosearch/pkg/errors"
	"sjsage522/weibosearch/services/sink"
)

// Fetcher retrieves a search page as UTF-8
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// IPResolver looks up the region a post was published from
type IPResolver interface {
	Lookup(ctx context.Context, bid string) (string, error)
}

// Options configures a run
type Options struct {
	StartDate string
	EndDate   string
	Regions   []string

	// Concurrency is the number of keywords crawled in parallel
	Concurrency int
	// Retries is the number of retries of a failed network request
	Retries int
	// RetryInterval is the first backoff interval
	RetryInterval time.Duration
	// BlockWait is how long to pause after a rate-limit response before
	// the request is tried once more; zero abandons it right away
	BlockWait time.Duration
}

// KeywordStats summarises the crawl of one keyword
type KeywordStats struct {
	Keyword    string
	Pages      int
	Accepted   int
	Duplicates int
	Refused    int
	Abandoned  int
	SinkErrors int
	Elapsed    time.Duration
}

// Worker drives the planner for a list of keywords: it pulls requests
// from each keyword's frontier, fetches and parses them, hands accepted
// posts to the sink and reports every page back to the frontier.
type Worker struct {
	planner  *planner.Planner
	search   weibo.SearchOptions
	fetcher  Fetcher
	parser   *weibo.Parser
	sink     sink.Sink
	dedup    *Dedup
	ip       IPResolver
	failures helpers.FailureLogger
	opts     Options
	log      *logger.Logger
}

// NewWorker creates a new worker
func NewWorker(
	p *planner.Planner,
	search weibo.SearchOptions,
	fetcher Fetcher,
	parser *weibo.Parser,
	s sink.Sink,
	opts Options,
) *Worker {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = time.Second
	}
	return &Worker{
		planner: p,
		search:  search,
		fetcher: fetcher,
		parser:  parser,
		sink:    s,
		opts:    opts,
		log:     logger.ForWorker(),
	}
}

// WithDedup drops posts whose id was already seen
func (w *Worker) WithDedup(d *Dedup) *Worker {
	w.dedup = d
	return w
}

// WithIPLookup fills the IP region of every accepted post
func (w *Worker) WithIPLookup(ip IPResolver) *Worker {
	w.ip = ip
	return w
}

// WithFailureLog records abandoned requests
func (w *Worker) WithFailureLog(l helpers.FailureLogger) *Worker {
	w.failures = l
	return w
}

// Run crawls every keyword, at most Options.Concurrency at a time.
// It stops early on a configuration error or when ctx is cancelled;
// keywords not started once the run-wide cap is reached are skipped.
func (w *Worker) Run(ctx context.Context, keywords []string) ([]KeywordStats, error) {
	start := time.Now()
	stats := make([]KeywordStats, len(keywords))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.Concurrency)
	for i, kw := range keywords {
		if gctx.Err() != nil {
			break
		}
		if w.planner.Budget().Exhausted() {
			w.log.Info().Str("keyword", kw).Msg("Result limit reached, skipping keyword")
			stats[i].Keyword = kw
			continue
		}
		g.Go(func() error {
			var err error
			stats[i], err = w.crawlKeyword(gctx, kw)
			return err
		})
	}
	err := g.Wait()

	w.log.Info().
		Int("keywords", len(keywords)).
		Int("accepted", w.planner.Budget().Total()).
		Dur("elapsed", time.Since(start)).
		Msg("Crawl finished")
	return stats, err
}

// crawlKeyword drains one keyword's frontier
func (w *Worker) crawlKeyword(ctx context.Context, keyword string) (KeywordStats, error) {
	stats := KeywordStats{Keyword: keyword}
	start := time.Now()
	log := logger.ForKeyword(keyword)

	roots, err := w.planner.Plan(keyword, w.opts.StartDate, w.opts.EndDate, w.opts.Regions...)
	if err != nil {
		return stats, err
	}
	frontier := w.planner.NewFrontier(keyword, roots, w.search.URLBuilder())
	defer frontier.Close()

	log.Info().
		Str("start", w.opts.StartDate).
		Str("end", w.opts.EndDate).
		Msg("Crawling keyword")

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		req, ok := frontier.Next()
		if !ok {
			break
		}

		page, err := w.fetchPage(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Abandoned++
			log.Warn().Err(err).Str("url", req.URL).Msg("Abandoning request")
			if w.failures != nil {
				w.failures.LogFailure(keyword, req.URL, err)
			}
			continue
		}
		stats.Pages++

		for _, post := range page.Posts {
			w.handlePost(ctx, keyword, post, &stats)
		}

		action := frontier.Report(req, planner.Observation{
			Empty:     page.Empty,
			PageCount: page.PageCount,
			NextURL:   page.NextURL,
		})
		log.Debug().
			Str("slice", req.Slice.String()).
			Int("page", req.Page).
			Int("page_count", page.PageCount).
			Int("posts", len(page.Posts)).
			Stringer("action", action.Kind).
			Msg("Page processed")
	}

	stats.Elapsed = time.Since(start)
	log.Info().
		Int("pages", stats.Pages).
		Int("accepted", stats.Accepted).
		Int("duplicates", stats.Duplicates).
		Int("abandoned", stats.Abandoned).
		Dur("elapsed", stats.Elapsed).
		Msg("Keyword finished")
	return stats, nil
}

// fetchPage fetches and parses one request. Card-level extraction failures
// are logged and the rest of the page is still used.
func (w *Worker) fetchPage(ctx context.Context, req planner.Request) (*weibo.Page, error) {
	body, err := w.fetch(ctx, req.URL)
	if errors.IsType(err, errors.ErrorTypeRateLimit) && w.opts.BlockWait > 0 {
		w.log.Warn().
			Str("url", req.URL).
			Dur("wait", w.opts.BlockWait).
			Msg("Rate limited, pausing before one more attempt")
		if err := sleep(ctx, w.opts.BlockWait); err != nil {
			return nil, err
		}
		body, err = w.fetch(ctx, req.URL)
	}
	if err != nil {
		return nil, err
	}

	page, err := w.parser.ParsePage(bytes.NewReader(body))
	if page == nil {
		return nil, err
	}
	if err != nil {
		w.log.Warn().Err(err).Str("url", req.URL).Msg("Some cards could not be extracted")
	}
	return page, nil
}

// fetch retries retryable failures with exponential backoff
func (w *Worker) fetch(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	operation := func() error {
		b, err := w.fetcher.Fetch(ctx, url)
		if err != nil {
			if errors.IsRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		body = b
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = w.opts.RetryInterval
	policy.MaxElapsedTime = 0
	retries := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(max(w.opts.Retries, 0))), ctx)

	err := backoff.RetryNotify(operation, retries, func(err error, next time.Duration) {
		w.log.Debug().Err(err).Str("url", url).Dur("next", next).Msg("Retrying request")
	})
	return body, err
}

// handlePost runs one extracted post through dedup, the budget and the sink
func (w *Worker) handlePost(ctx context.Context, keyword string, post weibo.Post, stats *KeywordStats) {
	if w.dedup != nil && w.dedup.Seen(post.ID) {
		stats.Duplicates++
		return
	}
	if !w.planner.Budget().Accept(keyword) {
		stats.Refused++
		if w.dedup != nil {
			w.dedup.Forget(post.ID)
		}
		return
	}
	stats.Accepted++

	if w.ip != nil && post.BID != "" {
		ip, err := w.ip.Lookup(ctx, post.BID)
		if err != nil {
			w.log.Debug().Err(err).Str("bid", post.BID).Msg("IP lookup failed")
		}
		post.IP = ip
	}

	if err := w.sink.Write(ctx, sink.Record{Keyword: keyword, Post: post}); err != nil {
		stats.SinkErrors++
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
