package planner

import "iter"

// Request is one page fetch derived from a slice
type Request struct {
	Slice Slice
	URL   string
	Page  int
}

// URLBuilder renders the first-page URL of a slice
type URLBuilder func(Slice) string

// Frontier is the pull-based crawl of one keyword. Root slices are drawn
// lazily from the planned sequence; children and next pages are visited
// depth first, in chronological order. A Frontier is not safe for
// concurrent use; the Budget it shares is.
type Frontier struct {
	planner  *Planner
	keyword  string
	buildURL URLBuilder
	next     func() (Slice, bool)
	stop     func()
	stack    []Request
	done     bool
}

// NewFrontier starts a crawl over roots, as returned by Plan
func (p *Planner) NewFrontier(keyword string, roots iter.Seq[Slice], buildURL URLBuilder) *Frontier {
	next, stop := iter.Pull(roots)
	return &Frontier{
		planner:  p,
		keyword:  keyword,
		buildURL: buildURL,
		next:     next,
		stop:     stop,
	}
}

// Next returns the next request to fetch. It returns false once the
// frontier is drained or the keyword's budget is exhausted.
func (f *Frontier) Next() (Request, bool) {
	if f.done {
		return Request{}, false
	}
	if f.planner.budget.KeywordExhausted(f.keyword) {
		f.Close()
		return Request{}, false
	}

	if n := len(f.stack); n > 0 {
		req := f.stack[n-1]
		f.stack = f.stack[:n-1]
		return req, true
	}

	s, ok := f.next()
	if !ok {
		f.Close()
		return Request{}, false
	}
	return f.first(s), true
}

// Report feeds the observation of a fetched request back into the frontier
// and returns the planner's decision.
func (f *Frontier) Report(req Request, obs Observation) Action {
	if obs.Page == 0 {
		obs.Page = req.Page
	}
	action := f.planner.Observe(req.Slice, obs)

	switch action.Kind {
	case ActionPaginate:
		if action.NextURL != "" {
			f.push(Request{Slice: req.Slice, URL: action.NextURL, Page: req.Page + 1})
		}
	case ActionBisect:
		for i := len(action.Children) - 1; i >= 0; i-- {
			f.push(f.first(action.Children[i]))
		}
	}
	return action
}

// Pending returns the number of queued requests, not counting unpulled roots
func (f *Frontier) Pending() int {
	return len(f.stack)
}

// Close abandons the remaining requests and releases the root sequence
func (f *Frontier) Close() {
	if f.done {
		return
	}
	f.done = true
	f.stack = nil
	f.stop()
}

func (f *Frontier) first(s Slice) Request {
	return Request{Slice: s, URL: f.buildURL(s), Page: 1}
}

func (f *Frontier) push(req Request) {
	if !f.done {
		f.stack = append(f.stack, req)
	}
}
