package planner

import (
	"fmt"
	"iter"
	"time"

	"sjsage522/weibosearch/pkg/errors"
)

// DefaultThreshold is the visible page count at which a slice gets bisected.
// The search interface never lists more than 50 pages.
const DefaultThreshold = 46

// DateLayout is the layout of the dates given to Plan
const DateLayout = "2006-01-02"

// allRegions disables region filtering when named in Plan
var allRegions = map[string]bool{"全部": true, "all": true}

// ChinaStandardTime is the zone search timestamps are interpreted in
var ChinaStandardTime = time.FixedZone("CST", 8*60*60)

// ActionKind is the decision taken after observing a fetched page
type ActionKind int

const (
	// ActionStop derives nothing further from the page
	ActionStop ActionKind = iota
	// ActionPaginate follows the page's next link
	ActionPaginate
	// ActionBisect replaces the slice by finer children
	ActionBisect
)

func (k ActionKind) String() string {
	switch k {
	case ActionStop:
		return "stop"
	case ActionPaginate:
		return "paginate"
	case ActionBisect:
		return "bisect"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// Observation is what the caller learned from one fetched page of a slice
type Observation struct {
	// Empty is set when the source reported no results
	Empty bool
	// PageCount is the number of result pages the source advertises
	PageCount int
	// NextURL is the next-page link, empty when there is none
	NextURL string
	// Page is the 1-based page number within the slice
	Page int
}

// Action is the planner's decision for a fetched page
type Action struct {
	Kind     ActionKind
	NextURL  string
	Children []Slice
}

// Planner decides how a keyword search is partitioned into slices.
// It performs no I/O. The shared Budget is the only mutable state.
type Planner struct {
	threshold int
	regions   *RegionTree
	budget    *Budget
	loc       *time.Location
}

// Option configures a Planner
type Option func(*Planner)

// WithThreshold sets the bisection threshold
func WithThreshold(threshold int) Option {
	return func(p *Planner) {
		if threshold > 0 {
			p.threshold = threshold
		}
	}
}

// WithRegions sets the region tree used for region filtering
func WithRegions(tree *RegionTree) Option {
	return func(p *Planner) {
		p.regions = tree
	}
}

// WithLocation sets the zone calendar days are cut in
func WithLocation(loc *time.Location) Option {
	return func(p *Planner) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// New creates a planner drawing on budget
func New(budget *Budget, opts ...Option) *Planner {
	p := &Planner{
		threshold: DefaultThreshold,
		budget:    budget,
		loc:       ChinaStandardTime,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.budget == nil {
		p.budget = NewBudget(0, 0)
	}
	return p
}

// Budget returns the planner's budget
func (p *Planner) Budget() *Budget {
	return p.budget
}

// Threshold returns the bisection threshold
func (p *Planner) Threshold() int {
	return p.threshold
}

// Plan validates the request and returns the root slices lazily: one
// full-range slice, or one per named region. Dates are inclusive.
// The sequence ends early once the keyword's budget is exhausted.
func (p *Planner) Plan(keyword, startDate, endDate string, regions ...string) (iter.Seq[Slice], error) {
	start, err := time.ParseInLocation(DateLayout, startDate, p.loc)
	if err != nil {
		return nil, errors.NewConfiguration(fmt.Sprintf("invalid start date %q", startDate), err)
	}
	end, err := time.ParseInLocation(DateLayout, endDate, p.loc)
	if err != nil {
		return nil, errors.NewConfiguration(fmt.Sprintf("invalid end date %q", endDate), err)
	}
	if start.After(end) {
		return nil, errors.NewConfiguration(fmt.Sprintf("start date %s is after end date %s", startDate, endDate), nil)
	}
	end = end.AddDate(0, 0, 1)

	var filter []*Region
	for _, name := range regions {
		if allRegions[name] {
			filter = nil
			break
		}
		r, ok := p.regions.Lookup(name)
		if !ok {
			return nil, errors.NewConfiguration(fmt.Sprintf("unknown region %q", name), nil)
		}
		filter = append(filter, r)
	}

	roots := []Slice{{Keyword: keyword, Start: start, End: end}}
	if len(filter) > 0 {
		roots = roots[:0]
		for _, r := range filter {
			roots = append(roots, Slice{Keyword: keyword, Start: start, End: end, Region: r})
		}
	}

	return func(yield func(Slice) bool) {
		for _, s := range roots {
			if p.budget.KeywordExhausted(keyword) {
				return
			}
			if !yield(s) {
				return
			}
		}
	}, nil
}

// Observe decides what to derive from a fetched page of s.
// Emptiness wins over the page count; continuation pages never bisect.
func (p *Planner) Observe(s Slice, obs Observation) Action {
	if obs.Empty || p.budget.KeywordExhausted(s.Keyword) {
		return Action{Kind: ActionStop}
	}
	if obs.Page > 1 || obs.PageCount < p.threshold {
		return Action{Kind: ActionPaginate, NextURL: obs.NextURL}
	}

	children := p.bisect(s)
	if len(children) == 0 {
		return Action{Kind: ActionPaginate, NextURL: obs.NextURL}
	}
	return Action{Kind: ActionBisect, Children: children}
}

// bisect splits s one level finer. It returns nil when s cannot be split.
func (p *Planner) bisect(s Slice) []Slice {
	switch s.Granularity() {
	case GranularityRange:
		return p.splitBy(s, func(t time.Time) time.Time {
			y, m, d := t.Date()
			return time.Date(y, m, d+1, 0, 0, 0, 0, p.loc)
		})
	case GranularityDay:
		return p.splitBy(s, func(t time.Time) time.Time {
			return t.Truncate(time.Hour).Add(time.Hour)
		})
	case GranularityHour:
		if s.Region == nil || len(s.Region.Cities) == 0 {
			return nil
		}
		children := make([]Slice, 0, len(s.Region.Cities))
		for i := range s.Region.Cities {
			child := s
			child.City = &s.Region.Cities[i]
			children = append(children, child)
		}
		return children
	default:
		return nil
	}
}

// splitBy cuts [s.Start, s.End) at the boundaries produced by next
func (p *Planner) splitBy(s Slice, next func(time.Time) time.Time) []Slice {
	var children []Slice
	for t := s.Start.In(p.loc); t.Before(s.End); {
		boundary := next(t)
		if boundary.After(s.End) {
			boundary = s.End
		}
		child := s
		child.Start, child.End = t, boundary
		children = append(children, child)
		t = boundary
	}
	return children
}
