package planner

import "sync"

// Budget counts accepted records per keyword and across the run.
// Counters only grow. A cap of 0 is unbounded.
type Budget struct {
	mu            sync.Mutex
	perKeywordCap int
	globalCap     int
	counts        map[string]int
	total         int
}

// NewBudget creates a budget with the given per-keyword and global caps
func NewBudget(perKeywordCap, globalCap int) *Budget {
	return &Budget{
		perKeywordCap: perKeywordCap,
		globalCap:     globalCap,
		counts:        make(map[string]int),
	}
}

// Accept records one accepted item for keyword.
// It returns false, without counting, once either cap has been reached.
func (b *Budget) Accept(keyword string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.keywordFull(keyword) || b.globalFull() {
		return false
	}
	b.counts[keyword]++
	b.total++
	return true
}

// KeywordExhausted reports whether no more records may be accepted for keyword
func (b *Budget) KeywordExhausted(keyword string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.keywordFull(keyword) || b.globalFull()
}

// Exhausted reports whether the run-wide cap has been reached
func (b *Budget) Exhausted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.globalFull()
}

// Count returns the accepted records for keyword
func (b *Budget) Count(keyword string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts[keyword]
}

// Total returns the accepted records across all keywords
func (b *Budget) Total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

func (b *Budget) keywordFull(keyword string) bool {
	return b.perKeywordCap > 0 && b.counts[keyword] >= b.perKeywordCap
}

func (b *Budget) globalFull() bool {
	return b.globalCap > 0 && b.total >= b.globalCap
}
