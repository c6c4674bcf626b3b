package search

import "sync"

// Latest keeps the result of the most recently completed search. Searches are
// never cancelled by newer ones; whichever finishes last wins.
type Latest struct {
	mu         sync.Mutex
	generation uint64
	completed  uint64
	query      Query
	results    []Result
}

// Begin reserves a generation number for a search about to start.
func (l *Latest) Begin() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generation++
	return l.generation
}

// Complete records results for generation. It always stores them, since the
// last search to finish determines what is shown.
func (l *Latest) Complete(generation uint64, q Query, results []Result) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.completed = generation
	l.query = q
	l.results = results
}

// Results returns the stored results, the query that produced them and the
// generation they belong to.
func (l *Latest) Results() ([]Result, Query, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.results, l.query, l.completed
}

// IsStale reports whether a newer search started after generation.
func (l *Latest) IsStale(generation uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return generation < l.generation
}

// Reset drops stored results, for example after the workspace root changed.
func (l *Latest) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results = nil
	l.query = Query{}
	l.completed = 0
}
