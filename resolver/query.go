package resolver

import (
	"sync"
	"time"

	"github.com/poisonlab/poisonlab/model"
)

// Query is an outstanding query of the resolver. Token and Port never change after creation.
type Query struct {
	ID      string
	Key     model.QueryKey
	Token   uint16
	Port    uint16
	Created time.Time

	mu       sync.Mutex
	resolved bool
	commit   *model.Commit
	err      error
	received int
	done     chan struct{}
	timer    *time.Timer
}

func newQuery(id string, key model.QueryKey, token, port uint16, created time.Time) *Query {
	return &Query{
		ID:      id,
		Key:     key,
		Token:   token,
		Port:    port,
		Created: created,
		done:    make(chan struct{}),
	}
}

// Done is closed once the query is retired
func (q *Query) Done() <-chan struct{} {
	return q.done
}

// Resolved returns true once the query is retired
func (q *Query) Resolved() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.resolved
}

// Result returns the commit or the reason the query was retired without one
func (q *Query) Result() (*model.Commit, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.commit, q.err
}

// Received returns the number of candidates delivered for this query
func (q *Query) Received() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.received
}

// retire must be called with q.mu held. Returns false if the query was already retired.
func (q *Query) retire(commit *model.Commit, err error) bool {
	if q.resolved {
		return false
	}

	q.resolved = true
	q.commit = commit
	q.err = err

	if q.timer != nil {
		q.timer.Stop()
	}

	close(q.done)

	return true
}

// QueryInfo is a snapshot of an outstanding query
type QueryInfo struct {
	ID       string
	Domain   string
	Type     string
	Age      time.Duration
	Received int
}
