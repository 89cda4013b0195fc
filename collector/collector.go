package collector

//go:generate go run github.com/abice/go-enum -f=$GOFILE --marshal --names

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/poisonlab/poisonlab/log"
)

const timeFormat = "2006-01-02 15:04:05.000"

// Scope actor owning an event log ENUM(
// authoritative // the authoritative name server
// resolver // the victim resolver
// )
type Scope int

// Kind of a log entry ENUM(
// info
// query
// answer
// signing
// validation
// attack
// )
type Kind int

// Event is a single timestamped event
type Event struct {
	Time    time.Time
	Scope   Scope
	Kind    Kind
	Message string
}

func (e Event) String() string {
	return fmt.Sprintf("[%s] %s", e.Time.Format(timeFormat), e.Message)
}

// nolint
var now = time.Now

// Collector keeps one bounded, append-only event log per scope
type Collector struct {
	buffers map[Scope]*buffer
}

// New creates a collector retaining at most capacity entries per scope
func New(capacity int) *Collector {
	c := &Collector{buffers: make(map[Scope]*buffer, len(_ScopeNames))}

	for _, name := range ScopeNames() {
		scope, _ := ParseScope(name)
		c.buffers[scope] = newBuffer(capacity)
	}

	return c
}

// Add appends a formatted message to the log of scope
func (c *Collector) Add(scope Scope, kind Kind, format string, args ...any) {
	e := Event{
		Time:    now(),
		Scope:   scope,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}

	log.PrefixedLog(scope.String()).WithField("kind", kind).Debug(e.Message)

	c.buffers[scope].add(e)
}

// Entries returns the entries of scope in insertion order, optionally filtered by kind
func (c *Collector) Entries(scope Scope, kinds ...Kind) []Event {
	all := c.buffers[scope].all()

	if len(kinds) == 0 {
		return all
	}

	res := make([]Event, 0, len(all))

	for _, e := range all {
		for _, k := range kinds {
			if e.Kind == k {
				res = append(res, e)

				break
			}
		}
	}

	return res
}

// Reset drops all entries of all scopes
func (c *Collector) Reset() {
	for _, b := range c.buffers {
		b.reset()
	}
}

// Render joins entries into newline separated text, placeholder if there are none
func Render(entries []Event, placeholder string) string {
	if len(entries) == 0 {
		return placeholder
	}

	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.String()
	}

	return strings.Join(lines, "\n")
}

type buffer struct {
	mu      sync.Mutex
	entries []Event
	maxSize int
}

func newBuffer(maxSize int) *buffer {
	return &buffer{
		entries: make([]Event, 0, maxSize),
		maxSize: maxSize,
	}
}

func (b *buffer) add(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, e)
	if len(b.entries) > b.maxSize {
		b.entries = b.entries[1:]
	}
}

func (b *buffer) all() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]Event{}, b.entries...)
}

func (b *buffer) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = make([]Event, 0, b.maxSize)
}
