package testfixtures

import (
	"fmt"
	"sync"
)

// IDGenerator hands out predictable record identifiers such as "plan-1".
type IDGenerator struct {
	mu     sync.Mutex
	prefix string
	issued []string
}

// NewIDGenerator returns a generator for prefix, defaulting to "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// Next returns the next identifier and remembers it.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := fmt.Sprintf("%s-%d", g.prefix, len(g.issued)+1)
	g.issued = append(g.issued, id)
	return id
}

// NextFunc exposes Next for constructors that take a func() string.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// Issued lists the identifiers handed out so far, oldest first.
func (g *IDGenerator) Issued() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.issued...)
}
