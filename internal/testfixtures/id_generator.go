package testfixtures

import (
	"fmt"
	"sync"
)

// IDGenerator produces deterministic numeric identifiers for tests.
type IDGenerator struct {
	mu      sync.Mutex
	base    int64
	counter int64
}

// NewIDGenerator constructs a generator yielding base+1, base+2 and so on.
func NewIDGenerator(base int64) *IDGenerator {
	return &IDGenerator{base: base}
}

// Next returns the next identifier in the sequence.
func (g *IDGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return g.base + g.counter
}

// NextFunc exposes Next as a function suitable for dependency injection.
func (g *IDGenerator) NextFunc() func() int64 {
	if g == nil {
		return func() int64 { return 0 }
	}
	return g.Next
}

// SetCounter overrides the internal counter, enabling deterministic resets.
func (g *IDGenerator) SetCounter(counter int64) {
	g.mu.Lock()
	g.counter = counter
	g.mu.Unlock()
}

// TokenGenerator produces deterministic opaque tokens for tests.
type TokenGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter uint64
}

// NewTokenGenerator constructs a generator that yields tokens with the given
// prefix. When prefix is empty, "token" is used.
func NewTokenGenerator(prefix string) *TokenGenerator {
	if prefix == "" {
		prefix = "token"
	}
	return &TokenGenerator{prefix: prefix}
}

// Next returns the next token in the sequence.
func (g *TokenGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s-%d", g.prefix, g.counter)
}

// NextFunc exposes Next as a function suitable for dependency injection.
func (g *TokenGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}
