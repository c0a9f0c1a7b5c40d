// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package entity memoizes organization and person lookups for the duration
// of one sync run. The first request for an identifier performs the lookup;
// every later request, including requests made while the first is still in
// flight, is served from memory. Failed lookups are cached too, so an
// identifier is looked up at most once per run.
package entity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/pdiddy/thesis-sync/pkg/types"
)

// Lookup fetches secondary entities from the upstream.
type Lookup interface {
	Organization(ctx context.Context, id string) (*types.ResolvedOrganization, error)
	Person(ctx context.Context, id string) (*types.ResolvedPerson, error)
}

// Stats counts cache activity. Failures include not-found results.
type Stats struct {
	OrgLookups    int `json:"org_lookups" yaml:"org_lookups"`
	PersonLookups int `json:"person_lookups" yaml:"person_lookups"`
	Hits          int `json:"hits" yaml:"hits"`
	Failures      int `json:"failures" yaml:"failures"`
}

// Cache is a run-scoped memoization layer over a Lookup. Construct one per
// run and drop it when the run ends. Safe for concurrent use.
type Cache struct {
	lookup Lookup
	logger *log.Logger

	mu      sync.Mutex
	orgs    map[string]*entry[types.ResolvedOrganization]
	persons map[string]*entry[types.ResolvedPerson]

	orgLookups    atomic.Int64
	personLookups atomic.Int64
	hits          atomic.Int64
	failures      atomic.Int64
}

// entry holds one lookup result. done is closed once val and err are set;
// a nil val with a nil err never happens.
type entry[T any] struct {
	done chan struct{}
	val  *T
	err  error
}

// New returns an empty cache over lookup. A nil logger uses log.Default().
func New(lookup Lookup, logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.Default()
	}
	return &Cache{
		lookup:  lookup,
		logger:  logger,
		orgs:    make(map[string]*entry[types.ResolvedOrganization]),
		persons: make(map[string]*entry[types.ResolvedPerson]),
	}
}

// Organization returns the organization with the given id, or nil if it
// could not be resolved.
func (c *Cache) Organization(ctx context.Context, id string) *types.ResolvedOrganization {
	org, err := resolve(ctx, c, c.orgs, id, c.lookup.Organization, &c.orgLookups)
	if err != nil {
		return nil
	}
	return org
}

// Person returns the person with the given id, or nil if it could not be
// resolved.
func (c *Cache) Person(ctx context.Context, id string) *types.ResolvedPerson {
	p, err := resolve(ctx, c, c.persons, id, c.lookup.Person, &c.personLookups)
	if err != nil {
		return nil
	}
	return p
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		OrgLookups:    int(c.orgLookups.Load()),
		PersonLookups: int(c.personLookups.Load()),
		Hits:          int(c.hits.Load()),
		Failures:      int(c.failures.Load()),
	}
}

// Len returns the number of cached organizations and persons.
func (c *Cache) Len() (orgs, persons int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.orgs), len(c.persons)
}

func resolve[T any](
	ctx context.Context,
	c *Cache,
	m map[string]*entry[T],
	id string,
	fetch func(context.Context, string) (*T, error),
	calls *atomic.Int64,
) (val *T, err error) {
	c.mu.Lock()
	if e, ok := m[id]; ok {
		c.mu.Unlock()
		select {
		case <-e.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		c.hits.Add(1)
		return e.val, e.err
	}
	e := &entry[T]{done: make(chan struct{})}
	m[id] = e
	c.mu.Unlock()

	// The entry is always finished, even when fetch panics, so waiters
	// never block on it.
	defer func() {
		if r := recover(); r != nil {
			val, err = nil, fmt.Errorf("lookup panicked: %v", r)
		}
		if err == nil && val == nil {
			err = errors.New("empty lookup result")
		}
		if err != nil {
			c.failures.Add(1)
			c.logger.Warn("lookup failed", "id", id, "err", err)
			val = nil
		}
		e.val, e.err = val, err
		close(e.done)
	}()

	calls.Add(1)
	return fetch(ctx, id)
}
