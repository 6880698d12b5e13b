// Package store holds the current value of every tracked quote, keyed by
// stable ID. It is the single source of truth for live prices: only the
// mutator writes to it, on its own timer cadence, while the resolver and the
// gateway read from it concurrently. All accessors copy quote values out, so
// a caller can never observe a partially-applied update.
package store

import (
	"errors"
	"strings"
	"sync"

	"quotefeed/internal/model"
)

// ErrUnknownQuote is returned when an ID or symbol matches no tracked quote.
var ErrUnknownQuote = errors.New("unknown quote")

// Store is the in-memory quote store. Iteration order of List is the seed
// order and stays stable across calls.
type Store struct {
	mu       sync.RWMutex
	byID     map[string]*model.Quote
	bySymbol map[string]string // upper-cased symbol -> ID
	order    []string          // IDs in seed order
}

// New creates a Store seeded with the given quotes, in order.
// Duplicate IDs or symbols in the seed are a programming error.
func New(seed []model.Quote) (*Store, error) {
	s := &Store{
		byID:     make(map[string]*model.Quote, len(seed)),
		bySymbol: make(map[string]string, len(seed)),
		order:    make([]string, 0, len(seed)),
	}
	for i := range seed {
		q := seed[i]
		if q.ID == "" || q.Symbol == "" {
			return nil, errors.New("store: seed quote missing id or symbol")
		}
		sym := strings.ToUpper(q.Symbol)
		if _, dup := s.byID[q.ID]; dup {
			return nil, errors.New("store: duplicate id in seed: " + q.ID)
		}
		if _, dup := s.bySymbol[sym]; dup {
			return nil, errors.New("store: duplicate symbol in seed: " + q.Symbol)
		}
		cp := q
		s.byID[q.ID] = &cp
		s.bySymbol[sym] = q.ID
		s.order = append(s.order, q.ID)
	}
	return s, nil
}

// Get returns the quote with the given ID, or ErrUnknownQuote.
func (s *Store) Get(id string) (model.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.byID[id]
	if !ok {
		return model.Quote{}, ErrUnknownQuote
	}
	return *q, nil
}

// GetBySymbol returns the quote with the given symbol (case-insensitive),
// or ErrUnknownQuote.
func (s *Store) GetBySymbol(symbol string) (model.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.bySymbol[strings.ToUpper(symbol)]
	if !ok {
		return model.Quote{}, ErrUnknownQuote
	}
	return *s.byID[id], nil
}

// ResolveID maps an identifier (raw ID, or symbol in any case) to the
// canonical quote ID. Returns ErrUnknownQuote if neither matches.
func (s *Store) ResolveID(identifier string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.byID[identifier]; ok {
		return identifier, nil
	}
	if id, ok := s.bySymbol[strings.ToUpper(identifier)]; ok {
		return id, nil
	}
	return "", ErrUnknownQuote
}

// List returns all quotes in seed order.
func (s *Store) List() []model.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Quote, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byID[id])
	}
	return out
}

// IDs returns all quote IDs in seed order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of tracked quotes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// ApplyMutation replaces price and changePercent for the quote with the given
// ID as one atomic update, and returns the full post-mutation quote.
// An unknown ID returns ErrUnknownQuote; on the mutator path that indicates a
// broken invariant (the store defines the ID universe) and is treated as fatal
// by the caller.
func (s *Store) ApplyMutation(id string, price, changePercent float64) (model.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.byID[id]
	if !ok {
		return model.Quote{}, ErrUnknownQuote
	}
	q.Price = price
	q.ChangePercent = changePercent
	return *q, nil
}
