// Package quotes provides the read-only snapshot path over the quote store.
package quotes

import (
	"quotefeed/internal/model"
	"quotefeed/internal/store"
)

// Resolver answers point-in-time lookups against the store. It has no side
// effects and no interaction with the broadcast topic; it exists to seed a
// consumer cache before (or independently of) subscribing.
type Resolver struct {
	store *store.Store
}

// NewResolver creates a Resolver over the given store.
func NewResolver(st *store.Store) *Resolver {
	return &Resolver{store: st}
}

// ResolveOne looks up a single quote by ID, or by symbol (case-insensitive)
// when the identifier matches no ID. Returns store.ErrUnknownQuote when
// neither matches.
func (r *Resolver) ResolveOne(identifier string) (model.Quote, error) {
	if q, err := r.store.Get(identifier); err == nil {
		return q, nil
	}
	return r.store.GetBySymbol(identifier)
}

// ResolveAll returns every tracked quote in the store's stable order.
func (r *Resolver) ResolveAll() []model.Quote {
	return r.store.List()
}
