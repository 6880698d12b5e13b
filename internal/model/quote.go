package model

import "encoding/json"

// Quote represents a single tracked instrument with its live price state.
// ID is the stable identity used by consumer caches to merge updates into
// previously stored records; it never changes for the life of the quote.
// Symbol is a unique secondary key used only for lookup, never for identity.
type Quote struct {
	ID            string  `json:"id"`
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"changePercent"`
}

// JSON returns the JSON-encoded quote (ignoring errors for hot-path usage).
func (q *Quote) JSON() []byte {
	b, _ := json.Marshal(q)
	return b
}
