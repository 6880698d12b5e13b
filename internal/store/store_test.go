package store

import (
	"errors"
	"testing"

	"quotefeed/internal/model"
)

func seedQuotes() []model.Quote {
	return []model.Quote{
		{ID: "token:ethereum:native", Symbol: "ETH", Name: "Ethereum", Price: 2250.50, ChangePercent: 2.5},
		{ID: "token:bitcoin:native", Symbol: "BTC", Name: "Bitcoin", Price: 43500.00, ChangePercent: 1.8},
		{ID: "token:solana:native", Symbol: "SOL", Name: "Solana", Price: 98.75, ChangePercent: -0.5},
	}
}

func TestStore_GetAndList(t *testing.T) {
	s, err := New(seedQuotes())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	q, err := s.Get("token:bitcoin:native")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if q.Symbol != "BTC" || q.Price != 43500.00 {
		t.Errorf("got %+v, want BTC at 43500.00", q)
	}

	// List order is seed order and stable across calls
	want := []string{"token:ethereum:native", "token:bitcoin:native", "token:solana:native"}
	for call := 0; call < 3; call++ {
		list := s.List()
		if len(list) != len(want) {
			t.Fatalf("list len: got %d, want %d", len(list), len(want))
		}
		for i, q := range list {
			if q.ID != want[i] {
				t.Errorf("call %d: list[%d].ID = %q, want %q", call, i, q.ID, want[i])
			}
		}
	}
}

func TestStore_GetUnknown(t *testing.T) {
	s, _ := New(seedQuotes())
	if _, err := s.Get("token:dogecoin:native"); !errors.Is(err, ErrUnknownQuote) {
		t.Errorf("expected ErrUnknownQuote, got %v", err)
	}
}

func TestStore_GetBySymbol_CaseInsensitive(t *testing.T) {
	s, _ := New(seedQuotes())
	for _, sym := range []string{"btc", "BTC", "Btc"} {
		q, err := s.GetBySymbol(sym)
		if err != nil {
			t.Fatalf("GetBySymbol(%q): %v", sym, err)
		}
		if q.ID != "token:bitcoin:native" {
			t.Errorf("GetBySymbol(%q).ID = %q, want token:bitcoin:native", sym, q.ID)
		}
	}
}

func TestStore_ResolveID(t *testing.T) {
	s, _ := New(seedQuotes())
	tests := []struct {
		name       string
		identifier string
		wantID     string
		wantErr    bool
	}{
		{"raw_id", "token:ethereum:native", "token:ethereum:native", false},
		{"symbol_upper", "SOL", "token:solana:native", false},
		{"symbol_lower", "sol", "token:solana:native", false},
		{"unknown", "XRP", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := s.ResolveID(tt.identifier)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownQuote) {
					t.Errorf("expected ErrUnknownQuote, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if id != tt.wantID {
				t.Errorf("got %q, want %q", id, tt.wantID)
			}
		})
	}
}

func TestStore_ApplyMutation(t *testing.T) {
	s, _ := New(seedQuotes())

	updated, err := s.ApplyMutation("token:solana:native", 101.25, -0.12)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if updated.Price != 101.25 || updated.ChangePercent != -0.12 {
		t.Errorf("updated = %+v, want price 101.25 change -0.12", updated)
	}
	// Identity and descriptive fields untouched
	if updated.ID != "token:solana:native" || updated.Symbol != "SOL" || updated.Name != "Solana" {
		t.Errorf("mutation touched immutable fields: %+v", updated)
	}

	// Store reflects the full update
	got, _ := s.Get("token:solana:native")
	if got != updated {
		t.Errorf("store state %+v != returned quote %+v", got, updated)
	}
}

func TestStore_ApplyMutation_Unknown(t *testing.T) {
	s, _ := New(seedQuotes())
	if _, err := s.ApplyMutation("token:dogecoin:native", 1, 1); !errors.Is(err, ErrUnknownQuote) {
		t.Errorf("expected ErrUnknownQuote, got %v", err)
	}
}

func TestStore_SeedValidation(t *testing.T) {
	dupID := append(seedQuotes(), model.Quote{ID: "token:ethereum:native", Symbol: "ETH2", Name: "x", Price: 1})
	if _, err := New(dupID); err == nil {
		t.Error("expected error for duplicate id")
	}

	dupSym := append(seedQuotes(), model.Quote{ID: "token:eth2:native", Symbol: "eth", Name: "x", Price: 1})
	if _, err := New(dupSym); err == nil {
		t.Error("expected error for duplicate symbol (case-insensitive)")
	}
}

func TestStore_ReadIsCopy(t *testing.T) {
	s, _ := New(seedQuotes())
	q1, _ := s.Get("token:ethereum:native")
	q1.Price = 0 // mutating the copy must not touch the store
	q2, _ := s.Get("token:ethereum:native")
	if q2.Price != 2250.50 {
		t.Errorf("store value changed through a read copy: %+v", q2)
	}
}
