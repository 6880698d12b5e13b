package catalog

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	quotes := Default()
	if len(quotes) == 0 {
		t.Fatal("default catalog is empty")
	}

	ids := make(map[string]bool)
	symbols := make(map[string]bool)
	for _, q := range quotes {
		if q.ID == "" || q.Symbol == "" || q.Name == "" {
			t.Errorf("incomplete quote: %+v", q)
		}
		if q.Price <= 0 {
			t.Errorf("non-positive price: %+v", q)
		}
		if q.Symbol != strings.ToUpper(q.Symbol) {
			t.Errorf("symbol not uppercase: %q", q.Symbol)
		}
		if ids[q.ID] {
			t.Errorf("duplicate id: %q", q.ID)
		}
		if symbols[q.Symbol] {
			t.Errorf("duplicate symbol: %q", q.Symbol)
		}
		ids[q.ID] = true
		symbols[q.Symbol] = true
	}
}

func TestLoadSQLite_MissingTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	if _, err := LoadSQLite(path); err == nil {
		t.Error("expected error for database without a quotes table")
	}
}
