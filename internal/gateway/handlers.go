package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"quotefeed/internal/quotes"
	"quotefeed/internal/store"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// RegisterRoutes registers the query boundary (REST) and the subscribe
// boundary (WebSocket) on the provided mux.
func RegisterRoutes(mux *http.ServeMux, hub *Hub, resolver *quotes.Resolver, processStart time.Time) {
	// WebSocket endpoint — subscribe-style boundary
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[gateway] ws upgrade error: %v", err)
			return
		}
		hub.HandleWSRequest(conn)
	})

	// REST: all tracked quotes, in stable store order
	mux.HandleFunc("/api/quotes", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		if r.Method == http.MethodOptions {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resolver.ResolveAll())
	})

	// REST: single quote by ID or case-insensitive symbol
	mux.HandleFunc("/api/quotes/", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		if r.Method == http.MethodOptions {
			return
		}
		w.Header().Set("Content-Type", "application/json")

		identifier := strings.TrimPrefix(r.URL.Path, "/api/quotes/")
		if identifier == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(QuoteError{Error: "missing identifier"})
			return
		}

		q, err := resolver.ResolveOne(identifier)
		if err != nil {
			if errors.Is(err, store.ErrUnknownQuote) {
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(QuoteError{Error: "unknown quote: " + identifier})
				return
			}
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(QuoteError{Error: err.Error()})
			return
		}
		json.NewEncoder(w).Encode(q)
	})

	// Health endpoint for the gateway itself
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","service":"quotefeed","uptime":"%s","ws_clients":%d}`,
			time.Since(processStart).Round(time.Second), hub.ClientCount())
		fmt.Fprintln(w)
	})
}
