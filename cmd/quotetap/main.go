// cmd/quotetap — WebSocket tap for the quote feed.
//
// Connects to a quotefeed server, subscribes to a set of identifiers, and
// prints the SNAPSHOT and every BATCH envelope it receives. Useful for
// eyeballing the live stream without a browser client.
//
// Config (env vars):
//
//	QUOTETAP_URL      — WS endpoint              (default "ws://localhost:8080/ws")
//	QUOTETAP_SYMBOLS  — comma-separated IDs or symbols (default "ETH,SOL")
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

const (
	reconnectDelay    = 2 * time.Second
	maxReconnectDelay = 30 * time.Second
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	wsURL := envOrDefault("QUOTETAP_URL", "ws://localhost:8080/ws")
	symbols := splitSymbols(envOrDefault("QUOTETAP_SYMBOLS", "ETH,SOL"))
	if _, err := url.Parse(wsURL); err != nil {
		log.Fatalf("[quotetap] invalid QUOTETAP_URL: %v", err)
	}
	if len(symbols) == 0 {
		log.Fatalf("[quotetap] QUOTETAP_SYMBOLS is empty")
	}

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	delay := reconnectDelay
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		err := runOnce(ctx, wsURL, symbols)
		if err == nil {
			return
		}

		log.Printf("[quotetap] disconnected (%v), reconnecting in %s...", err, delay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// runOnce makes a single connection attempt, subscribes, and reads until
// disconnect or ctx cancel.
func runOnce(ctx context.Context, wsURL string, symbols []string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Printf("[quotetap] connected to %s", wsURL)

	go func() {
		<-ctx.Done()
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown"))
		conn.Close()
	}()

	sub, _ := json.Marshal(map[string]interface{}{
		"type":    "SUBSCRIBE",
		"reqId":   "quotetap-1",
		"symbols": symbols,
	})
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		return err
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		// Coalesced frames carry multiple newline-separated envelopes.
		for _, line := range strings.Split(string(raw), "\n") {
			if line == "" {
				continue
			}
			printEnvelope(line)
		}
	}
}

func printEnvelope(line string) {
	var env struct {
		Type   string `json:"type"`
		ReqID  string `json:"reqId"`
		Seq    int64  `json:"seq"`
		Error  string `json:"error"`
		Quotes []struct {
			ID            string  `json:"id"`
			Symbol        string  `json:"symbol"`
			Price         float64 `json:"price"`
			ChangePercent float64 `json:"changePercent"`
		} `json:"quotes"`
	}
	if err := json.Unmarshal([]byte(line), &env); err != nil {
		log.Printf("[quotetap] parse error: %v (raw: %s)", err, line)
		return
	}

	switch env.Type {
	case "SNAPSHOT":
		log.Printf("[quotetap] snapshot (%d quotes):", len(env.Quotes))
		for _, q := range env.Quotes {
			log.Printf("[quotetap]   %-6s %12.2f  %+6.2f%%  (%s)", q.Symbol, q.Price, q.ChangePercent, q.ID)
		}
	case "BATCH":
		for _, q := range env.Quotes {
			log.Printf("[quotetap] #%d %-6s %12.2f  %+6.2f%%", env.Seq, q.Symbol, q.Price, q.ChangePercent)
		}
	case "ERROR":
		log.Printf("[quotetap] server error (reqId=%s): %s", env.ReqID, env.Error)
	default:
		log.Printf("[quotetap] %s", line)
	}
}

func splitSymbols(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
