package gateway

import (
	"encoding/json"
	"strconv"
	"time"

	"quotefeed/internal/model"
)

// ── WS Protocol Message Types ──

// SubscribeMsg is the client → server SUBSCRIBE request. Symbols may contain
// raw quote IDs or symbols in any case; they are resolved at subscribe time.
// A second SUBSCRIBE replaces the client's previous subscription.
type SubscribeMsg struct {
	Type    string   `json:"type"`  // "SUBSCRIBE"
	ReqID   string   `json:"reqId"` // client-generated request ID
	Symbols []string `json:"symbols"`
}

// UnsubscribeMsg is the client → server UNSUBSCRIBE request.
type UnsubscribeMsg struct {
	Type  string `json:"type"` // "UNSUBSCRIBE"
	ReqID string `json:"reqId"`
}

// SnapshotResponse is the server → client SNAPSHOT sent on subscribe. It
// carries the current value of every resolved quote so the consumer cache is
// seeded before live batches arrive.
type SnapshotResponse struct {
	Type   string        `json:"type"` // "SNAPSHOT"
	ReqID  string        `json:"reqId"`
	Quotes []model.Quote `json:"quotes"`
}

// ErrorResponse is the server → client ERROR message.
type ErrorResponse struct {
	Type  string `json:"type"` // "ERROR"
	ReqID string `json:"reqId,omitempty"`
	Error string `json:"error"`
}

// QuoteError is the REST error body.
type QuoteError struct {
	Error string `json:"error"`
}

// buildBatchEnvelope hand-crafts the BATCH envelope JSON around a
// pre-marshaled quotes array. Includes a per-client seq for gap detection.
// Shape: {"type":"BATCH","seq":N,"ts":"...","quotes":[...]}
func buildBatchEnvelope(seq int64, now time.Time, quotesJSON []byte) []byte {
	buf := make([]byte, 0, len(quotesJSON)+96)
	buf = append(buf, `{"type":"BATCH","seq":`...)
	buf = strconv.AppendInt(buf, seq, 10)
	buf = append(buf, `,"ts":"`...)
	buf = now.AppendFormat(buf, time.RFC3339Nano)
	buf = append(buf, `","quotes":`...)
	buf = append(buf, quotesJSON...)
	buf = append(buf, '}')
	return buf
}

// marshalBatch encodes the quotes array for the envelope.
func marshalBatch(batch model.Batch) []byte {
	b, _ := json.Marshal(batch)
	return b
}
