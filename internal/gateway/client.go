package gateway

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"quotefeed/internal/feed"

	"github.com/gorilla/websocket"
)

// Client represents a single WebSocket peer. It holds at most one live
// subscription; a re-SUBSCRIBE replaces the previous one.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub

	subMu sync.Mutex
	sub   *feed.Subscription

	seq atomic.Int64 // per-client BATCH envelope sequence
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))

			// Write coalescing: use NextWriter to batch queued messages
			// into a single WebSocket frame with newline separators
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(msg)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.cancelSub()
		c.hub.RemoveClient(c)
		c.conn.Close()
		log.Println("[gateway] ws client disconnected")
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var base struct {
			Type string `json:"type"`
			Ping int64  `json:"ping"`
		}
		if json.Unmarshal(msg, &base) != nil {
			continue
		}

		switch base.Type {
		case "SUBSCRIBE":
			var subMsg SubscribeMsg
			if err := json.Unmarshal(msg, &subMsg); err != nil {
				c.sendError("", "invalid SUBSCRIBE: "+err.Error())
				continue
			}
			c.handleSubscribe(subMsg)

		case "UNSUBSCRIBE":
			var unsubMsg UnsubscribeMsg
			if err := json.Unmarshal(msg, &unsubMsg); err != nil {
				continue
			}
			c.cancelSub()
			log.Println("[gateway] client unsubscribed")

		default:
			if base.Ping > 0 {
				pong, _ := json.Marshal(map[string]interface{}{
					"type":      "pong",
					"ping":      base.Ping,
					"server_ts": time.Now().UnixMilli(),
				})
				c.hub.trySend(c, pong)
			}
		}
	}
}

// handleSubscribe resolves the requested identity set, sends a SNAPSHOT of
// its current values, and starts streaming filtered batches. The previous
// subscription (if any) is cancelled before the new one takes effect.
func (c *Client) handleSubscribe(msg SubscribeMsg) {
	sub, err := feed.Subscribe(c.hub.store, c.hub.topic, msg.Symbols)
	if err != nil {
		c.sendError(msg.ReqID, err.Error())
		return
	}

	c.subMu.Lock()
	old := c.sub
	c.sub = sub
	c.subMu.Unlock()
	if old != nil {
		old.Cancel()
	}

	// Seed the consumer cache with current values of the resolved set.
	snap := SnapshotResponse{
		Type:  "SNAPSHOT",
		ReqID: msg.ReqID,
	}
	for _, id := range sub.IDs() {
		if q, err := c.hub.store.Get(id); err == nil {
			snap.Quotes = append(snap.Quotes, q)
		}
	}
	c.sendJSON(snap)
	log.Printf("[gateway] client subscribed: ids=%v", sub.IDs())

	go c.pumpBatches(sub)
}

// pumpBatches forwards the subscription's filtered batches to the client
// until the subscription ends. Each batch gets its own envelope with a
// per-client monotonic seq.
func (c *Client) pumpBatches(sub *feed.Subscription) {
	for batch := range sub.Updates() {
		env := buildBatchEnvelope(c.seq.Add(1), time.Now().UTC(), marshalBatch(batch))
		if !c.hub.trySend(c, env) {
			log.Println("[gateway] client send buffer full, dropping batch")
		}
	}
}

// cancelSub cancels the client's current subscription, if any. The topic
// attachment is released before this returns control to the read loop.
func (c *Client) cancelSub() {
	c.subMu.Lock()
	sub := c.sub
	c.sub = nil
	c.subMu.Unlock()
	if sub != nil {
		sub.Cancel()
	}
}

func (c *Client) sendJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[gateway] json marshal error: %v", err)
		return
	}
	if !c.hub.trySend(c, data) {
		log.Println("[gateway] client send buffer full, dropping message")
	}
}

func (c *Client) sendError(reqID, errMsg string) {
	c.sendJSON(ErrorResponse{
		Type:  "ERROR",
		ReqID: reqID,
		Error: errMsg,
	})
}
