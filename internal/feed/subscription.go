package feed

import (
	"errors"
	"sync"

	"quotefeed/internal/model"
	"quotefeed/internal/store"
)

// ErrInvalidSubscription is returned when a subscribe request's identity set
// is empty or resolves to no known quotes.
var ErrInvalidSubscription = errors.New("invalid subscription request")

// Subscription narrows one raw Topic feed to a fixed identity set, resolved
// at subscribe time. It yields only non-empty intersections, preserving the
// relative order of the raw batch, and never delivers an empty batch: a tick
// that touches nothing in the set is silent for this subscriber.
//
// A Subscription is single-use, bound to one Topic attachment. Cancel (or the
// topic closing) detaches the raw feed and closes Updates.
type Subscription struct {
	ids      map[string]bool
	resolved []string

	topic  *Topic
	raw    *Feed
	out    chan model.Batch
	cancel chan struct{}
	once   sync.Once
}

// Subscribe resolves identifiers (raw IDs, or symbols in any case) against
// the store and attaches a filtered feed to the topic. Unknown identifiers
// are skipped; if nothing resolves the request fails fast with
// ErrInvalidSubscription before anything is attached.
func Subscribe(st *store.Store, topic *Topic, identifiers []string) (*Subscription, error) {
	ids := make(map[string]bool, len(identifiers))
	resolved := make([]string, 0, len(identifiers))
	for _, ident := range identifiers {
		id, err := st.ResolveID(ident)
		if err != nil {
			continue
		}
		if !ids[id] {
			ids[id] = true
			resolved = append(resolved, id)
		}
	}
	if len(ids) == 0 {
		return nil, ErrInvalidSubscription
	}

	s := &Subscription{
		ids:      ids,
		resolved: resolved,
		topic:    topic,
		raw:      topic.Attach(),
		out:      make(chan model.Batch),
		cancel:   make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Updates returns the filtered batch stream. The channel is closed after
// Cancel, or when the topic shuts down.
func (s *Subscription) Updates() <-chan model.Batch { return s.out }

// IDs returns the canonical quote IDs this subscription resolved to,
// in request order with duplicates removed.
func (s *Subscription) IDs() []string {
	out := make([]string, len(s.resolved))
	copy(out, s.resolved)
	return out
}

// Cancel stops the subscription. Safe to call more than once. The topic
// attachment is released promptly; no batch is delivered after Cancel
// returns observable effect (the Updates channel closes).
func (s *Subscription) Cancel() {
	s.once.Do(func() { close(s.cancel) })
}

func (s *Subscription) run() {
	defer func() {
		s.topic.Detach(s.raw)
		close(s.out)
	}()
	for {
		// Cancellation wins over a pending raw batch.
		select {
		case <-s.cancel:
			return
		default:
		}
		select {
		case <-s.cancel:
			return
		case batch, ok := <-s.raw.C():
			if !ok {
				return
			}
			filtered := batch.Filter(s.ids)
			if len(filtered) == 0 {
				continue
			}
			select {
			case s.out <- filtered:
			case <-s.cancel:
				return
			}
		}
	}
}
