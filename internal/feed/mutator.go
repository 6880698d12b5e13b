package feed

import (
	"context"
	"log"
	"math"
	"math/rand"
	"time"

	"quotefeed/internal/model"
	"quotefeed/internal/store"
)

// DefaultInterval is the reference mutation cadence.
const DefaultInterval = 2000 * time.Millisecond

// Mutator perturbs a random subset of quotes on a fixed interval and
// publishes the changed set to the Topic as one batch. It is the only writer
// to the store.
type Mutator struct {
	store    *store.Store
	topic    *Topic
	interval time.Duration
	rng      *rand.Rand

	// OnPublish is called with each published batch (metrics hook).
	OnPublish func(model.Batch)
}

// NewMutator creates a Mutator over the given store and topic.
// interval <= 0 falls back to DefaultInterval. The store must be non-empty:
// an empty ID universe would make every tick unable to produce a batch.
func NewMutator(st *store.Store, topic *Topic, interval time.Duration) *Mutator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if st.Len() == 0 {
		log.Fatalf("[mutator] quote universe is empty")
	}
	return &Mutator{
		store:    st,
		topic:    topic,
		interval: interval,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetSeed replaces the RNG with a deterministic one. Test hook.
func (m *Mutator) SetSeed(seed int64) {
	m.rng = rand.New(rand.NewSource(seed))
}

// Run ticks until ctx is cancelled.
func (m *Mutator) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	log.Printf("[mutator] running, interval=%s universe=%d", m.interval, m.store.Len())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Tick()
		}
	}
}

// Tick performs one mutation round: choose 1 or 2 quote IDs (uniform
// cardinality, then a uniform subset without replacement), perturb each,
// and publish the updated quotes as a single batch in selection order.
// Returns the published batch.
func (m *Mutator) Tick() model.Batch {
	ids := m.store.IDs()

	n := 1 + m.rng.Intn(2)
	if n > len(ids) {
		n = len(ids)
	}
	perm := m.rng.Perm(len(ids))

	batch := make(model.Batch, 0, n)
	for _, idx := range perm[:n] {
		id := ids[idx]
		cur, err := m.store.Get(id)
		if err != nil {
			// The store defines the ID universe; this cannot happen unless
			// an invariant broke elsewhere.
			log.Fatalf("[mutator] lost quote %q: %v", id, err)
		}

		fluctuation := m.rng.Float64()*0.04 - 0.02
		delta := m.rng.Float64()*0.5 - 0.25
		price := round2(cur.Price * (1 + fluctuation))
		changePct := round2(cur.ChangePercent + delta)

		updated, err := m.store.ApplyMutation(id, price, changePct)
		if err != nil {
			log.Fatalf("[mutator] apply mutation for %q: %v", id, err)
		}
		batch = append(batch, updated)
	}

	m.topic.Publish(batch)
	if m.OnPublish != nil {
		m.OnPublish(batch)
	}
	return batch
}

// round2 rounds to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
