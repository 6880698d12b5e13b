package model

// Batch is one tick's worth of fully-updated quote snapshots, published
// atomically as a unit. A batch is never empty: a tick that changes nothing
// publishes nothing. Every quote inside reflects post-mutation state in full,
// so a batch can stand alone as a snapshot for consumer-side merging by ID.
type Batch []Quote

// IDs returns the quote IDs in batch order.
func (b Batch) IDs() []string {
	ids := make([]string, len(b))
	for i := range b {
		ids[i] = b[i].ID
	}
	return ids
}

// Filter returns a new batch containing only quotes whose ID is in keep,
// preserving relative order. Returns nil if nothing intersects.
func (b Batch) Filter(keep map[string]bool) Batch {
	var out Batch
	for _, q := range b {
		if keep[q.ID] {
			out = append(out, q)
		}
	}
	return out
}
