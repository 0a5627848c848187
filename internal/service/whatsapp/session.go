package whatsapp

import "sync"

// deliveryTracker remembers recently handled message ids. Meta redelivers a
// webhook until it is acknowledged, so the same message can arrive twice.
type deliveryTracker struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
	limit int
}

func newDeliveryTracker(limit int) *deliveryTracker {
	return &deliveryTracker{
		seen:  make(map[string]struct{}, limit),
		limit: limit,
	}
}

// markNew records id and reports whether it was not seen before. Empty ids
// are always new.
func (t *deliveryTracker) markNew(id string) bool {
	if id == "" {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[id]; ok {
		return false
	}
	t.seen[id] = struct{}{}
	t.order = append(t.order, id)
	if len(t.order) > t.limit {
		delete(t.seen, t.order[0])
		t.order = t.order[1:]
	}
	return true
}
