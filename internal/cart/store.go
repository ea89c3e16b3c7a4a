package cart

import "sync"

// Line is one cart entry. Item fields are copied at add time so a later
// catalog change never rewrites a cart the user already built.
type Line struct {
	ItemID         int64  `json:"item_id"`
	Title          string `json:"title"`
	ImageURL       string `json:"image_url"`
	UnitPriceCents int    `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
}

// Snapshot is the cart contents plus the derived aggregates. Aggregates are
// recomputed inside the same critical section as every mutation, so a
// snapshot can never disagree with its own lines.
type Snapshot struct {
	Lines           []Line `json:"lines"`
	TotalCount      int    `json:"total_count"`
	TotalPriceCents int    `json:"total_price_cents"`
}

// Store holds per-session carts in memory for the lifetime of the process.
type Store struct {
	mu    sync.Mutex
	carts map[string][]Line
}

// NewStore builds an empty cart store.
func NewStore() *Store {
	return &Store{carts: map[string][]Line{}}
}

// Snapshot returns the current cart for the session. An unknown session is an
// empty cart, not an error.
func (s *Store) Snapshot(sessionID string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotLines(s.carts[sessionID])
}

// Increment bumps an existing line's quantity by one inside a single
// critical section. Reports false when the item is not in the cart; nothing
// is inserted in that case, so callers can fetch the item's fields and
// insert a complete line instead.
func (s *Store) Increment(sessionID string, itemID int64) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[sessionID]
	for i := range lines {
		if lines[i].ItemID == itemID {
			lines[i].Quantity++
			return snapshotLines(lines), true
		}
	}
	return snapshotLines(lines), false
}

// Upsert inserts a new line or increments the quantity of an existing one,
// matching by item identifier. The template line's fields are used only when
// the item is not already in the cart.
func (s *Store) Upsert(sessionID string, line Line) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[sessionID]
	for i := range lines {
		if lines[i].ItemID == line.ItemID {
			lines[i].Quantity += line.Quantity
			return snapshotLines(lines)
		}
	}
	lines = append(lines, line)
	s.carts[sessionID] = lines
	return snapshotLines(lines)
}

// Remove deletes the matching line. Item identifier zero clears the whole
// cart. Removing an absent line is a no-op.
func (s *Store) Remove(sessionID string, itemID int64) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if itemID == 0 {
		delete(s.carts, sessionID)
		return snapshotLines(nil)
	}

	lines := s.carts[sessionID]
	for i := range lines {
		if lines[i].ItemID == itemID {
			lines = append(lines[:i], lines[i+1:]...)
			break
		}
	}
	s.carts[sessionID] = lines
	return snapshotLines(lines)
}

// SetQuantity overwrites a line's quantity. A quantity of zero or less
// deletes the line. Returns false when no line matches the identifier.
func (s *Store) SetQuantity(sessionID string, itemID int64, quantity int) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[sessionID]
	for i := range lines {
		if lines[i].ItemID != itemID {
			continue
		}
		if quantity <= 0 {
			lines = append(lines[:i], lines[i+1:]...)
		} else {
			lines[i].Quantity = quantity
		}
		s.carts[sessionID] = lines
		return snapshotLines(lines), true
	}
	return snapshotLines(lines), false
}

// Clear drops the session's cart entirely.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
}

func snapshotLines(lines []Line) Snapshot {
	snap := Snapshot{Lines: make([]Line, len(lines))}
	copy(snap.Lines, lines)
	for _, line := range lines {
		snap.TotalCount += line.Quantity
		snap.TotalPriceCents += line.UnitPriceCents * line.Quantity
	}
	return snap
}
