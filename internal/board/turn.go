package board

// TurnOrder is the fixed rotation of player ids. Exactly one index holds the turn.
type TurnOrder struct {
	ids []string
	idx int
}

// NewTurnOrder creates a rotation with no holder yet; the first Advance picks one.
func NewTurnOrder(ids []string) *TurnOrder {
	out := make([]string, len(ids))
	copy(out, ids)
	return &TurnOrder{ids: out, idx: -1}
}

// Current returns the turn holder, or "" before the first Advance.
func (t *TurnOrder) Current() string {
	if t.idx < 0 || t.idx >= len(t.ids) {
		return ""
	}
	return t.ids[t.idx]
}

// IDs returns a copy of the rotation.
func (t *TurnOrder) IDs() []string {
	out := make([]string, len(t.ids))
	copy(out, t.ids)
	return out
}

// Len is the number of players in the rotation.
func (t *TurnOrder) Len() int {
	return len(t.ids)
}

// Append adds a late joiner at the end of the rotation.
func (t *TurnOrder) Append(id string) {
	for _, existing := range t.ids {
		if existing == id {
			return
		}
	}
	t.ids = append(t.ids, id)
}

// Remove drops id and reports whether it held the turn. When it did, the
// pointer rests on the previous slot so the next Advance lands on its successor.
func (t *TurnOrder) Remove(id string) bool {
	for i, existing := range t.ids {
		if existing != id {
			continue
		}
		t.ids = append(t.ids[:i], t.ids[i+1:]...)
		wasCurrent := i == t.idx
		if i <= t.idx {
			t.idx--
		}
		return wasCurrent
	}
	return false
}

// Advance moves the pointer to the next eligible player. connected filters out
// unavailable players; skip is called for each connected candidate and, when it
// returns true, consumes that player's skip flag and passes over them once.
// It returns how many times the pointer wrapped past the first player and
// whether a holder was found.
func (t *TurnOrder) Advance(connected func(id string) bool, skip func(id string) bool) (int, bool) {
	n := len(t.ids)
	if n == 0 {
		return 0, false
	}
	wraps := 0
	i := t.idx
	// Two passes are enough: the first consumes every pending skip flag.
	for step := 0; step < 2*n; step++ {
		i++
		if i >= n {
			i = 0
			wraps++
		}
		id := t.ids[i]
		if !connected(id) {
			continue
		}
		if skip(id) {
			continue
		}
		t.idx = i
		return wraps, true
	}
	return wraps, false
}
