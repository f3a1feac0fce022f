package draw

import "fmt"

// SelectionAlgorithm picks winners and substitutes deterministically from a seed.
// Entries chosen by one instance are never chosen again by it, across calls.
type SelectionAlgorithm struct {
	stream   *selectionStream    // stream is the seeded generator
	entries  []string            // entries are the candidates in original order
	selected map[string]struct{} // selected holds entries already picked
}

// NewSelectionAlgorithm creates an algorithm seeded by the canonical seed string.
func NewSelectionAlgorithm(seed string, entries []string) *SelectionAlgorithm {
	return &SelectionAlgorithm{
		stream:   newSelectionStream(seed),
		entries:  entries,
		selected: make(map[string]struct{}, len(entries)),
	}
}

// SelectWinnerWithSubstitutes returns substitutes+1 entries: the winner first,
// then the substitutes in draw order.
// It fails with ErrEntriesExhausted, without picking anything, when fewer than
// substitutes+1 entries remain.
func (a *SelectionAlgorithm) SelectWinnerWithSubstitutes(substitutes uint32) ([]string, error) {
	need := uint64(substitutes) + 1
	if remaining := uint64(len(a.entries) - len(a.selected)); need > remaining {
		return nil, fmt.Errorf("need %d entries, %d remaining:\n%w", need, remaining, ErrEntriesExhausted)
	}

	group := make([]string, 0, need)
	for range need {
		next, err := a.selectNext()
		if err != nil {
			return nil, err
		}
		group = append(group, next)
	}

	return group, nil
}

// selectNext picks one entry among those not yet selected, in original order.
func (a *SelectionAlgorithm) selectNext() (string, error) {
	available := make([]string, 0, len(a.entries)-len(a.selected))
	for _, e := range a.entries {
		if _, taken := a.selected[e]; !taken {
			available = append(available, e)
		}
	}

	if len(available) == 0 {
		return "", ErrEntriesExhausted
	}

	picked := available[a.stream.intn(len(available))]
	a.selected[picked] = struct{}{}

	return picked, nil
}
