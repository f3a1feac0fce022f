package draw

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSelectionDeterministic(t *testing.T) {
	entries := []string{"a", "b", "c", "d", "e", "f", "g"}
	seed := NewSeed(fixedTime, "0123456789ABCDEF", "").String()

	first := NewSelectionAlgorithm(seed, entries)
	second := NewSelectionAlgorithm(seed, entries)

	for range 3 {
		a, err := first.SelectWinnerWithSubstitutes(1)
		require.NoError(t, err)

		b, err := second.SelectWinnerWithSubstitutes(1)
		require.NoError(t, err)

		require.Equal(t, a, b)
	}
}

func TestSelectionDependsOnSeed(t *testing.T) {
	entries := make([]string, 50)
	for i := range entries {
		entries[i] = fmt.Sprintf("entry-%02d", i)
	}

	a, err := NewSelectionAlgorithm("seed-a", entries).SelectWinnerWithSubstitutes(9)
	require.NoError(t, err)

	b, err := NewSelectionAlgorithm("seed-b", entries).SelectWinnerWithSubstitutes(9)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}

func TestSelectionExcludesAcrossCalls(t *testing.T) {
	entries := []string{"a", "b", "c", "d"}
	algorithm := NewSelectionAlgorithm("seed", entries)

	seen := map[string]bool{}
	for range 2 {
		group, err := algorithm.SelectWinnerWithSubstitutes(1)
		require.NoError(t, err)
		require.Len(t, group, 2)

		for _, e := range group {
			require.False(t, seen[e], "entry %q selected twice", e)
			seen[e] = true
		}
	}

	require.Len(t, seen, 4)

	_, err := algorithm.SelectWinnerWithSubstitutes(0)
	require.ErrorIs(t, err, ErrEntriesExhausted)
}

func TestSelectionExhaustionPicksNothing(t *testing.T) {
	algorithm := NewSelectionAlgorithm("seed", []string{"a", "b", "c"})

	_, err := algorithm.SelectWinnerWithSubstitutes(3)
	require.ErrorIs(t, err, ErrEntriesExhausted)

	// nothing was consumed by the failed call
	group, err := algorithm.SelectWinnerWithSubstitutes(2)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b", "c"}, group)
}

func TestSelectionDistribution(t *testing.T) {
	const trials = 2000

	entries := []string{"e1", "e2"}
	wins := 0

	for i := range trials {
		seed := NewSeed(fixedTime, fmt.Sprintf("%064X", i), "").String()

		group, err := NewSelectionAlgorithm(seed, entries).SelectWinnerWithSubstitutes(0)
		require.NoError(t, err)

		if group[0] == "e1" {
			wins++
		}
	}

	ratio := float64(wins) / trials
	require.GreaterOrEqual(t, ratio, 0.45)
	require.LessOrEqual(t, ratio, 0.55)
}

func TestStreamIntnRange(t *testing.T) {
	s := newSelectionStream("range")

	for n := 1; n <= 64; n++ {
		for range 50 {
			v := s.intn(n)
			require.GreaterOrEqual(t, v, 0)
			require.Less(t, v, n)
		}
	}

	require.Equal(t, 0, s.intn(1))
}

func TestSelectionProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		entries := rapid.SliceOfNDistinct(rapid.StringN(1, 8, -1), 1, 30, rapid.ID[string]).Draw(t, "entries")
		substitutes := rapid.IntRange(0, 3).Draw(t, "substitutes")
		seed := rapid.String().Draw(t, "seed")

		algorithm := NewSelectionAlgorithm(seed, entries)
		replay := NewSelectionAlgorithm(seed, entries)

		valid := map[string]bool{}
		for _, e := range entries {
			valid[e] = true
		}

		seen := map[string]bool{}
		for picked := 0; ; {
			group, err := algorithm.SelectWinnerWithSubstitutes(uint32(substitutes))
			again, replayErr := replay.SelectWinnerWithSubstitutes(uint32(substitutes))

			if picked+substitutes+1 > len(entries) {
				if err == nil || replayErr == nil {
					t.Fatalf("expected exhaustion after %d picks of %d", picked, len(entries))
				}
				return
			}
			if err != nil || replayErr != nil {
				t.Fatalf("unexpected error: %v / %v", err, replayErr)
			}

			for i, e := range group {
				if again[i] != e {
					t.Fatalf("replay diverged at %d: %q vs %q", i, e, again[i])
				}
				if !valid[e] || seen[e] {
					t.Fatalf("invalid or repeated entry %q", e)
				}
				seen[e] = true
			}
			picked += len(group)
		}
	})
}
