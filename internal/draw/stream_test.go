package draw

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// The values below are published behavior: audit documents already issued
// replay only while they hold.

func TestSelectionStreamKnownBytes(t *testing.T) {
	s := newSelectionStream("trustedwinner")

	buf := make([]byte, 32)
	_, err := io.ReadFull(s.xof, buf)
	require.NoError(t, err)

	require.Equal(t, "b8979532be7792d8f98937d9c2e5e2e1574d6ea47102e850a0a7aeee6bbb27b6", hex.EncodeToString(buf))
}

func TestSelectionStreamKnownValues(t *testing.T) {
	s := newSelectionStream("trustedwinner")

	require.Equal(t, uint64(0xb8979532be7792d8), s.uint64())
	require.Equal(t, 7, s.intn(10))
	require.Equal(t, 4, s.intn(7))
	require.Equal(t, 294, s.intn(1000))
	require.Equal(t, 1, s.intn(3))
	require.Equal(t, 1035755053512, s.intn(1<<40))
}

func TestRunKnownResults(t *testing.T) {
	entries := make([]string, 20)
	for i := range entries {
		entries[i] = fmt.Sprintf("entry-%02d", i)
	}
	cfg := Configuration{Winners: 3, SubstitutesPerWinner: 2}
	random := strings.Repeat("0123456789ABCDEF", 4)

	tests := []struct {
		name    string
		entropy string
		want    [][]string
	}{
		{
			name:    "with entropy",
			entropy: "x",
			want: [][]string{
				{"entry-09", "entry-18", "entry-17"},
				{"entry-16", "entry-03", "entry-04"},
				{"entry-05", "entry-11", "entry-06"},
			},
		},
		{
			name:    "without entropy",
			entropy: "",
			want: [][]string{
				{"entry-16", "entry-10", "entry-00"},
				{"entry-01", "entry-05", "entry-06"},
				{"entry-18", "entry-04", "entry-19"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := Run(cfg, entries, NewSeed(fixedTime, random, tt.entropy))
			require.NoError(t, err)
			require.Equal(t, tt.want, results)
		})
	}
}
