package draw

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"
)

// randomPartSize is the number of random bytes in a seed (256 bits).
const randomPartSize = 32

// SeedGenerator produces fresh seeds for live draws.
type SeedGenerator struct {
	now    func() time.Time // now is the wall clock
	random io.Reader        // random is a cryptographically secure source
}

// NewSeedGenerator creates a generator with the given clock and random source.
// Nil arguments fall back to time.Now and crypto/rand.
func NewSeedGenerator(now func() time.Time, random io.Reader) *SeedGenerator {
	if now == nil {
		now = time.Now
	}
	if random == nil {
		random = rand.Reader
	}

	return &SeedGenerator{now: now, random: random}
}

// Generate returns a seed stamped with the current UTC time and 32 random bytes.
// It panics if the random source fails: a draw must never run on a weak seed.
func (g *SeedGenerator) Generate(additionalEntropy string) Seed {
	buf := make([]byte, randomPartSize)
	if _, err := io.ReadFull(g.random, buf); err != nil {
		panic(fmt.Sprintf("seed random source failed: %v", err))
	}

	ts := g.now().UTC().Truncate(timestampResolution)

	return NewSeed(ts, strings.ToUpper(hex.EncodeToString(buf)), additionalEntropy)
}

// defaultGenerator backs GenerateSeed.
var defaultGenerator = NewSeedGenerator(nil, nil)

// GenerateSeed returns a fresh seed from the system clock and crypto/rand.
func GenerateSeed(additionalEntropy string) Seed {
	return defaultGenerator.Generate(additionalEntropy)
}
