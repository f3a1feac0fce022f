package draw

import (
	"encoding/binary"
	"io"

	"github.com/zeebo/blake3"
)

// selectionContext is the input of the keyed BLAKE3 stream.
// Changing it changes every draw, so it is versioned.
const selectionContext = "trustedwinner/selection/v1"

// selectionStream is the deterministic generator behind SelectionAlgorithm.
//
// key    = BLAKE3-256(seed string)
// stream = BLAKE3 keyed hash XOF (key, selectionContext), read in order
//
// Every index is drawn from 8 big-endian stream bytes with rejection sampling,
// so the sequence depends only on the seed string and the call sequence.
type selectionStream struct {
	xof io.Reader
	buf [8]byte
}

// newSelectionStream derives the stream for a seed string.
func newSelectionStream(seed string) *selectionStream {
	key := blake3.Sum256([]byte(seed))

	h, err := blake3.NewKeyed(key[:])
	if err != nil {
		// only fails on a key that is not 32 bytes
		panic(err)
	}
	_, _ = h.Write([]byte(selectionContext))

	return &selectionStream{xof: h.Digest()}
}

// uint64 reads the next 8 bytes of the stream.
func (s *selectionStream) uint64() uint64 {
	// the XOF never runs dry
	if _, err := io.ReadFull(s.xof, s.buf[:]); err != nil {
		panic(err)
	}

	return binary.BigEndian.Uint64(s.buf[:])
}

// intn returns a uniformly distributed value in [0, n). n must be positive.
func (s *selectionStream) intn(n int) int {
	bound := uint64(n)

	// values below threshold would bias the low residues
	threshold := -bound % bound

	for {
		v := s.uint64()
		if v >= threshold {
			return int(v % bound)
		}
	}
}
