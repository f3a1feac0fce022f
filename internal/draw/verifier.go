package draw

import (
	"errors"
	"fmt"

	"trustedwinner/internal/logger"
	"trustedwinner/internal/signing"
)

// IsAuthentic parses an audit document, replays the draw from its recorded
// seed and entries, and checks the signature when one is present.
//
// An error is returned only when the document cannot be parsed or its entries
// cannot form a draw. A document that parses but does not replay, or whose
// signature does not verify, yields false with a nil error.
func IsAuthentic(data []byte) (bool, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return false, err
	}

	return VerifyDocument(doc)
}

// VerifyDocument is IsAuthentic for an already parsed document.
func VerifyDocument(doc *Document) (bool, error) {
	replay, err := NewExecutor(doc.Configuration, doc.Entries, nil)
	if err != nil {
		return false, fmt.Errorf("rebuild draw:\n%w", err)
	}

	results, err := replay.Simulate(doc.Seed)
	if err != nil {
		if errors.Is(err, ErrEntriesExhausted) || errors.Is(err, ErrNoWinners) {
			logger.Debug("replay failed", "error", err)
			return false, nil
		}
		return false, fmt.Errorf("replay draw:\n%w", err)
	}

	if !sameResults(results, doc.Results) {
		logger.Debug("replayed results differ from document", "version", doc.Version)
		return false, nil
	}

	if !doc.Signed() {
		return true, nil
	}

	return signing.Verify(doc.Results, doc.Signature, doc.Certificate), nil
}

// DocumentVersion returns the producer version declared by an audit document.
func DocumentVersion(data []byte) (string, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return "", err
	}

	return doc.Version, nil
}

// sameResults compares groups count, group lengths and every position.
func sameResults(replayed, recorded [][]string) bool {
	if len(replayed) != len(recorded) {
		return false
	}

	for i := range replayed {
		if len(replayed[i]) != len(recorded[i]) {
			return false
		}
		for j := range replayed[i] {
			if replayed[i][j] != recorded[i][j] {
				return false
			}
		}
	}

	return true
}
