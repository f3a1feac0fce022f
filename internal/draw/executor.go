package draw

import (
	"encoding/json"
	"fmt"
	"sync/atomic"

	"trustedwinner/internal/logger"
	"trustedwinner/internal/signing"
)

// Configuration is the shape of a draw.
type Configuration struct {
	Winners              uint32 `json:"winners"`
	SubstitutesPerWinner uint32 `json:"substitutesPerWinner"`
}

// Picks returns the total number of entries the configuration consumes.
func (c Configuration) Picks() uint64 {
	return uint64(c.Winners) * (uint64(c.SubstitutesPerWinner) + 1)
}

// Run computes the results of a draw. It is pure: the same configuration,
// entries and seed always produce the same results. Entries must already be valid.
// A single algorithm instance serves every winner slot, so no entry appears twice.
func Run(cfg Configuration, entries []string, seed Seed) ([][]string, error) {
	if cfg.Winners == 0 {
		return nil, ErrNoWinners
	}
	if picks := cfg.Picks(); picks > uint64(len(entries)) {
		return nil, fmt.Errorf("%d picks requested from %d entries:\n%w", picks, len(entries), ErrEntriesExhausted)
	}

	algorithm := NewSelectionAlgorithm(seed.String(), entries)

	results := make([][]string, cfg.Winners)
	for i := range results {
		group, err := algorithm.SelectWinnerWithSubstitutes(cfg.SubstitutesPerWinner)
		if err != nil {
			return nil, fmt.Errorf("select winner %d:\n%w", i+1, err)
		}
		results[i] = group
	}

	return results, nil
}

// outcome is the state stored once a draw has run.
type outcome struct {
	seed    Seed
	results [][]string
}

// Executor runs exactly one draw over a fixed configuration and entry list.
// It moves from created to executed once; a second Execute or Simulate fails,
// including when two goroutines race for the first one.
type Executor struct {
	cfg     Configuration // cfg is the draw configuration
	entries []string      // entries is a private copy of the candidates
	key     *signing.Key  // key signs audit documents; nil for unsigned draws
	seeds   *SeedGenerator

	started atomic.Bool              // started is set by the first Execute/Simulate
	done    atomic.Pointer[outcome] // done is set when a run succeeds
}

// NewExecutor validates the entries and the optional signing key.
// Entries must be non-empty and unique (exact, case-sensitive match).
func NewExecutor(cfg Configuration, entries []string, key *signing.Key) (*Executor, error) {
	if err := ValidateEntries(entries); err != nil {
		return nil, err
	}

	if key != nil {
		if err := key.CanSign(); err != nil {
			return nil, fmt.Errorf("signing key:\n%w", err)
		}
	}

	return &Executor{
		cfg:     cfg,
		entries: append([]string(nil), entries...),
		key:     key,
		seeds:   defaultGenerator,
	}, nil
}

// ValidateEntries checks that entries are non-empty and contain no duplicates.
func ValidateEntries(entries []string) error {
	if len(entries) == 0 {
		return ErrEmptyEntries
	}

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e]; dup {
			return fmt.Errorf("entry %q:\n%w", e, ErrDuplicateEntry)
		}
		seen[e] = struct{}{}
	}

	return nil
}

// WithSeedGenerator replaces the generator used by Execute. It must be called
// before the draw runs.
func (e *Executor) WithSeedGenerator(g *SeedGenerator) *Executor {
	e.seeds = g
	return e
}

// Execute runs the draw on a freshly generated seed mixed with additionalEntropy.
func (e *Executor) Execute(additionalEntropy string) ([][]string, error) {
	if !e.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyExecuted
	}

	return e.run(e.seeds.Generate(additionalEntropy))
}

// Simulate runs the draw on a caller supplied seed, for replay and verification.
func (e *Executor) Simulate(seed Seed) ([][]string, error) {
	if !e.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyExecuted
	}

	return e.run(seed)
}

// run computes and stores the outcome.
func (e *Executor) run(seed Seed) ([][]string, error) {
	results, err := Run(e.cfg, e.entries, seed)
	if err != nil {
		return nil, err
	}

	e.done.Store(&outcome{seed: seed, results: results})

	logger.Debug("draw executed",
		"winners", e.cfg.Winners,
		"substitutes", e.cfg.SubstitutesPerWinner,
		"entries", len(e.entries),
		"signed", e.key != nil,
	)

	return copyResults(results), nil
}

// Results returns the results of the executed draw.
func (e *Executor) Results() ([][]string, error) {
	o := e.done.Load()
	if o == nil {
		return nil, ErrNotExecuted
	}

	return copyResults(o.results), nil
}

// Seed returns the seed the draw ran on.
func (e *Executor) Seed() (Seed, error) {
	o := e.done.Load()
	if o == nil {
		return Seed{}, ErrNotExecuted
	}

	return o.seed, nil
}

// AuditDocument assembles the self-describing record of the draw.
// When the executor holds a signing key the results are signed and the
// certificate is embedded.
func (e *Executor) AuditDocument() (*Document, error) {
	o := e.done.Load()
	if o == nil {
		return nil, ErrNotExecuted
	}

	doc := &Document{
		Version:       Version,
		Configuration: e.cfg,
		Entries:       append([]string(nil), e.entries...),
		Seed:          o.seed,
		Results:       copyResults(o.results),
	}

	if e.key != nil {
		sig, err := signing.Sign(o.results, e.key)
		if err != nil {
			return nil, fmt.Errorf("sign results:\n%w", err)
		}

		doc.Certificate = e.key.CertificatePEM()
		doc.Signature = sig
	}

	return doc, nil
}

// AuditJSON returns the audit document as indented JSON.
func (e *Executor) AuditJSON() ([]byte, error) {
	doc, err := e.AuditDocument()
	if err != nil {
		return nil, err
	}

	return doc.MarshalIndent()
}

// copyResults deep-copies results so callers cannot alter stored state.
func copyResults(results [][]string) [][]string {
	out := make([][]string, len(results))
	for i, group := range results {
		out[i] = append([]string(nil), group...)
	}

	return out
}

// marshalIndent is shared by the document encoders.
func marshalIndent(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
