// Package drawstore persists draws run by the service: a compact record per
// draw plus the compressed audit document it produced.
//
// Keys:
//
//	d/<id>          DrawRecord flatbuffer
//	a/<id>          zstd-compressed audit document
//	c/<blake3 hex>  id of the draw for a (contestId, title) pair
package drawstore

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"trustedwinner/internal/draw"
	"trustedwinner/internal/logger"
	"trustedwinner/internal/storage"
)

var (
	// ErrNotFound is returned when no draw has the requested id.
	ErrNotFound = errors.New("draw not found")

	// ErrDuplicateDraw is returned when a draw already exists for a (contestId, title) pair.
	ErrDuplicateDraw = errors.New("draw already exists for contest and title")

	// ErrCorruptRecord is returned when stored bytes cannot be decoded or fail their digest.
	ErrCorruptRecord = errors.New("corrupt draw record")
)

var (
	prefixRecord  = []byte("d/")
	prefixAudit   = []byte("a/")
	prefixContest = []byte("c/")
)

// Store persists draws on top of a storage.Storage.
// It is safe for concurrent use.
type Store struct {
	db    *storage.Storage // db holds records, audits and the contest index
	owned bool             // owned is true when Close must close db

	mu sync.Mutex // mu serializes the contest uniqueness check with the insert

	encoder *zstd.Encoder // encoder compresses audit documents
	decoder *zstd.Decoder // decoder decompresses audit documents

	now   func() time.Time // now stamps CreatedAt
	newID func() string    // newID allocates draw ids
}

// Open opens (or creates) a store in the given directory.
func Open(dir string, opts storage.Options) (*Store, error) {
	db, err := storage.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open storage:\n%w", err)
	}

	s, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	s.owned = true

	return s, nil
}

// New creates a store over an already opened storage. The caller keeps
// ownership of db.
func New(db *storage.Storage) (*Store, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create encoder:\n%w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("create decoder:\n%w", err)
	}

	return &Store{
		db:      db,
		encoder: encoder,
		decoder: decoder,
		now:     time.Now,
		newID:   uuid.NewString,
	}, nil
}

// Close releases the codecs and, when the store opened it, the storage.
func (s *Store) Close() error {
	s.decoder.Close()

	if err := s.encoder.Close(); err != nil {
		return fmt.Errorf("close encoder:\n%w", err)
	}

	if s.owned {
		return s.db.Close()
	}

	return nil
}

// Exists reports whether a draw was already stored for contestID and title.
func (s *Store) Exists(contestID, title string) (bool, error) {
	return s.db.Has(contestKey(contestID, title))
}

// Create stores a draw from its audit document bytes. The document is parsed
// to fill the record; the bytes are kept as they are so the stored audit is
// exactly what the caller produced. The write is durable when Create returns.
func (s *Store) Create(contestID, title string, audit []byte) (*Record, error) {
	doc, err := draw.ParseDocument(audit)
	if err != nil {
		return nil, fmt.Errorf("parse audit document:\n%w", err)
	}

	digest := blake3.Sum256(audit)

	s.mu.Lock()
	defer s.mu.Unlock()

	index := contestKey(contestID, title)

	exists, err := s.db.Has(index)
	if err != nil {
		return nil, fmt.Errorf("check contest index:\n%w", err)
	}
	if exists {
		return nil, fmt.Errorf("contest %q title %q:\n%w", contestID, title, ErrDuplicateDraw)
	}

	record := &Record{
		ID:        s.newID(),
		ContestID: contestID,
		Title:     title,
		Seed:      doc.Seed,
		Results:   doc.Results,
		Digest:    hex.EncodeToString(digest[:]),
		CreatedAt: s.now().UnixMilli(),
	}

	pairs := []storage.KeyValue{
		{Key: recordKey(record.ID), Value: encodeRecord(record, digest[:])},
		{Key: auditKey(record.ID), Value: s.encoder.EncodeAll(audit, nil)},
		{Key: index, Value: []byte(record.ID)},
	}

	if err := s.db.CommitSync(pairs); err != nil {
		return nil, fmt.Errorf("write draw %s:\n%w", record.ID, err)
	}

	logger.Info("draw stored",
		"id", record.ID,
		"contest", contestID,
		"title", title,
		"winners", len(record.Results),
	)

	return record, nil
}

// Get returns the record of a draw.
func (s *Store) Get(id string) (*Record, error) {
	data, err := s.db.Get(recordKey(id))
	if err != nil {
		return nil, fmt.Errorf("read draw %s:\n%w", id, err)
	}
	if data == nil {
		return nil, fmt.Errorf("draw %s:\n%w", id, ErrNotFound)
	}

	record, _, err := decodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("draw %s:\n%w", id, err)
	}

	return record, nil
}

// Audit returns the audit document bytes of a draw, checked against the
// digest stored in its record.
func (s *Store) Audit(id string) ([]byte, error) {
	data, err := s.db.Get(recordKey(id))
	if err != nil {
		return nil, fmt.Errorf("read draw %s:\n%w", id, err)
	}
	if data == nil {
		return nil, fmt.Errorf("draw %s:\n%w", id, ErrNotFound)
	}

	_, digest, err := decodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("draw %s:\n%w", id, err)
	}

	compressed, err := s.db.Get(auditKey(id))
	if err != nil {
		return nil, fmt.Errorf("read audit %s:\n%w", id, err)
	}
	if compressed == nil {
		return nil, fmt.Errorf("audit %s missing:\n%w", id, ErrCorruptRecord)
	}

	audit, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress audit %s: %v:\n%w", id, err, ErrCorruptRecord)
	}

	sum := blake3.Sum256(audit)
	if !bytes.Equal(sum[:], digest) {
		return nil, fmt.Errorf("audit %s digest mismatch:\n%w", id, ErrCorruptRecord)
	}

	return audit, nil
}

// FindByContest returns the draw stored for contestID and title.
func (s *Store) FindByContest(contestID, title string) (*Record, error) {
	id, err := s.db.Get(contestKey(contestID, title))
	if err != nil {
		return nil, fmt.Errorf("read contest index:\n%w", err)
	}
	if id == nil {
		return nil, fmt.Errorf("contest %q title %q:\n%w", contestID, title, ErrNotFound)
	}

	return s.Get(string(id))
}

// List returns every stored record, oldest first.
func (s *Store) List() ([]*Record, error) {
	var records []*Record

	err := s.db.IteratePrefix(prefixRecord, func(key, value []byte) error {
		record, _, err := decodeRecord(value)
		if err != nil {
			return fmt.Errorf("draw %s:\n%w", key[len(prefixRecord):], err)
		}

		records = append(records, record)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate draws:\n%w", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CreatedAt != records[j].CreatedAt {
			return records[i].CreatedAt < records[j].CreatedAt
		}
		return records[i].ID < records[j].ID
	})

	return records, nil
}

func recordKey(id string) []byte {
	return append(append([]byte(nil), prefixRecord...), id...)
}

func auditKey(id string) []byte {
	return append(append([]byte(nil), prefixAudit...), id...)
}

// contestKey hashes the length-prefixed contest id followed by the title.
func contestKey(contestID, title string) []byte {
	var size [8]byte
	binary.BigEndian.PutUint64(size[:], uint64(len(contestID)))

	h := blake3.New()
	h.Write(size[:])
	h.Write([]byte(contestID))
	h.Write([]byte(title))

	sum := h.Sum(nil)

	return append(append([]byte(nil), prefixContest...), hex.EncodeToString(sum)...)
}
