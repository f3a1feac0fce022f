package drawstore

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"trustedwinner/internal/draw"
	"trustedwinner/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "draws"), storage.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

// auditFor runs a small unsigned draw and returns its audit document.
func auditFor(t *testing.T, entropy string) []byte {
	t.Helper()

	exec, err := draw.NewExecutor(draw.Configuration{Winners: 2, SubstitutesPerWinner: 1}, []string{"ann", "bob", "cy", "dee", "eve"}, nil)
	require.NoError(t, err)

	_, err = exec.Execute(entropy)
	require.NoError(t, err)

	data, err := exec.AuditJSON()
	require.NoError(t, err)

	return data
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	s.now = func() time.Time { return time.UnixMilli(1741262359123) }

	audit := auditFor(t, "contest-1")
	doc, err := draw.ParseDocument(audit)
	require.NoError(t, err)

	created, err := s.Create("contest-1", "main prize", audit)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Len(t, created.Digest, 64)
	require.Equal(t, int64(1741262359123), created.CreatedAt)

	got, err := s.Get(created.ID)
	require.NoError(t, err)

	if diff := cmp.Diff(created, got, cmp.Comparer(func(a, b draw.Seed) bool { return a.String() == b.String() })); diff != "" {
		t.Fatalf("stored record mismatch (-created +got):\n%s", diff)
	}

	require.Equal(t, doc.Seed.String(), got.Seed.String())
	require.Equal(t, doc.Results, got.Results)
}

func TestAuditRoundTrip(t *testing.T) {
	s := newTestStore(t)

	audit := auditFor(t, "")
	created, err := s.Create("c", "t", audit)
	require.NoError(t, err)

	stored, err := s.Audit(created.ID)
	require.NoError(t, err)
	require.Equal(t, audit, stored)

	ok, err := draw.IsAuthentic(stored)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCreateDuplicate(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Create("contest", "title", auditFor(t, ""))
	require.NoError(t, err)

	_, err = s.Create("contest", "title", auditFor(t, ""))
	require.ErrorIs(t, err, ErrDuplicateDraw)

	// same title in another contest is fine
	_, err = s.Create("other", "title", auditFor(t, ""))
	require.NoError(t, err)

	exists, err := s.Exists("contest", "title")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = s.Exists("contest", "unknown")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestContestKeyLengthPrefixed(t *testing.T) {
	require.NotEqual(t, contestKey("a\x00", "b"), contestKey("a", "\x00b"))
	require.NotEqual(t, contestKey("ab", "c"), contestKey("a", "bc"))
	require.Equal(t, contestKey("a", "b"), contestKey("a", "b"))
}

func TestCreateConcurrentDuplicates(t *testing.T) {
	s := newTestStore(t)
	audit := auditFor(t, "")

	const workers = 8

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if _, err := s.Create("race", "title", audit); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	require.Equal(t, 1, created)
}

func TestCreateRejectsMalformedAudit(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Create("c", "t", []byte(`{"version":"1.0.0"}`))
	require.ErrorIs(t, err, draw.ErrMalformedDocument)

	exists, err := s.Exists("c", "t")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get("missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.Audit("missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.FindByContest("c", "t")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFindByContest(t *testing.T) {
	s := newTestStore(t)

	created, err := s.Create("c", "t", auditFor(t, ""))
	require.NoError(t, err)

	found, err := s.FindByContest("c", "t")
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)
}

func TestListOrdersByCreation(t *testing.T) {
	s := newTestStore(t)

	clock := int64(1000)
	s.now = func() time.Time {
		clock -= 10
		return time.UnixMilli(clock)
	}

	var ids []string
	for i := range 3 {
		r, err := s.Create("c", fmt.Sprintf("draw-%d", i), auditFor(t, ""))
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	records, err := s.List()
	require.NoError(t, err)
	require.Len(t, records, 3)

	// the fake clock runs backwards, so the last draw is the oldest
	require.Equal(t, ids[2], records[0].ID)
	require.Equal(t, ids[0], records[2].ID)
}

func TestAuditDetectsCorruption(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "db"), storage.Options{})
	require.NoError(t, err)
	defer db.Close()

	s, err := New(db)
	require.NoError(t, err)
	defer s.Close()

	created, err := s.Create("c", "t", auditFor(t, ""))
	require.NoError(t, err)

	other := s.encoder.EncodeAll([]byte(`{"tampered":true}`), nil)
	require.NoError(t, db.CommitSync([]storage.KeyValue{{Key: auditKey(created.ID), Value: other}}))

	_, err = s.Audit(created.ID)
	require.ErrorIs(t, err, ErrCorruptRecord)

	require.NoError(t, db.CommitSync([]storage.KeyValue{{Key: auditKey(created.ID), Value: []byte("not zstd")}}))
	_, err = s.Audit(created.ID)
	require.ErrorIs(t, err, ErrCorruptRecord)

	require.NoError(t, db.CommitSync([]storage.KeyValue{{Key: recordKey(created.ID), Value: []byte{1}}}))
	_, err = s.Get(created.ID)
	require.ErrorIs(t, err, ErrCorruptRecord)
}

func TestRecordSurvivesReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "draws")

	s, err := Open(dir, storage.Options{})
	require.NoError(t, err)

	audit := auditFor(t, "persist")
	created, err := s.Create("c", "t", audit)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(dir, storage.Options{})
	require.NoError(t, err)
	defer s.Close()

	stored, err := s.Audit(created.ID)
	require.NoError(t, err)
	require.Equal(t, audit, stored)

	_, err = s.Create("c", "t", audit)
	require.ErrorIs(t, err, ErrDuplicateDraw)
}
