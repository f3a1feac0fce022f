package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// newTestStorage creates a temporary storage for testing.
func newTestStorage(t *testing.T) (*Storage, func()) {
	t.Helper()

	dir, err := os.MkdirTemp("", "storage-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	s, err := Open(filepath.Join(dir, "db"), Options{SyncInterval: 10 * time.Millisecond})
	if err != nil {
		os.RemoveAll(dir)
		t.Fatalf("failed to create storage: %v", err)
	}

	cleanup := func() {
		s.Close()
		os.RemoveAll(dir)
	}

	return s, cleanup
}

// put writes a single pair.
func put(t *testing.T, s *Storage, key, value []byte) {
	t.Helper()

	if err := s.CommitSync([]KeyValue{{Key: key, Value: value}}); err != nil {
		t.Fatalf("CommitSync failed: %v", err)
	}
}

func TestGetMissingAndHas(t *testing.T) {
	s, cleanup := newTestStorage(t)
	defer cleanup()

	got, err := s.Get([]byte("d/missing"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("Get returned %q, want nil", got)
	}

	put(t, s, []byte("d/present"), []byte("record"))

	ok, err := s.Has([]byte("d/present"))
	if err != nil || !ok {
		t.Errorf("Has(present) = %v, %v; want true", ok, err)
	}

	ok, err = s.Has([]byte("d/missing"))
	if err != nil || ok {
		t.Errorf("Has(missing) = %v, %v; want false", ok, err)
	}
}

func TestCommitSyncWritesAllPairs(t *testing.T) {
	s, cleanup := newTestStorage(t)
	defer cleanup()

	pairs := []KeyValue{
		{Key: []byte("d/1"), Value: []byte("record")},
		{Key: []byte("a/1"), Value: []byte("audit")},
		{Key: []byte("c/1"), Value: []byte("1")},
	}

	if err := s.CommitSync(pairs); err != nil {
		t.Fatalf("CommitSync failed: %v", err)
	}

	for _, kv := range pairs {
		got, err := s.Get(kv.Key)
		if err != nil {
			t.Fatalf("Get(%s) failed: %v", kv.Key, err)
		}
		if !bytes.Equal(got, kv.Value) {
			t.Errorf("Get(%s) = %q, want %q", kv.Key, got, kv.Value)
		}
	}
}

func TestCommitSyncOverwrites(t *testing.T) {
	s, cleanup := newTestStorage(t)
	defer cleanup()

	key := []byte("d/1")

	put(t, s, key, []byte("first"))
	put(t, s, key, []byte("second"))

	got, _ := s.Get(key)
	if string(got) != "second" {
		t.Errorf("Get returned %q, want %q", got, "second")
	}
}

func TestIteratePrefix(t *testing.T) {
	s, cleanup := newTestStorage(t)
	defer cleanup()

	for i := 3; i >= 1; i-- {
		put(t, s, []byte(fmt.Sprintf("d/%d", i)), []byte{byte(i)})
	}
	put(t, s, []byte("e/1"), []byte("other"))
	put(t, s, []byte("c/1"), []byte("other"))

	var keys []string
	err := s.IteratePrefix([]byte("d/"), func(key, value []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	if err != nil {
		t.Fatalf("IteratePrefix failed: %v", err)
	}

	want := []string{"d/1", "d/2", "d/3"}
	if fmt.Sprint(keys) != fmt.Sprint(want) {
		t.Errorf("IteratePrefix visited %v, want %v", keys, want)
	}
}

func TestIteratePrefixStopsOnError(t *testing.T) {
	s, cleanup := newTestStorage(t)
	defer cleanup()

	for i := range 5 {
		put(t, s, []byte(fmt.Sprintf("d/%d", i)), []byte("x"))
	}

	stop := errors.New("stop")
	visited := 0

	err := s.IteratePrefix([]byte("d/"), func(key, value []byte) error {
		visited++
		if visited == 2 {
			return stop
		}
		return nil
	})

	if !errors.Is(err, stop) {
		t.Fatalf("IteratePrefix returned %v, want %v", err, stop)
	}
	if visited != 2 {
		t.Errorf("visited %d keys, want 2", visited)
	}
}

func TestPrefixUpperBound(t *testing.T) {
	cases := []struct {
		prefix []byte
		want   []byte
	}{
		{[]byte("d/"), []byte("d0")},
		{[]byte{0x01, 0xff}, []byte{0x02}},
		{[]byte{0xff, 0xff}, nil},
	}

	for _, c := range cases {
		got := prefixUpperBound(c.prefix)
		if !bytes.Equal(got, c.want) {
			t.Errorf("prefixUpperBound(%x) = %x, want %x", c.prefix, got, c.want)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db")

	s, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	put(t, s, []byte("d/1"), []byte("record"))
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s, err = Open(path, Options{})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	got, err := s.Get([]byte("d/1"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "record" {
		t.Errorf("Get after reopen = %q, want %q", got, "record")
	}
}
