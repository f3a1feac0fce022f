package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"trustedwinner/internal/draw"
	"trustedwinner/internal/drawstore"
	"trustedwinner/internal/storage"
	"trustedwinner/internal/signing"
)

var (
	testKeyOnce sync.Once
	testKey     *signing.GeneratedCertificate
)

// newTestServer creates a server over a temporary draw store.
func newTestServer(t *testing.T, signed bool) *Server {
	t.Helper()

	store, err := drawstore.Open(filepath.Join(t.TempDir(), "draws"), storage.Options{})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := Config{Addr: "127.0.0.1:0"}

	if signed {
		testKeyOnce.Do(func() {
			testKey, err = signing.GenerateCertificate(signing.CertificateOptions{CommonName: "API Test"})
		})
		if err != nil || testKey == nil {
			t.Fatalf("failed to generate key: %v", err)
		}
		cfg.Key = testKey.Key
	}

	return New(cfg, store)
}

// do sends a request through the server handler.
func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()

	s.Handler().ServeHTTP(w, req)

	return w
}

func persistentRequest(contest, title string) PersistentDrawRequest {
	return PersistentDrawRequest{
		DrawRequest: DrawRequest{
			Entries:           []string{"ann", "bob", "cy", "dee"},
			Configuration:     draw.Configuration{Winners: 1, SubstitutesPerWinner: 1},
			AdditionalEntropy: contest,
		},
		ContestID: contest,
		Title:     title,
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, false)

	w := do(t, s, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if resp.Status != "ok" || resp.Version != draw.Version {
		t.Errorf("unexpected health response: %+v", resp)
	}
}

func TestInstantDraw(t *testing.T) {
	for _, signed := range []bool{false, true} {
		s := newTestServer(t, signed)

		w := do(t, s, "POST", "/draws/instant", DrawRequest{
			Entries:       []string{"e1", "e2", "e3"},
			Configuration: draw.Configuration{Winners: 1, SubstitutesPerWinner: 2},
		})
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		doc, err := draw.ParseDocument(w.Body.Bytes())
		if err != nil {
			t.Fatalf("response is not an audit document: %v", err)
		}
		if doc.Signed() != signed {
			t.Errorf("signed = %v, want %v", doc.Signed(), signed)
		}

		ok, err := draw.IsAuthentic(w.Body.Bytes())
		if err != nil || !ok {
			t.Errorf("instant draw not authentic: %v, %v", ok, err)
		}
	}
}

func TestInstantDrawValidation(t *testing.T) {
	s := newTestServer(t, false)

	cases := map[string]any{
		"empty body":   []byte{},
		"invalid json": []byte("{"),
		"no entries":   DrawRequest{Configuration: draw.Configuration{Winners: 1}},
		"zero winners": DrawRequest{Entries: []string{"a"}},
		"too many winners": DrawRequest{
			Entries:       []string{"a", "b"},
			Configuration: draw.Configuration{Winners: 3},
		},
		"duplicate entries": DrawRequest{
			Entries:       []string{"a", "a"},
			Configuration: draw.Configuration{Winners: 1},
		},
		"exhausted": DrawRequest{
			Entries:       []string{"a", "b", "c"},
			Configuration: draw.Configuration{Winners: 2, SubstitutesPerWinner: 1},
		},
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := do(t, s, "POST", "/draws/instant", body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestPersistentDrawLifecycle(t *testing.T) {
	s := newTestServer(t, true)

	w := do(t, s, "POST", "/draws", persistentRequest("contest-1", "first prize"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var created CreatedResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil || created.ID == "" {
		t.Fatalf("invalid create response %q: %v", w.Body.String(), err)
	}

	w = do(t, s, "GET", "/draws/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var record drawstore.Record
	if err := json.Unmarshal(w.Body.Bytes(), &record); err != nil {
		t.Fatalf("failed to parse record: %v", err)
	}
	if record.ContestID != "contest-1" || record.Title != "first prize" || len(record.Results) != 1 {
		t.Errorf("unexpected record: %+v", record)
	}
	if record.Seed.AdditionalEntropy != "contest-1" {
		t.Errorf("entropy not carried into the seed: %+v", record.Seed)
	}

	w = do(t, s, "GET", "/draws/"+created.ID+"/audit", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	ok, err := draw.IsAuthentic(w.Body.Bytes())
	if err != nil || !ok {
		t.Errorf("stored audit not authentic: %v, %v", ok, err)
	}

	w = do(t, s, "GET", "/draws", nil)
	var list []drawstore.Record
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || len(list) != 1 {
		t.Errorf("list returned %s: %v", w.Body.String(), err)
	}
}

func TestPersistentDrawDuplicate(t *testing.T) {
	s := newTestServer(t, false)

	if w := do(t, s, "POST", "/draws", persistentRequest("c", "t")); w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	w := do(t, s, "POST", "/draws", persistentRequest("c", "t"))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "already exists") {
		t.Errorf("unexpected conflict body: %s", w.Body.String())
	}
}

func TestPersistentDrawRequiresContest(t *testing.T) {
	s := newTestServer(t, false)

	req := persistentRequest("", "t")
	if w := do(t, s, "POST", "/draws", req); w.Code != http.StatusBadRequest {
		t.Errorf("missing contest: expected status 400, got %d", w.Code)
	}

	req = persistentRequest("c", "")
	if w := do(t, s, "POST", "/draws", req); w.Code != http.StatusBadRequest {
		t.Errorf("missing title: expected status 400, got %d", w.Code)
	}
}

func TestGetUnknownDraw(t *testing.T) {
	s := newTestServer(t, false)

	if w := do(t, s, "GET", "/draws/nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
	if w := do(t, s, "GET", "/draws/nope/audit", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestVerifyEndpoint(t *testing.T) {
	s := newTestServer(t, true)

	w := do(t, s, "POST", "/draws/instant", DrawRequest{
		Entries:       []string{"e1", "e2", "e3", "e4"},
		Configuration: draw.Configuration{Winners: 2},
	})
	audit := w.Body.Bytes()

	w = do(t, s, "POST", "/verify", audit)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp VerifyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !resp.Authentic || resp.Version != draw.Version || resp.LocalVersion != draw.Version {
		t.Errorf("unexpected verify response: %+v", resp)
	}

	var doc map[string]any
	json.Unmarshal(audit, &doc)
	doc["results"] = [][]string{{"e9"}, {"e8"}}

	w = do(t, s, "POST", "/verify", doc)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Authentic {
		t.Error("tampered document reported authentic")
	}

	if w := do(t, s, "POST", "/verify", []byte(`{"version":"1.0.0"}`)); w.Code != http.StatusBadRequest {
		t.Errorf("malformed document: expected status 400, got %d", w.Code)
	}
}

func TestStartStop(t *testing.T) {
	s := newTestServer(t, false)
	s.cfg.HTTP3Addr = "127.0.0.1:0"

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	resp, err := http.Get("http://" + s.Addr() + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if s.HTTP3Addr() == "" {
		t.Error("http3 listener not bound")
	}
	if resp.Header.Get("Alt-Svc") == "" {
		t.Error("missing Alt-Svc header")
	}

	if err := s.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}
