package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"trustedwinner/internal/draw"
	"trustedwinner/internal/drawstore"
	"trustedwinner/internal/logger"
)

// handleInstantDraw handles POST /draws/instant requests.
// The audit document is returned and nothing is stored.
func (s *Server) handleInstantDraw(w http.ResponseWriter, r *http.Request) {
	var req DrawRequest
	if !readJSON(w, r, &req) {
		return
	}

	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	audit, err := s.runDraw(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to execute draw: %v", err))
		return
	}

	writeRawJSON(w, http.StatusOK, audit)
}

// handleCreateDraw handles POST /draws requests.
// The draw is stored once per (contestId, title).
func (s *Server) handleCreateDraw(w http.ResponseWriter, r *http.Request) {
	var req PersistentDrawRequest
	if !readJSON(w, r, &req) {
		return
	}

	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Reject early so no draw runs for a known duplicate; Create checks again.
	exists, err := s.store.Exists(req.ContestID, req.Title)
	if err != nil {
		logger.Error("check draw existence", "error", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	if exists {
		writeDuplicate(w, &req)
		return
	}

	audit, err := s.runDraw(&req.DrawRequest)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to execute draw: %v", err))
		return
	}

	record, err := s.store.Create(req.ContestID, req.Title, audit)
	if errors.Is(err, drawstore.ErrDuplicateDraw) {
		writeDuplicate(w, &req)
		return
	}
	if err != nil {
		logger.Error("store draw", "error", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}

	writeJSON(w, http.StatusOK, CreatedResponse{ID: record.ID})
}

// handleListDraws handles GET /draws requests.
func (s *Server) handleListDraws(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List()
	if err != nil {
		logger.Error("list draws", "error", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}

	if records == nil {
		records = []*drawstore.Record{}
	}

	writeJSON(w, http.StatusOK, records)
}

// handleGetDraw handles GET /draws/{id} requests.
func (s *Server) handleGetDraw(w http.ResponseWriter, r *http.Request) {
	record, err := s.store.Get(r.PathValue("id"))
	if errors.Is(err, drawstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "draw not found")
		return
	}
	if err != nil {
		logger.Error("read draw", "error", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// handleGetAudit handles GET /draws/{id}/audit requests.
func (s *Server) handleGetAudit(w http.ResponseWriter, r *http.Request) {
	audit, err := s.store.Audit(r.PathValue("id"))
	if errors.Is(err, drawstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "draw not found")
		return
	}
	if err != nil {
		logger.Error("read audit", "error", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}

	writeRawJSON(w, http.StatusOK, audit)
}

// handleVerify handles POST /verify requests.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	doc, err := draw.ParseDocument(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	authentic, err := draw.VerifyDocument(doc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, VerifyResponse{
		Authentic:    authentic,
		Version:      doc.Version,
		LocalVersion: draw.Version,
	})
}

// handleHealth handles GET /health requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: draw.Version,
	})
}

// runDraw executes a fresh draw and returns its audit document.
func (s *Server) runDraw(req *DrawRequest) ([]byte, error) {
	exec, err := draw.NewExecutor(req.Configuration, req.Entries, s.cfg.Key)
	if err != nil {
		return nil, err
	}

	if _, err := exec.Execute(req.AdditionalEntropy); err != nil {
		return nil, err
	}

	return exec.AuditJSON()
}

// readBody reads the request body up to maxBodySize.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return nil, false
	}

	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "empty body")
		return nil, false
	}

	return body, true
}

// readJSON decodes the request body into v.
func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body, ok := readBody(w, r)
	if !ok {
		return false
	}

	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return false
	}

	return true
}

// writeDuplicate writes the 409 response for an existing (contestId, title).
func writeDuplicate(w http.ResponseWriter, req *PersistentDrawRequest) {
	writeError(w, http.StatusConflict, fmt.Sprintf(
		"a draw with contest id %q and title %q already exists", req.ContestID, req.Title))
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeRawJSON writes already encoded JSON.
func writeRawJSON(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}
