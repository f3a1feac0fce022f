package api

import (
	"errors"
	"fmt"

	"trustedwinner/internal/draw"
)

const (
	// maxBodySize is the maximum request body size in bytes.
	maxBodySize = 8 << 20 // 8 MB

	// maxEntries is the maximum number of entries accepted in one draw.
	maxEntries = 1_000_000
)

var (
	errNoEntries      = errors.New("no entries provided for the draw")
	errInvalidWinners = errors.New("invalid number of winners specified")
	errMissingContest = errors.New("contest id and title are required for persistent draws")
)

// DrawRequest asks for a draw over a list of entries.
type DrawRequest struct {
	Entries           []string           `json:"entries"`
	Configuration     draw.Configuration `json:"configuration"`
	AdditionalEntropy string             `json:"additionalEntropy"`
}

// PersistentDrawRequest asks for a draw that is stored under (ContestID, Title).
type PersistentDrawRequest struct {
	DrawRequest
	ContestID string `json:"contestId"`
	Title     string `json:"title"`
}

// CreatedResponse is returned for a stored draw.
type CreatedResponse struct {
	ID string `json:"id"`
}

// VerifyResponse reports the authenticity of an audit document.
type VerifyResponse struct {
	Authentic    bool   `json:"authentic"`
	Version      string `json:"version"`      // Version is the version declared by the document
	LocalVersion string `json:"localVersion"` // LocalVersion is the version of this server
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// validate checks the request before any draw runs.
func (r *DrawRequest) validate() error {
	if len(r.Entries) == 0 {
		return errNoEntries
	}

	if len(r.Entries) > maxEntries {
		return fmt.Errorf("too many entries: got %d, max %d", len(r.Entries), maxEntries)
	}

	if r.Configuration.Winners == 0 || uint64(r.Configuration.Winners) > uint64(len(r.Entries)) {
		return errInvalidWinners
	}

	return nil
}

// validate checks the persistent request fields on top of the draw fields.
func (r *PersistentDrawRequest) validate() error {
	if err := r.DrawRequest.validate(); err != nil {
		return err
	}

	if r.ContestID == "" || r.Title == "" {
		return errMissingContest
	}

	return nil
}
