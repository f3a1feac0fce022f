package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const (
	// maxResponseSize bounds response bodies read by the client.
	maxResponseSize = 16 << 20 // 16 MB
)

var (
	// ErrNotFound is returned when the server has no such draw.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateDraw is returned when the (contestId, title) pair is already used.
	ErrDuplicateDraw = errors.New("duplicate draw")

	// ErrBadRequest is returned when the server rejects the request.
	ErrBadRequest = errors.New("bad request")

	// ErrResponseTooLarge is returned when a response body exceeds maxResponseSize.
	ErrResponseTooLarge = errors.New("response too large")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method  string // Method is the request method
	URL     string // URL is the request URL
	Code    int    // Code is the HTTP status code
	Message string // Message is the server's error message, if any
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Code, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Code)
}

// Unwrap maps the status code to the package sentinels.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrDuplicateDraw
	case http.StatusBadRequest:
		return ErrBadRequest
	}
	return nil
}

// do sends a request and returns the body of a 200 response.
func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request:\n%w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s:\n%w", method, url, err)
	}
	defer func() { io.Copy(io.Discard, resp.Body); resp.Body.Close() }()

	if resp.ContentLength > maxResponseSize {
		return nil, fmt.Errorf("%s %s: %d bytes:\n%w", method, url, resp.ContentLength, ErrResponseTooLarge)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s %s:\n%w", method, url, err)
	}
	if len(data) > maxResponseSize {
		return nil, fmt.Errorf("%s %s: over %d bytes:\n%w", method, url, maxResponseSize, ErrResponseTooLarge)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		json.Unmarshal(data, &apiErr)

		return nil, &StatusError{Method: method, URL: url, Code: resp.StatusCode, Message: apiErr.Error}
	}

	return data, nil
}

// httpGet performs a GET request and decodes the JSON response.
func (c *Client) httpGet(ctx context.Context, path string, result any) error {
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("decode %s:\n%w", path, err)
	}

	return nil
}

// httpPostJSON performs a POST request with JSON body and decodes the JSON response.
func (c *Client) httpPostJSON(ctx context.Context, path string, body any, result any) error {
	jsonBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body:\n%w", err)
	}

	data, err := c.do(ctx, http.MethodPost, path, jsonBytes)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("decode %s:\n%w", path, err)
	}

	return nil
}
