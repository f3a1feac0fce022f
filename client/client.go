// Package client talks to a TrustedWinner API server.
package client

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quic-go/quic-go/http3"

	"trustedwinner/internal/api"
	"trustedwinner/internal/drawstore"
)

// Client connects to a TrustedWinner server.
type Client struct {
	baseURL string       // baseURL is the server root, e.g. "http://127.0.0.1:8080"
	http    *http.Client // http sends the requests
	closer  io.Closer    // closer releases the transport, if it owns one
}

// New creates a client for the server at addr ("host:port" or a full URL).
func New(addr string) *Client {
	return NewWithHTTPClient(addr, &http.Client{Timeout: 30 * time.Second})
}

// NewWithHTTPClient creates a client that sends requests with hc.
func NewWithHTTPClient(addr string, hc *http.Client) *Client {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}

	return &Client{
		baseURL: strings.TrimRight(addr, "/"),
		http:    hc,
	}
}

// NewHTTP3 creates a client that talks HTTP/3 to the server at addr.
// A nil tlsConf uses the system roots.
func NewHTTP3(addr string, tlsConf *tls.Config) *Client {
	transport := &http3.Transport{TLSClientConfig: tlsConf}

	c := NewWithHTTPClient("https://"+addr, &http.Client{
		Transport: transport,
		Timeout:   30 * time.Second,
	})
	c.closer = transport

	return c
}

// Close releases the client's transport.
func (c *Client) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// Health returns the server status and version.
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	if err := c.httpGet(ctx, "/health", &resp); err != nil {
		return nil, fmt.Errorf("health:\n%w", err)
	}

	return &resp, nil
}

// InstantDraw runs a draw without storing it and returns its audit document.
func (c *Client) InstantDraw(ctx context.Context, req api.DrawRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request:\n%w", err)
	}

	audit, err := c.do(ctx, http.MethodPost, "/draws/instant", body)
	if err != nil {
		return nil, fmt.Errorf("instant draw:\n%w", err)
	}

	return audit, nil
}

// CreateDraw runs and stores a draw, returning its id.
// A second draw for the same (contestId, title) fails with ErrDuplicateDraw.
func (c *Client) CreateDraw(ctx context.Context, req api.PersistentDrawRequest) (string, error) {
	var resp api.CreatedResponse
	if err := c.httpPostJSON(ctx, "/draws", req, &resp); err != nil {
		return "", fmt.Errorf("create draw:\n%w", err)
	}

	return resp.ID, nil
}

// GetDraw returns the stored record of a draw.
func (c *Client) GetDraw(ctx context.Context, id string) (*drawstore.Record, error) {
	var record drawstore.Record
	if err := c.httpGet(ctx, "/draws/"+url.PathEscape(id), &record); err != nil {
		return nil, fmt.Errorf("get draw:\n%w", err)
	}

	return &record, nil
}

// ListDraws returns every stored draw, oldest first.
func (c *Client) ListDraws(ctx context.Context) ([]*drawstore.Record, error) {
	var records []*drawstore.Record
	if err := c.httpGet(ctx, "/draws", &records); err != nil {
		return nil, fmt.Errorf("list draws:\n%w", err)
	}

	return records, nil
}

// Audit returns the stored audit document of a draw, byte for byte.
func (c *Client) Audit(ctx context.Context, id string) ([]byte, error) {
	audit, err := c.do(ctx, http.MethodGet, "/draws/"+url.PathEscape(id)+"/audit", nil)
	if err != nil {
		return nil, fmt.Errorf("get audit:\n%w", err)
	}

	return audit, nil
}

// Verify asks the server to check an audit document.
func (c *Client) Verify(ctx context.Context, audit []byte) (*api.VerifyResponse, error) {
	data, err := c.do(ctx, http.MethodPost, "/verify", audit)
	if err != nil {
		return nil, fmt.Errorf("verify:\n%w", err)
	}

	var resp api.VerifyResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode verify response:\n%w", err)
	}

	return &resp, nil
}
