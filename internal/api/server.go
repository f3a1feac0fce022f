package api

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"

	"trustedwinner/internal/drawstore"
	"trustedwinner/internal/logger"
	"trustedwinner/internal/signing"
)

// DrawStore persists draws created through the API.
type DrawStore interface {
	Exists(contestID, title string) (bool, error)
	Create(contestID, title string, audit []byte) (*drawstore.Record, error)
	Get(id string) (*drawstore.Record, error)
	Audit(id string) ([]byte, error)
	List() ([]*drawstore.Record, error)
}

// Config holds the server settings.
type Config struct {
	Addr      string       // Addr is the HTTP listen address
	HTTP3Addr string       // HTTP3Addr is the UDP address of the HTTP/3 listener; empty disables it
	Key       *signing.Key // Key signs audit documents; nil produces unsigned draws
}

// Server is the HTTP API server.
type Server struct {
	cfg      Config        // cfg holds listen addresses and the signing key
	store    DrawStore     // store persists draws
	handler  http.Handler  // handler routes every request
	server   *http.Server  // server is the underlying HTTP server
	listener net.Listener  // listener is bound by Start
	h3       *http3.Server // h3 serves the same routes over QUIC when enabled
	h3conn   net.PacketConn
}

// New creates a new HTTP API server.
func New(cfg Config, store DrawStore) *Server {
	s := &Server{
		cfg:   cfg,
		store: store,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /draws/instant", s.handleInstantDraw)
	mux.HandleFunc("POST /draws", s.handleCreateDraw)
	mux.HandleFunc("GET /draws", s.handleListDraws)
	mux.HandleFunc("GET /draws/{id}", s.handleGetDraw)
	mux.HandleFunc("GET /draws/{id}/audit", s.handleGetAudit)
	mux.HandleFunc("POST /verify", s.handleVerify)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.handler = s.logRequests(mux)

	return s
}

// Handler returns the routed handler, without listeners.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the bound HTTP address. Returns empty string if not started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// HTTP3Addr returns the bound HTTP/3 address. Returns empty string if disabled.
func (s *Server) HTTP3Addr() string {
	if s.h3conn == nil {
		return ""
	}

	return s.h3conn.LocalAddr().String()
}

// Start binds the listeners and serves in goroutines.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s:\n%w", s.cfg.Addr, err)
	}

	s.listener = listener

	handler := s.handler

	if s.cfg.HTTP3Addr != "" {
		if err := s.startHTTP3(); err != nil {
			listener.Close()
			return fmt.Errorf("start http3:\n%w", err)
		}

		handler = s.advertiseHTTP3(handler)
	}

	s.server = &http.Server{
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http api started", "addr", listener.Addr().String())

		if err := s.server.Serve(listener); err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
		}
	}()

	return nil
}

// startHTTP3 starts the QUIC listener. It serves with the signing
// certificate when one is configured and a fresh self-signed one otherwise.
func (s *Server) startHTTP3() error {
	cert, err := s.tlsCertificate()
	if err != nil {
		return err
	}

	conn, err := net.ListenPacket("udp", s.cfg.HTTP3Addr)
	if err != nil {
		return fmt.Errorf("listen %s:\n%w", s.cfg.HTTP3Addr, err)
	}

	s.h3conn = conn
	s.h3 = &http3.Server{
		Handler: s.handler,
		Port:    conn.LocalAddr().(*net.UDPAddr).Port,
		TLSConfig: http3.ConfigureTLSConfig(&tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS13,
		}),
		QUICConfig: &quic.Config{
			MaxIdleTimeout:  30 * time.Second,
			KeepAlivePeriod: 10 * time.Second,
		},
	}

	go func() {
		logger.Info("http3 api started", "addr", conn.LocalAddr().String())

		if err := s.h3.Serve(conn); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, quic.ErrServerClosed) {
			logger.Error("http3 server error", "error", err)
		}
	}()

	return nil
}

// tlsCertificate returns the certificate presented by the HTTP/3 listener.
func (s *Server) tlsCertificate() (tls.Certificate, error) {
	if s.cfg.Key != nil && s.cfg.Key.CanSign() == nil {
		return s.cfg.Key.TLSCertificate()
	}

	generated, err := signing.GenerateCertificate(signing.CertificateOptions{
		CommonName: "TrustedWinner API",
		DNSNames:   []string{"localhost"},
	})
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("generate certificate:\n%w", err)
	}

	return generated.Key.TLSCertificate()
}

// advertiseHTTP3 adds the Alt-Svc header announcing the HTTP/3 listener.
func (s *Server) advertiseHTTP3(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.h3.SetQUICHeaders(w.Header()); err != nil {
			logger.Debug("alt-svc header skipped", "error", err)
		}

		next.ServeHTTP(w, r)
	})
}

// logRequests logs each request at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"proto", r.Proto,
			logger.Timed(start),
		)
	})
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	var errs []error

	if s.h3 != nil {
		if err := s.h3.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close http3:\n%w", err))
		}

		s.h3conn.Close()
	}

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http:\n%w", err))
		}
	}

	return errors.Join(errs...)
}
