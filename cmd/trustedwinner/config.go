package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"trustedwinner/internal/signing"
)

// Config holds the settings read from the environment.
type Config struct {
	// HTTPAddr is the HTTP API listen address.
	HTTPAddr string `env:"TRUSTEDWINNER_HTTP_ADDR" envDefault:":8080"`

	// HTTP3Addr is the HTTP/3 listen address; empty disables HTTP/3.
	HTTP3Addr string `env:"TRUSTEDWINNER_HTTP3_ADDR"`

	// DataDir is the draw store directory.
	DataDir string `env:"TRUSTEDWINNER_DATA_DIR" envDefault:"./data"`

	// CacheSize is the draw store block cache size in bytes.
	CacheSize int64 `env:"TRUSTEDWINNER_CACHE_SIZE" envDefault:"8388608"`

	// CertFile and KeyFile are a PEM signing certificate and its private key.
	CertFile string `env:"TRUSTEDWINNER_CERT_FILE"`
	KeyFile  string `env:"TRUSTEDWINNER_KEY_FILE"`

	// PFXFile is a PKCS#12 bundle used instead of the PEM pair.
	PFXFile     string `env:"TRUSTEDWINNER_PFX_FILE"`
	PFXPassword string `env:"TRUSTEDWINNER_PFX_PASSWORD"`

	// LogLevel is the minimum log level.
	LogLevel string `env:"TRUSTEDWINNER_LOG_LEVEL" envDefault:"info"`
}

// loadConfig parses the environment into a Config.
func loadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env:\n%w", err)
	}

	return cfg, nil
}

// keySource names where a signing key comes from.
type keySource struct {
	CertFile    string // CertFile is the PEM certificate path
	KeyFile     string // KeyFile is the PEM private key path
	PFXFile     string // PFXFile is the PKCS#12 bundle path
	PFXPassword string // PFXPassword unlocks PFXFile
}

// load returns the configured signing key, or nil when none is configured.
func (k keySource) load() (*signing.Key, error) {
	switch {
	case k.PFXFile != "" && (k.CertFile != "" || k.KeyFile != ""):
		return nil, fmt.Errorf("use either a PFX file or a certificate and key pair, not both")

	case k.PFXFile != "":
		key, err := signing.LoadPFXFile(k.PFXFile, k.PFXPassword)
		if err != nil {
			return nil, fmt.Errorf("load pfx:\n%w", err)
		}
		return key, nil

	case k.CertFile != "" && k.KeyFile != "":
		key, err := signing.LoadKeyFiles(k.CertFile, k.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load key pair:\n%w", err)
		}
		return key, nil

	case k.CertFile != "" || k.KeyFile != "":
		return nil, fmt.Errorf("both a certificate and a private key file are required")
	}

	return nil, nil
}
