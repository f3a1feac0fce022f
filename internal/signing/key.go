package signing

import (
	"crypto"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/pkcs12"
)

var (
	// ErrNilKey is returned when signing is requested without a key.
	ErrNilKey = errors.New("signing key is nil")

	// ErrNoPrivateKey is returned when a key has no usable RSA private key.
	ErrNoPrivateKey = errors.New("key does not hold an RSA private key suitable for signing")

	// ErrNoCertificate is returned when PEM data carries no certificate.
	ErrNoCertificate = errors.New("no certificate found")
)

// Key is an X.509 certificate together with the RSA private key that signs draws.
// A Key built from a certificate alone can be inspected but not used for signing.
type Key struct {
	cert    *x509.Certificate // cert is the public certificate embedded in documents
	private *rsa.PrivateKey   // private is nil for certificate-only keys
}

// NewKey pairs a certificate with a private key.
// The private key must be RSA and match the certificate's public key.
func NewKey(cert *x509.Certificate, private crypto.PrivateKey) (*Key, error) {
	if cert == nil {
		return nil, ErrNoCertificate
	}

	k := &Key{cert: cert}
	if private == nil {
		return k, nil
	}

	rsaKey, ok := private.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is %T:\n%w", private, ErrNoPrivateKey)
	}

	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok || !pub.Equal(&rsaKey.PublicKey) {
		return nil, fmt.Errorf("private key does not match certificate:\n%w", ErrNoPrivateKey)
	}

	k.private = rsaKey

	return k, nil
}

// ParseCertificatePEM builds a certificate-only Key from PEM data.
func ParseCertificatePEM(certPEM []byte) (*Key, error) {
	cert, err := parseCertificate(certPEM)
	if err != nil {
		return nil, err
	}

	return &Key{cert: cert}, nil
}

// LoadKeyPEM parses a PEM certificate and a PEM private key (PKCS#1 or PKCS#8).
func LoadKeyPEM(certPEM, keyPEM []byte) (*Key, error) {
	cert, err := parseCertificate(certPEM)
	if err != nil {
		return nil, err
	}

	private, err := parsePrivateKey(keyPEM)
	if err != nil {
		return nil, err
	}

	return NewKey(cert, private)
}

// LoadKeyFiles reads a PEM certificate file and a PEM private key file.
func LoadKeyFiles(certPath, keyPath string) (*Key, error) {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("read certificate file:\n%w", err)
	}

	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("read key file:\n%w", err)
	}

	return LoadKeyPEM(certPEM, keyPEM)
}

// LoadPFX decodes a password protected PKCS#12 bundle.
func LoadPFX(data []byte, password string) (*Key, error) {
	private, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, fmt.Errorf("decode pfx:\n%w", err)
	}

	return NewKey(cert, private)
}

// LoadPFXFile reads and decodes a PKCS#12 file.
func LoadPFXFile(path, password string) (*Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pfx file:\n%w", err)
	}

	return LoadPFX(data, password)
}

// CanSign returns ErrNoPrivateKey unless the key holds a usable private key.
func (k *Key) CanSign() error {
	if k == nil {
		return ErrNilKey
	}
	if k.private == nil {
		return ErrNoPrivateKey
	}

	return k.private.Validate()
}

// Certificate returns the parsed certificate.
func (k *Key) Certificate() *x509.Certificate {
	return k.cert
}

// CertificatePEM returns the certificate in PEM form, as embedded in audit documents.
func (k *Key) CertificatePEM() string {
	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: k.cert.Raw}))
}

// TLSCertificate returns the key pair as a TLS certificate.
func (k *Key) TLSCertificate() (tls.Certificate, error) {
	if err := k.CanSign(); err != nil {
		return tls.Certificate{}, err
	}

	return tls.Certificate{
		Certificate: [][]byte{k.cert.Raw},
		PrivateKey:  k.private,
		Leaf:        k.cert,
	}, nil
}

// parseCertificate decodes the first CERTIFICATE block in data.
func parseCertificate(data []byte) (*x509.Certificate, error) {
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			return nil, ErrNoCertificate
		}

		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse certificate:\n%w", err)
		}

		return cert, nil
	}
}

// parsePrivateKey decodes the first private key block in data.
func parsePrivateKey(data []byte) (crypto.PrivateKey, error) {
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			return nil, ErrNoPrivateKey
		}

		switch block.Type {
		case "RSA PRIVATE KEY":
			key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("parse pkcs1 key:\n%w", err)
			}
			return key, nil
		case "PRIVATE KEY":
			key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("parse pkcs8 key:\n%w", err)
			}
			return key, nil
		}
	}
}
