package signing

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const (
	// rsaKeyBits is the modulus size of generated signing keys.
	rsaKeyBits = 2048

	// defaultCommonName is used when no common name is given.
	defaultCommonName = "TrustedWinner"
)

// CertificateOptions describes the subject and lifetime of a generated certificate.
type CertificateOptions struct {
	CommonName    string // CommonName is the CN of the subject
	Organization  string // Organization is the optional O of the subject
	Country       string // Country is the optional two-letter C of the subject
	ValidityYears int    // ValidityYears is the lifetime; values below 1 mean 1
	DNSNames      []string
}

// GeneratedCertificate holds a freshly generated key pair in PEM form.
type GeneratedCertificate struct {
	CertPEM []byte // CertPEM is the self-signed certificate
	KeyPEM  []byte // KeyPEM is the PKCS#8 private key
	Key     *Key   // Key is the parsed pair, ready for signing
}

// GenerateCertificate creates a self-signed RSA certificate for signing draws.
func GenerateCertificate(opts CertificateOptions) (*GeneratedCertificate, error) {
	private, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generate rsa key:\n%w", err)
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("generate serial number:\n%w", err)
	}

	years := opts.ValidityYears
	if years < 1 {
		years = 1
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber:          serialNumber,
		Subject:               opts.subject(),
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.AddDate(years, 0, 0),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              opts.DNSNames,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &private.PublicKey, private)
	if err != nil {
		return nil, fmt.Errorf("create certificate:\n%w", err)
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, fmt.Errorf("parse certificate:\n%w", err)
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(private)
	if err != nil {
		return nil, fmt.Errorf("marshal private key:\n%w", err)
	}

	key, err := NewKey(cert, private)
	if err != nil {
		return nil, err
	}

	return &GeneratedCertificate{
		CertPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER}),
		KeyPEM:  pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}),
		Key:     key,
	}, nil
}

// subject builds the certificate subject from the options.
func (o CertificateOptions) subject() pkix.Name {
	name := pkix.Name{CommonName: o.CommonName}
	if name.CommonName == "" {
		name.CommonName = defaultCommonName
	}

	if org := strings.TrimSpace(o.Organization); org != "" {
		name.Organization = []string{org}
	}

	if c := strings.TrimSpace(o.Country); c != "" {
		name.Country = []string{strings.ToUpper(c)}
	}

	return name
}
