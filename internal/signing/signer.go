// Package signing implements the canonical serialization of draw results and
// their RSA PKCS#1 v1.5 / SHA-256 signatures.
package signing

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"trustedwinner/internal/logger"
)

var (
	// errNotRSA is returned when a certificate carries a non-RSA public key.
	errNotRSA = errors.New("certificate public key is not RSA")

	// errEmptySignature is returned when there is no signature to check.
	errEmptySignature = errors.New("signature is empty")
)

// Sign signs the canonical form of results and returns the base64 signature.
func Sign(results [][]string, key *Key) (string, error) {
	if results == nil {
		return "", ErrNilResults
	}
	if key == nil {
		return "", ErrNilKey
	}
	if key.private == nil {
		return "", ErrNoPrivateKey
	}

	payload, err := CanonicalResults(results)
	if err != nil {
		return "", err
	}

	digest := sha256.Sum256(payload)

	sig, err := rsa.SignPKCS1v15(rand.Reader, key.private, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("sign results:\n%w", err)
	}

	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify reports whether signature is a valid signature of results by the key in certPEM.
// It never fails loudly: malformed input, a wrong key and a mismatched signature all
// yield false. The cause is logged at debug level.
func Verify(results [][]string, signature, certPEM string) bool {
	if err := verify(results, signature, certPEM); err != nil {
		logger.Debug("signature rejected", "error", err)
		return false
	}

	return true
}

// verify checks the signature and returns the reason it does not hold.
func verify(results [][]string, signature, certPEM string) error {
	if signature == "" {
		return errEmptySignature
	}

	payload, err := CanonicalResults(results)
	if err != nil {
		return err
	}

	cert, err := parseCertificate([]byte(certPEM))
	if err != nil {
		return err
	}

	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return errNotRSA
	}

	sig, err := base64.StdEncoding.Strict().DecodeString(signature)
	if err != nil {
		return fmt.Errorf("decode signature:\n%w", err)
	}

	digest := sha256.Sum256(payload)

	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig); err != nil {
		return fmt.Errorf("verify signature:\n%w", err)
	}

	return nil
}
