package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"trustedwinner/internal/signing"
)

const (
	certFileName = "cert.pem"
	keyFileName  = "key.pem"
)

var certFlags signing.CertificateOptions

var createCertificateCmd = &cobra.Command{
	Use:   "create-certificate <dir>",
	Short: "Generate a self-signed certificate for draw signing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCreateCertificate(cmd.OutOrStdout(), args[0], certFlags)
	},
}

func init() {
	flags := createCertificateCmd.Flags()
	flags.StringVar(&certFlags.CommonName, "common-name", "TrustedWinner", "common name (CN) of the certificate")
	flags.StringVar(&certFlags.Organization, "organization", "", "organization (O) name")
	flags.StringVar(&certFlags.Country, "country", "", "two-letter country code (C)")
	flags.IntVar(&certFlags.ValidityYears, "validity-years", 1, "number of years the certificate is valid")
}

// runCreateCertificate writes a new certificate and private key into dir.
func runCreateCertificate(w io.Writer, dir string, opts signing.CertificateOptions) error {
	if opts.ValidityYears < 1 {
		return fmt.Errorf("validity must be at least one year, got %d", opts.ValidityYears)
	}

	generated, err := signing.GenerateCertificate(opts)
	if err != nil {
		return fmt.Errorf("generate certificate:\n%w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory:\n%w", err)
	}

	certPath := filepath.Join(dir, certFileName)
	keyPath := filepath.Join(dir, keyFileName)

	if err := os.WriteFile(certPath, generated.CertPEM, 0o644); err != nil {
		return fmt.Errorf("write certificate:\n%w", err)
	}

	if err := os.WriteFile(keyPath, generated.KeyPEM, 0o600); err != nil {
		return fmt.Errorf("write private key:\n%w", err)
	}

	fmt.Fprintf(w, "Certificate saved to: %s\n", certPath)
	fmt.Fprintf(w, "Private key saved to: %s\n", keyPath)
	printCertificate(w, generated.Key.Certificate())

	return nil
}
