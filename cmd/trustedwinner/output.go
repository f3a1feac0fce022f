package main

import (
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"io"
	"strings"
)

// printResults writes each winner group.
func printResults(w io.Writer, results [][]string) {
	for i, group := range results {
		fmt.Fprintf(w, "\nDraw %d:\n", i+1)
		fmt.Fprintf(w, "  Winner: %s\n", group[0])

		if len(group) > 1 {
			fmt.Fprintln(w, "  Substitutes:")
			for j, sub := range group[1:] {
				fmt.Fprintf(w, "    %d. %s\n", j+1, sub)
			}
		}
	}
}

// printCertificate writes the identifying fields of a certificate.
func printCertificate(w io.Writer, cert *x509.Certificate) {
	fingerprint := sha256.Sum256(cert.Raw)

	fmt.Fprintln(w, "\nCertificate Information:")
	fmt.Fprintf(w, "  Subject: %s\n", cert.Subject)
	fmt.Fprintf(w, "  Issuer: %s\n", cert.Issuer)
	fmt.Fprintf(w, "  Valid from: %s\n", cert.NotBefore.Format("2006-01-02"))
	fmt.Fprintf(w, "  Valid until: %s\n", cert.NotAfter.Format("2006-01-02"))
	fmt.Fprintf(w, "  Serial number: %s\n", strings.ToUpper(cert.SerialNumber.Text(16)))
	fmt.Fprintf(w, "  SHA-256 fingerprint: %X\n", fingerprint)
}
