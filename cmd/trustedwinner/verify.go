package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"trustedwinner/internal/draw"
	"trustedwinner/internal/signing"
)

// errNotAuthentic makes the process exit non-zero for a rejected document.
var errNotAuthentic = errors.New("draw result is not authentic")

var verifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Verify the authenticity of a draw result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVerify(cmd.OutOrStdout(), args[0])
	},
}

// runVerify checks an audit document and reports the outcome.
func runVerify(w io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read draw result:\n%w", err)
	}

	doc, err := draw.ParseDocument(data)
	if err != nil {
		return fmt.Errorf("invalid draw data:\n%w", err)
	}

	authentic, err := draw.VerifyDocument(doc)
	if err != nil {
		return fmt.Errorf("invalid draw data:\n%w", err)
	}

	if authentic {
		fmt.Fprintln(w, "The draw result is authentic and has not been tampered with.")
	} else {
		fmt.Fprintln(w, "Warning: the draw result appears to have been tampered with!")

		if doc.Version != draw.Version {
			fmt.Fprintln(w, "The result may have been created by a different version of TrustedWinner.")
			fmt.Fprintf(w, "File version: %s\n", doc.Version)
			fmt.Fprintf(w, "Local version: %s\n", draw.Version)
		}
	}

	if doc.Certificate != "" {
		key, err := signing.ParseCertificatePEM([]byte(doc.Certificate))
		if err != nil {
			fmt.Fprintf(w, "  Warning: could not parse certificate information: %v\n", err)
		} else {
			printCertificate(w, key.Certificate())
		}
	}

	if !authentic {
		return errNotAuthentic
	}

	return nil
}
