package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"trustedwinner/internal/draw"
	"trustedwinner/internal/logger"
)

// drawOptions are the flags of the draw command.
type drawOptions struct {
	Winners     uint32    // Winners is the number of winner groups
	Substitutes uint32    // Substitutes is the number of substitutes per winner
	Output      string    // Output is the audit file path; derived from the entries file when empty
	Entropy     string    // Entropy is the optional additional seed entropy
	Key         keySource // Key locates the optional signing key
}

var drawFlags drawOptions

var drawCmd = &cobra.Command{
	Use:   "draw <entries-file>",
	Short: "Execute a new draw over a JSON array of entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDraw(cmd.OutOrStdout(), args[0], drawFlags)
	},
}

func init() {
	flags := drawCmd.Flags()
	flags.Uint32Var(&drawFlags.Winners, "winners", 1, "number of winners to select")
	flags.Uint32Var(&drawFlags.Substitutes, "substitutes", 0, "number of substitutes per winner")
	flags.StringVar(&drawFlags.Output, "output", "", "audit file to write (default <entries-file>-result.json)")
	flags.StringVar(&drawFlags.Entropy, "entropy", "", "optional extra entropy mixed into the seed")
	flags.StringVar(&drawFlags.Key.CertFile, "cert", "", "PEM certificate used to sign the results")
	flags.StringVar(&drawFlags.Key.KeyFile, "key", "", "PEM private key matching --cert")
	flags.StringVar(&drawFlags.Key.PFXFile, "pfx", "", "PKCS#12 bundle used to sign the results")
	flags.StringVar(&drawFlags.Key.PFXPassword, "pfx-password", "", "password of the PKCS#12 bundle")
}

// runDraw executes a draw over the entries file and writes its audit document.
func runDraw(w io.Writer, entriesFile string, opts drawOptions) error {
	entries, err := readEntries(entriesFile)
	if err != nil {
		return err
	}

	key, err := opts.Key.load()
	if err != nil {
		return err
	}

	cfg := draw.Configuration{Winners: opts.Winners, SubstitutesPerWinner: opts.Substitutes}

	exec, err := draw.NewExecutor(cfg, entries, key)
	if err != nil {
		return fmt.Errorf("create draw:\n%w", err)
	}

	if key != nil {
		printCertificate(w, key.Certificate())
	}

	results, err := exec.Execute(opts.Entropy)
	if err != nil {
		return fmt.Errorf("execute draw:\n%w", err)
	}

	audit, err := exec.AuditJSON()
	if err != nil {
		return fmt.Errorf("build audit document:\n%w", err)
	}

	output := opts.Output
	if output == "" {
		output = defaultOutputPath(entriesFile)
	}

	if err := os.WriteFile(output, audit, 0o644); err != nil {
		return fmt.Errorf("write audit document:\n%w", err)
	}

	logger.Debug("draw executed", "entries", len(entries), "winners", cfg.Winners, "output", output)

	printResults(w, results)

	fmt.Fprintf(w, "\nDraw completed successfully. Auditable result saved to: %s\n", output)
	if key != nil {
		fmt.Fprintln(w, "Results have been signed with the provided certificate")
	}

	return nil
}

// readEntries loads a JSON array of strings.
func readEntries(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entries file:\n%w", err)
	}

	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("invalid JSON format in entries file:\n%w", err)
	}

	if entries == nil {
		return nil, fmt.Errorf("entries file %s holds no array", path)
	}

	return entries, nil
}

// defaultOutputPath derives "<dir>/<name>-result.json" from the entries file.
func defaultOutputPath(entriesFile string) string {
	base := filepath.Base(entriesFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	return filepath.Join(filepath.Dir(entriesFile), name+"-result.json")
}
