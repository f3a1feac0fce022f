package draw

import (
	"encoding/json"
	"fmt"
)

// Version is the producer version recorded in every audit document.
var Version = "1.0.0"

// Document is the audit record of a draw: everything needed to replay it and,
// when signed, to check who produced it.
type Document struct {
	Version       string        `json:"version"`
	Configuration Configuration `json:"configuration"`
	Entries       []string      `json:"entries"`
	Seed          Seed          `json:"seed"`
	Results       [][]string    `json:"results"`
	Certificate   string        `json:"certificate,omitempty"`
	Signature     string        `json:"signature,omitempty"`
}

// Signed reports whether the document carries a certificate or a signature.
func (d *Document) Signed() bool {
	return d.Certificate != "" || d.Signature != ""
}

// MarshalIndent encodes the document with two-space indentation.
func (d *Document) MarshalIndent() ([]byte, error) {
	return marshalIndent(d)
}

// documentJSON detects missing required fields while decoding.
type documentJSON struct {
	Version       *string `json:"version"`
	Configuration *struct {
		Winners              *uint32 `json:"winners"`
		SubstitutesPerWinner *uint32 `json:"substitutesPerWinner"`
	} `json:"configuration"`
	Entries     *[]string   `json:"entries"`
	Seed        *Seed       `json:"seed"`
	Results     *[][]string `json:"results"`
	Certificate *string     `json:"certificate"`
	Signature   *string     `json:"signature"`
}

// ParseDocument decodes an audit document. Any decoding problem or missing
// required field is reported as ErrMalformedDocument.
func ParseDocument(data []byte) (*Document, error) {
	var raw documentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w:\n%w", ErrMalformedDocument, err)
	}

	switch {
	case raw.Version == nil:
		return nil, missingField("version")
	case raw.Configuration == nil:
		return nil, missingField("configuration")
	case raw.Configuration.Winners == nil:
		return nil, missingField("configuration.winners")
	case raw.Configuration.SubstitutesPerWinner == nil:
		return nil, missingField("configuration.substitutesPerWinner")
	case raw.Entries == nil || *raw.Entries == nil:
		return nil, missingField("entries")
	case raw.Seed == nil:
		return nil, missingField("seed")
	case raw.Results == nil || *raw.Results == nil:
		return nil, missingField("results")
	}

	doc := &Document{
		Version: *raw.Version,
		Configuration: Configuration{
			Winners:              *raw.Configuration.Winners,
			SubstitutesPerWinner: *raw.Configuration.SubstitutesPerWinner,
		},
		Entries: *raw.Entries,
		Seed:    *raw.Seed,
		Results: *raw.Results,
	}

	if raw.Certificate != nil {
		doc.Certificate = *raw.Certificate
	}
	if raw.Signature != nil {
		doc.Signature = *raw.Signature
	}

	return doc, nil
}

// missingField reports a required field that is absent or null.
func missingField(name string) error {
	return fmt.Errorf("%w: missing %s", ErrMalformedDocument, name)
}
