// Package draw selects winners and substitutes from a list of unique entries.
//
// A draw is fully determined by its configuration, its entries and its seed.
// The seed combines a UTC timestamp, 256 random bits and optional caller
// entropy; its canonical string keys a BLAKE3 stream from which every pick is
// drawn. Anyone holding the audit document of a draw can therefore replay it
// with IsAuthentic and, when the document is signed, check the RSA signature
// over the canonical results.
//
// Executor is single-use: it runs one draw, then exposes the results and the
// audit document. Run is the pure function underneath it.
package draw
