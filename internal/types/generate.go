// Package types holds the FlatBuffers tables persisted by the draw store.
package types

//go:generate flatc --go -o .. draw.fbs
