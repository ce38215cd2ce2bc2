// Package report renders the status of a puzzle store.
//
// A Status combines the store inventory with the provenance ledger totals.
// Writers render it for a terminal (SimpleWriter), for sharing
// (MarkdownWriter) or for tools (JSONWriter). Writers implement the Writer
// interface and can be composed with MultiWriter.
package report
