// Package model defines the core data structures used throughout puzzlecrawl.
//
// This package contains the following main types:
//   - PuzzleKey: The (year, day, part) coordinate addressing puzzle content
//   - Kind: The artifact kind stored in the content store (input or answer)
//   - Stem: The file name stem of a stored artifact (content hash or sentinel)
//   - Identity and Credential: Who a crawl session acts as
//   - Page: A raw page body obtained from the remote service
//   - CrawlReport: The outcome of one crawl session
//
// Models are kept in their own package so that the store, the crawler, the
// migration tool and the report writers can share them without import cycles.
package model
