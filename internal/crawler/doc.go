// Package crawler walks the puzzle calendar for one identity and fills the
// content store.
//
// # Sub-modes
//
// A crawl runs as two independent sub-modes, each a monotonic pass over
// (year, day[, part]) starting at 2015 day 1:
//
//   - inputs: fetch every day's input and store it under its content hash
//   - answers: fetch every puzzle page, extract the announced answers and
//     store each under the hash of the identity's input for that day
//
// A sub-mode ends at the first fetch failure. A 404 means the day has not
// been released yet and ends the sub-mode cleanly; any other failure ends it
// and is returned to the caller. Nothing is retried within a run: re-running
// is cheap because every successful fetch is cached.
//
// An unsolved part (no answer announced) is skipped without ending the
// sub-mode.
//
// # Usage
//
//	c := crawler.NewController(fetcher, st, identity, crawler.WithLedger(ledger))
//	report := model.NewCrawlReport(identity)
//	err := c.ScrapeInputs(ctx, report)
package crawler
