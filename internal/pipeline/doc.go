// Package pipeline runs crawl sub-modes in sequence for one identity.
//
// Each sub-mode (inputs, answers, today) is a Step that receives the
// identity's CrawlReport and adds to it. Steps run strictly one after the
// other; there is no parallelism within or across identities.
package pipeline
