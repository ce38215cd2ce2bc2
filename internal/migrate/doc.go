// Package migrate moves a legacy puzzle data directory into the
// content-addressed store.
//
// The legacy layout keeps inputs as inputs/{year}/{day}/{name}.txt and all
// answers in a single answers.json nested as year, day, part, name. Curated
// examples (names starting with "example", or "easy") keep an upper-cased
// sentinel stem; everything else is stored under the hash of the legacy
// input it belongs to.
package migrate
