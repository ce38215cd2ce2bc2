// Package main provides the entry point for the puzzlecrawl CLI.
//
// puzzlecrawl downloads puzzle inputs and accepted answers for every
// registered session and files them into a content-addressed store.
//
// Usage:
//
//	puzzlecrawl session add --primary < cookie.txt
//	puzzlecrawl scrape all
//	puzzlecrawl today
//
// See --help for all available options.
package main

func main() {
	Execute()
}
