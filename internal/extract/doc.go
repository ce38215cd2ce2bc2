// Package extract pulls solved answers out of puzzle pages.
//
// A puzzle page announces each solved part as
//
//	<p>Your puzzle answer was <code>ANSWER</code>.</p>
//
// Announcements are numbered 1-based in document order: the first is part 1,
// the second part 2. Extraction is pure and performs no I/O.
package extract
