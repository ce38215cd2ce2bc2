// Package store implements the content-addressed artifact store.
//
// Layout under the store root:
//
//	{year:04}/{day:02}/inputs/{stem}.txt
//	{year:04}/{day:02}/answers/{part}/{stem}.txt
//
// An input's stem is the truncated SHA-256 of its content; an answer is
// stored under the stem of the input it answers. Curated examples use
// upper-case sentinel stems such as EXAMPLE.
//
// Files are write-once. A write to an occupied path with different content
// is a collision: it is logged and skipped, and the first writer's content
// is kept.
package store
