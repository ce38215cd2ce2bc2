package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Kind is the kind of artifact kept in the content store.
type Kind string

const (
	// KindInput is a puzzle input. Stored under "inputs".
	KindInput Kind = "input"

	// KindAnswer is the answer to one part of a puzzle. Stored under "answers".
	KindAnswer Kind = "answer"
)

// Dir returns the directory name the kind is stored under.
func (k Kind) Dir() string {
	switch k {
	case KindInput:
		return "inputs"
	case KindAnswer:
		return "answers"
	default:
		return string(k)
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindInput || k == KindAnswer
}

// StemLength is the number of hex characters kept from the content hash.
const StemLength = 16

// Sentinel stems for manually curated content.
const (
	// StemExample marks an example from the puzzle text.
	StemExample Stem = "EXAMPLE"

	// StemInput marks a copy of the primary identity's input kept for quick tests.
	StemInput Stem = "INPUT"
)

// Stem is the file name (without extension) of a stored artifact.
// It is either the truncated content hash or an upper-case sentinel.
type Stem string

// Hexdigest returns the stem for the given content: the first StemLength
// lower-case hex characters of its SHA-256 digest.
func Hexdigest(content []byte) Stem {
	sum := sha256.Sum256(content)
	return Stem(hex.EncodeToString(sum[:])[:StemLength])
}

// SentinelStem returns the sentinel stem for a curated name such as "easy".
func SentinelStem(name string) Stem {
	return Stem(strings.ToUpper(name))
}

// IsSentinel reports whether the stem marks curated content.
func (s Stem) IsSentinel() bool {
	if s == "" {
		return false
	}
	return strings.ToUpper(string(s)) == string(s) && !isHex(string(s))
}

// Validate rejects stems that could escape the store hierarchy.
func (s Stem) Validate() error {
	if s == "" {
		return fmt.Errorf("empty stem")
	}
	if strings.ContainsAny(string(s), `/\`) || s == "." || s == ".." {
		return fmt.Errorf("invalid stem %q", string(s))
	}
	return nil
}

func isHex(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// ContentBlob is one artifact as kept in the content store.
// Blobs are immutable once written.
type ContentBlob struct {
	Kind    Kind
	Key     PuzzleKey
	Stem    Stem
	Content []byte
}

// NewHashedBlob creates a blob whose stem is the hash of its own content.
func NewHashedBlob(kind Kind, key PuzzleKey, content []byte) ContentBlob {
	return ContentBlob{
		Kind:    kind,
		Key:     key,
		Stem:    Hexdigest(content),
		Content: content,
	}
}
