package model

import (
	"errors"
	"fmt"
)

// Bounds of the puzzle calendar.
const (
	// FirstYear is the first year puzzles were published.
	FirstYear = 2015

	// FirstDay and LastDay bound the days of a single event.
	FirstDay = 1
	LastDay  = 25
)

// Parts lists the parts of every puzzle in crawl order.
var Parts = []int{1, 2}

// Validation errors for PuzzleKey.
var (
	// ErrInvalidYear is returned for years before FirstYear.
	ErrInvalidYear = errors.New("invalid year: must be 2015 or later")

	// ErrInvalidDay is returned for days outside 1-25.
	ErrInvalidDay = errors.New("invalid day: must be between 1 and 25")

	// ErrInvalidPart is returned for parts other than 1 or 2.
	ErrInvalidPart = errors.New("invalid part: must be 1 or 2")
)

// PuzzleKey addresses one unit of puzzle content.
// Inputs belong to a whole day, so their keys carry Part 0.
// Keys are totally ordered by (Year, Day, Part).
type PuzzleKey struct {
	Year int `json:"year"`
	Day  int `json:"day"`
	Part int `json:"part,omitempty"`
}

// DayKey returns the key of the day a puzzle belongs to.
func DayKey(year, day int) PuzzleKey {
	return PuzzleKey{Year: year, Day: day}
}

// PartKey returns the key of one part of a puzzle.
func PartKey(year, day, part int) PuzzleKey {
	return PuzzleKey{Year: year, Day: day, Part: part}
}

// Validate checks the key against the puzzle calendar.
// A zero Part is accepted and means "the whole day".
func (k PuzzleKey) Validate() error {
	if k.Year < FirstYear {
		return fmt.Errorf("%w: %d", ErrInvalidYear, k.Year)
	}
	if k.Day < FirstDay || k.Day > LastDay {
		return fmt.Errorf("%w: %d", ErrInvalidDay, k.Day)
	}
	if k.Part != 0 && k.Part != 1 && k.Part != 2 {
		return fmt.Errorf("%w: %d", ErrInvalidPart, k.Part)
	}
	return nil
}

// Less reports whether k sorts before other.
func (k PuzzleKey) Less(other PuzzleKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	if k.Day != other.Day {
		return k.Day < other.Day
	}
	return k.Part < other.Part
}

// String renders the key as "2021:05" for days and "2021:05:?:1" for parts.
func (k PuzzleKey) String() string {
	if k.Part == 0 {
		return fmt.Sprintf("%04d:%02d", k.Year, k.Day)
	}
	return fmt.Sprintf("%04d:%02d:?:%d", k.Year, k.Day, k.Part)
}

// PuzzlePath is the remote path of the puzzle description page.
// The page announces the answers the identity has already submitted.
func (k PuzzleKey) PuzzlePath() string {
	return fmt.Sprintf("%d/day/%d", k.Year, k.Day)
}

// InputPath is the remote path of the identity's puzzle input.
func (k PuzzleKey) InputPath() string {
	return fmt.Sprintf("%d/day/%d/input", k.Year, k.Day)
}
