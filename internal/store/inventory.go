package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/puzzlecrawl/internal/model"
)

// Inventory lists what the store holds, year by year in ascending order.
type Inventory struct {
	Years []YearInventory
}

// YearInventory lists the stored days of one year.
type YearInventory struct {
	Year int
	Days []DayInventory
}

// DayInventory lists the stems stored for one day.
type DayInventory struct {
	Day     int
	Inputs  []model.Stem
	Answers map[int][]model.Stem
}

// Counts aggregates an inventory.
type Counts struct {
	// Days with at least one artifact.
	Days int
	// Inputs stored under hash stems.
	Inputs int
	// Examples are inputs stored under sentinel stems.
	Examples int
	// Answers per part, any stem.
	Answers map[int]int
}

// Counts aggregates the year.
func (y YearInventory) Counts() Counts {
	c := Counts{Answers: make(map[int]int)}
	for _, d := range y.Days {
		c.Days++
		for _, stem := range d.Inputs {
			if stem.IsSentinel() {
				c.Examples++
			} else {
				c.Inputs++
			}
		}
		for part, stems := range d.Answers {
			c.Answers[part] += len(stems)
		}
	}
	return c
}

// Inventory walks the store. Years are scanned concurrently; the store is
// only read.
func (s *Store) Inventory(ctx context.Context) (*Inventory, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Inventory{}, nil
		}
		return nil, fmt.Errorf("failed to read store root: %w", err)
	}

	years := make([]int, 0, len(entries))
	for _, e := range entries {
		if year, ok := numericDir(e, 4); ok {
			years = append(years, year)
		}
	}
	slices.Sort(years)

	inv := &Inventory{Years: make([]YearInventory, len(years))}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, year := range years {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			y, err := s.scanYear(year)
			if err != nil {
				return err
			}
			inv.Years[i] = y
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Store) scanYear(year int) (YearInventory, error) {
	yearDir := filepath.Join(s.root, fmt.Sprintf("%04d", year))
	entries, err := os.ReadDir(yearDir)
	if err != nil {
		return YearInventory{}, fmt.Errorf("failed to read %s: %w", yearDir, err)
	}

	y := YearInventory{Year: year}
	for _, e := range entries {
		day, ok := numericDir(e, 2)
		if !ok {
			continue
		}
		dayDir := filepath.Join(yearDir, e.Name())

		d := DayInventory{Day: day, Answers: make(map[int][]model.Stem)}
		if d.Inputs, err = stems(filepath.Join(dayDir, model.KindInput.Dir())); err != nil {
			return YearInventory{}, err
		}

		answersDir := filepath.Join(dayDir, model.KindAnswer.Dir())
		for _, part := range model.Parts {
			found, err := stems(filepath.Join(answersDir, strconv.Itoa(part)))
			if err != nil {
				return YearInventory{}, err
			}
			if len(found) > 0 {
				d.Answers[part] = found
			}
		}
		y.Days = append(y.Days, d)
	}

	slices.SortFunc(y.Days, func(a, b DayInventory) int { return a.Day - b.Day })
	return y, nil
}

// stems lists artifact stems in dir; a missing dir has none.
func stems(dir string) ([]model.Stem, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	out := make([]model.Stem, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, FileExt) || strings.HasPrefix(name, ".") {
			continue
		}
		out = append(out, model.Stem(strings.TrimSuffix(name, FileExt)))
	}
	return out, nil
}

// numericDir parses a zero-padded numeric directory name of the given width.
func numericDir(e fs.DirEntry, width int) (int, bool) {
	if !e.IsDir() || len(e.Name()) != width {
		return 0, false
	}
	n, err := strconv.Atoi(e.Name())
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
