package migrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nao1215/puzzlecrawl/internal/model"
	"github.com/nao1215/puzzlecrawl/internal/store"
)

// Legacy layout names.
const (
	InputsDir   = "inputs"
	AnswersFile = "answers.json"
)

var (
	// ErrMalformedAnswers is returned when answers.json is not nested
	// year/day/part/name.
	ErrMalformedAnswers = errors.New("malformed legacy answers")

	// ErrMissingInput is returned when an answer names an input that the
	// legacy directory does not hold.
	ErrMissingInput = errors.New("legacy input not found")
)

// IsManualExample reports whether a legacy name marks curated content.
func IsManualExample(name string) bool {
	return strings.HasPrefix(name, "example") || name == "easy"
}

// legacyKey addresses a legacy input.
type legacyKey struct {
	year int
	day  int
	name string
}

// Counts tallies the outcome of one pass.
type Counts struct {
	Created   int
	Unchanged int
	Collision int
	Skipped   int
}

func (c *Counts) add(r store.WriteResult) {
	switch r {
	case store.ResultCreated:
		c.Created++
	case store.ResultUnchanged:
		c.Unchanged++
	case store.ResultCollision:
		c.Collision++
	}
}

// Result summarizes a migration.
type Result struct {
	Inputs  Counts
	Answers Counts
}

// Migrator copies one legacy directory into a store.
type Migrator struct {
	legacyDir string
	store     *store.Store
	logger    *slog.Logger
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Migrator) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a Migrator reading legacyDir and writing to st.
func New(legacyDir string, st *store.Store, opts ...Option) *Migrator {
	m := &Migrator{
		legacyDir: legacyDir,
		store:     st,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run migrates inputs, then answers. Writes never replace existing files,
// so running it again is harmless. A missing answers.json is treated as
// having no answers.
func (m *Migrator) Run(ctx context.Context) (*Result, error) {
	inputs, err := m.loadInputs()
	if err != nil {
		return nil, err
	}
	answers, err := m.loadAnswers()
	if err != nil {
		return nil, err
	}

	res := &Result{}
	if err := m.migrateInputs(ctx, inputs, &res.Inputs); err != nil {
		return res, err
	}
	if err := m.migrateAnswers(ctx, inputs, answers, &res.Answers); err != nil {
		return res, err
	}

	m.logger.Info("migration finished",
		"inputs_created", res.Inputs.Created,
		"answers_created", res.Answers.Created,
		"collisions", res.Inputs.Collision+res.Answers.Collision,
		"skipped", res.Inputs.Skipped+res.Answers.Skipped,
	)
	return res, nil
}

func (m *Migrator) migrateInputs(ctx context.Context, inputs map[legacyKey][]byte, counts *Counts) error {
	keys := make([]legacyKey, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.year != b.year {
			return a.year < b.year
		}
		if a.day != b.day {
			return a.day < b.day
		}
		return a.name < b.name
	})

	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		content := inputs[k]
		stem := model.Hexdigest(content)
		if IsManualExample(k.name) {
			stem = model.SentinelStem(k.name)
		}
		if err := m.write(model.KindInput, model.DayKey(k.year, k.day), stem, content, counts); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) migrateAnswers(ctx context.Context, inputs map[legacyKey][]byte, answers []legacyAnswer, counts *Counts) error {
	for _, a := range answers {
		if err := ctx.Err(); err != nil {
			return err
		}

		var stem model.Stem
		if IsManualExample(a.name) {
			stem = model.SentinelStem(a.name)
		} else {
			content, ok := inputs[legacyKey{year: a.key.Year, day: a.key.Day, name: a.name}]
			if !ok {
				m.logger.Warn("skipping answer without input",
					"key", a.key.String(), "name", a.name, "error", ErrMissingInput)
				counts.Skipped++
				continue
			}
			stem = model.Hexdigest(content)
		}
		if err := m.write(model.KindAnswer, a.key, stem, []byte(a.value), counts); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) write(kind model.Kind, key model.PuzzleKey, stem model.Stem, content []byte, counts *Counts) error {
	path, err := m.store.PathFor(kind, key, stem)
	if err != nil {
		return err
	}
	result, err := m.store.WriteIfAbsent(path, content)
	if err != nil {
		return err
	}
	if result != store.ResultCreated {
		m.logger.Warn("duplicate "+string(kind), "path", path, "result", result.String())
	}
	counts.add(result)
	return nil
}

// loadInputs reads inputs/*/*/*.txt.
func (m *Migrator) loadInputs() (map[legacyKey][]byte, error) {
	paths, err := filepath.Glob(filepath.Join(m.legacyDir, InputsDir, "*", "*", "*"+store.FileExt))
	if err != nil {
		return nil, err
	}

	inputs := make(map[legacyKey][]byte, len(paths))
	for _, p := range paths {
		dayDir := filepath.Dir(p)
		year, yerr := strconv.Atoi(filepath.Base(filepath.Dir(dayDir)))
		day, derr := strconv.Atoi(filepath.Base(dayDir))
		if yerr != nil || derr != nil {
			m.logger.Warn("skipping unrecognized legacy input", "path", p)
			continue
		}
		content, err := os.ReadFile(p) //nolint:gosec // paths come from the user's legacy directory
		if err != nil {
			return nil, fmt.Errorf("failed to read legacy input: %w", err)
		}
		name := strings.TrimSuffix(filepath.Base(p), store.FileExt)
		inputs[legacyKey{year: year, day: day, name: name}] = content
	}
	return inputs, nil
}

// legacyAnswer is one leaf of answers.json.
type legacyAnswer struct {
	key   model.PuzzleKey
	name  string
	value string
}

// loadAnswers flattens answers.json, ordered by key then name.
func (m *Migrator) loadAnswers() ([]legacyAnswer, error) {
	data, err := os.ReadFile(filepath.Join(m.legacyDir, AnswersFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read legacy answers: %w", err)
	}

	var nested map[string]map[string]map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &nested); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedAnswers, err)
	}

	var out []legacyAnswer
	for y, days := range nested {
		for d, parts := range days {
			for p, names := range parts {
				key, err := parseKey(y, d, p)
				if err != nil {
					return nil, err
				}
				for name, raw := range names {
					value, err := answerText(raw)
					if err != nil {
						return nil, fmt.Errorf("%w: %s/%s/%s/%s: %w", ErrMalformedAnswers, y, d, p, name, err)
					}
					out = append(out, legacyAnswer{key: key, name: name, value: value})
				}
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].key != out[j].key {
			return out[i].key.Less(out[j].key)
		}
		return out[i].name < out[j].name
	})
	return out, nil
}

func parseKey(y, d, p string) (model.PuzzleKey, error) {
	year, yerr := strconv.Atoi(y)
	day, derr := strconv.Atoi(d)
	part, perr := strconv.Atoi(p)
	if err := errors.Join(yerr, derr, perr); err != nil {
		return model.PuzzleKey{}, fmt.Errorf("%w: key %s/%s/%s: %w", ErrMalformedAnswers, y, d, p, err)
	}
	key := model.PartKey(year, day, part)
	if err := key.Validate(); err != nil {
		return model.PuzzleKey{}, fmt.Errorf("%w: %w", ErrMalformedAnswers, err)
	}
	return key, nil
}

// answerText accepts string or numeric leaves.
func answerText(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("unsupported answer value %s", string(raw))
}
