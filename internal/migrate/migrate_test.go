package migrate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/puzzlecrawl/internal/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected %s: %v", path, err)
	}
	return string(data)
}

// newLegacyDir lays out a small legacy directory.
func newLegacyDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "inputs", "2015", "01", "easy.txt"), "(())")
	writeFile(t, filepath.Join(dir, "inputs", "2015", "01", "alice.txt"), "abc")
	writeFile(t, filepath.Join(dir, "inputs", "2015", "01", "example2.txt"), "()")
	writeFile(t, filepath.Join(dir, "answers.json"), `{
  "2015": {
    "01": {
      "1": {"easy": "0", "alice": "280", "example2": 0},
      "2": {"alice": 1797}
    }
  }
}`)
	return dir
}

func TestIsManualExample(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{name: "easy", want: true},
		{name: "example", want: true},
		{name: "example_3", want: true},
		{name: "easy2", want: false},
		{name: "alice", want: false},
		{name: "my_example", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsManualExample(tt.name); got != tt.want {
				t.Errorf("IsManualExample(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestMigratorRun(t *testing.T) {
	t.Parallel()

	t.Run("moves inputs and answers into the store", func(t *testing.T) {
		t.Parallel()

		legacy := newLegacyDir(t)
		root := t.TempDir()
		m := New(legacy, store.New(root, store.WithLogger(quietLogger())), WithLogger(quietLogger()))

		res, err := m.Run(t.Context())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if res.Inputs.Created != 3 || res.Answers.Created != 4 {
			t.Errorf("unexpected result: %+v", res)
		}

		day := filepath.Join(root, "2015", "01")
		if got := readFile(t, filepath.Join(day, "inputs", "EASY.txt")); got != "(())" {
			t.Errorf("EASY input = %q", got)
		}
		if got := readFile(t, filepath.Join(day, "inputs", "ba7816bf8f01cfea.txt")); got != "abc" {
			t.Errorf("hashed input = %q", got)
		}
		if got := readFile(t, filepath.Join(day, "inputs", "EXAMPLE2.txt")); got != "()" {
			t.Errorf("EXAMPLE2 input = %q", got)
		}
		if got := readFile(t, filepath.Join(day, "answers", "1", "ba7816bf8f01cfea.txt")); got != "280" {
			t.Errorf("part 1 answer = %q", got)
		}
		if got := readFile(t, filepath.Join(day, "answers", "2", "ba7816bf8f01cfea.txt")); got != "1797" {
			t.Errorf("numeric part 2 answer = %q", got)
		}
		if got := readFile(t, filepath.Join(day, "answers", "1", "EASY.txt")); got != "0" {
			t.Errorf("EASY answer = %q", got)
		}
	})

	t.Run("running twice adds nothing", func(t *testing.T) {
		t.Parallel()

		legacy := newLegacyDir(t)
		root := t.TempDir()
		m := New(legacy, store.New(root, store.WithLogger(quietLogger())), WithLogger(quietLogger()))

		if _, err := m.Run(t.Context()); err != nil {
			t.Fatalf("first Run() error = %v", err)
		}
		res, err := m.Run(t.Context())
		if err != nil {
			t.Fatalf("second Run() error = %v", err)
		}
		if res.Inputs.Created != 0 || res.Answers.Created != 0 {
			t.Errorf("second run created files: %+v", res)
		}
		if res.Inputs.Unchanged != 3 || res.Answers.Unchanged != 4 {
			t.Errorf("second run should find everything unchanged: %+v", res)
		}

		entries, err := os.ReadDir(filepath.Join(root, "2015", "01", "inputs"))
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 3 {
			t.Errorf("expected 3 input files, got %d", len(entries))
		}
	})

	t.Run("identical inputs of two users share one file", func(t *testing.T) {
		t.Parallel()

		legacy := t.TempDir()
		writeFile(t, filepath.Join(legacy, "inputs", "2016", "05", "alice.txt"), "same")
		writeFile(t, filepath.Join(legacy, "inputs", "2016", "05", "bob.txt"), "same")

		root := t.TempDir()
		res, err := New(legacy, store.New(root, store.WithLogger(quietLogger())), WithLogger(quietLogger())).Run(t.Context())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if res.Inputs.Created != 1 || res.Inputs.Unchanged != 1 {
			t.Errorf("unexpected result: %+v", res.Inputs)
		}
	})

	t.Run("answer without input is skipped", func(t *testing.T) {
		t.Parallel()

		legacy := t.TempDir()
		writeFile(t, filepath.Join(legacy, "answers.json"), `{"2017": {"02": {"1": {"carol": "9"}}}}`)

		res, err := New(legacy, store.New(t.TempDir()), WithLogger(quietLogger())).Run(t.Context())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if res.Answers.Skipped != 1 || res.Answers.Created != 0 {
			t.Errorf("unexpected result: %+v", res.Answers)
		}
	})

	t.Run("missing answers file is fine", func(t *testing.T) {
		t.Parallel()

		legacy := t.TempDir()
		writeFile(t, filepath.Join(legacy, "inputs", "2015", "02", "alice.txt"), "x")

		res, err := New(legacy, store.New(t.TempDir()), WithLogger(quietLogger())).Run(t.Context())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if res.Inputs.Created != 1 {
			t.Errorf("unexpected result: %+v", res)
		}
	})

	t.Run("malformed answers are rejected", func(t *testing.T) {
		t.Parallel()

		legacy := t.TempDir()
		writeFile(t, filepath.Join(legacy, "answers.json"), `{"2015": {"01": {"3": {"alice": "1"}}}}`)

		_, err := New(legacy, store.New(t.TempDir()), WithLogger(quietLogger())).Run(t.Context())
		if !errors.Is(err, ErrMalformedAnswers) {
			t.Errorf("Run() error = %v, want ErrMalformedAnswers", err)
		}
	})

	t.Run("canceled context stops the migration", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		_, err := New(newLegacyDir(t), store.New(t.TempDir()), WithLogger(quietLogger())).Run(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	})
}
