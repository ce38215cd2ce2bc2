package rawcache

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/puzzlecrawl/internal/model"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	return New(t.TempDir(), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestEscape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "input path", path: "2021/day/5/input", want: "2021-day-5-input"},
		{name: "leading slash dropped", path: "/settings", want: "settings"},
		{name: "dash doubled", path: "a-b/c", want: "a--b-c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Escape(tt.path); got != tt.want {
				t.Errorf("Escape(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}

	t.Run("distinct paths stay distinct", func(t *testing.T) {
		t.Parallel()

		if Escape("a-/b") == Escape("a/-b") {
			t.Error("Escape() mapped distinct paths to the same name")
		}
	})
}

func TestCache_IdentityPages(t *testing.T) {
	t.Parallel()

	t.Run("miss then hit", func(t *testing.T) {
		t.Parallel()

		c := newTestCache(t)
		_, ok, err := c.Get("42", "2021/day/1/input", ".txt")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok {
			t.Fatal("Get() on empty cache reported a hit")
		}

		if _, err := c.Put("42", "2021/day/1/input", ".txt", []byte("1\n2\n")); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		entry, ok, err := c.Get("42", "2021/day/1/input", ".txt")
		if err != nil || !ok {
			t.Fatalf("Get() = ok %v, err %v; want hit", ok, err)
		}
		if string(entry.Body) != "1\n2\n" {
			t.Errorf("Body = %q", entry.Body)
		}
		want := filepath.Join(c.Root(), "user", "42", "2021-day-1-input.txt")
		if entry.Path != want {
			t.Errorf("Path = %q, want %q", entry.Path, want)
		}
	})

	t.Run("identities are isolated", func(t *testing.T) {
		t.Parallel()

		c := newTestCache(t)
		if _, err := c.Put("1", "2021/day/1/input", ".txt", []byte("mine")); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		_, ok, err := c.Get("2", "2021/day/1/input", ".txt")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok {
			t.Error("Get() returned another identity's page")
		}
	})

	t.Run("first copy stays authoritative", func(t *testing.T) {
		t.Parallel()

		c := newTestCache(t)
		if _, err := c.Put("1", "p", ".html", []byte("first")); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		entry, err := c.Put("1", "p", ".html", []byte("second"))
		if err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		if string(entry.Body) != "first" {
			t.Errorf("Body = %q, want %q", entry.Body, "first")
		}
	})

	t.Run("lookup without identity is refused", func(t *testing.T) {
		t.Parallel()

		c := newTestCache(t)
		_, _, err := c.Get(model.NoIdentity, "settings", ".html")
		if !errors.Is(err, ErrIdentityRequired) {
			t.Errorf("Get() error = %v, want ErrIdentityRequired", err)
		}
	})
}

func TestCache_SharedPages(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	body := []byte("<html>(anonymous user #7)</html>")

	first, err := c.Put(model.NoIdentity, "settings", ".html", body)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	second, err := c.Put(model.NoIdentity, "settings", ".html", body)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if first.Path != second.Path {
		t.Errorf("identical bodies stored at %q and %q", first.Path, second.Path)
	}
	want := filepath.Join(c.Root(), "other", string(model.Hexdigest(body))+".html")
	if first.Path != want {
		t.Errorf("Path = %q, want %q", first.Path, want)
	}

	entries, err := os.ReadDir(filepath.Join(c.Root(), "other"))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("other/ has %d entries, want 1", len(entries))
	}
}
