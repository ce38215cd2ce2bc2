package remote

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/puzzlecrawl/internal/model"
	"github.com/nao1215/puzzlecrawl/internal/rawcache"
	"github.com/nao1215/puzzlecrawl/internal/ratelimit"
)

// fakeGetter serves canned bodies and counts calls.
type fakeGetter struct {
	pages map[string]string
	calls atomic.Int32
}

func (g *fakeGetter) Get(_ context.Context, path string) ([]byte, error) {
	g.calls.Add(1)
	body, ok := g.pages[path]
	if !ok {
		return nil, &RemoteFetchError{Path: path, StatusCode: http.StatusNotFound}
	}
	return []byte(body), nil
}

type recordingObserver struct {
	mu     sync.Mutex
	events []FetchEvent
}

func (o *recordingObserver) ObserveFetch(_ context.Context, event FetchEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func newTestFetcher(t *testing.T, getter Getter, opts ...FetcherOption) *Fetcher {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := rawcache.New(t.TempDir(), rawcache.WithLogger(logger))
	limiter := ratelimit.New(ratelimit.FixedJitter(time.Millisecond))
	return NewFetcher(getter, cache, limiter, append([]FetcherOption{WithLogger(logger)}, opts...)...)
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("second fetch issues no network call", func(t *testing.T) {
		t.Parallel()

		getter := &fakeGetter{pages: map[string]string{"2021/day/1/input": "199\n200\n"}}
		observer := &recordingObserver{}
		f := newTestFetcher(t, getter, WithObserver(observer))
		ctx := context.Background()

		first, err := f.Fetch(ctx, "2021/day/1/input", "7", ".txt")
		if err != nil {
			t.Fatalf("first Fetch() error = %v", err)
		}
		second, err := f.Fetch(ctx, "2021/day/1/input", "7", ".txt")
		if err != nil {
			t.Fatalf("second Fetch() error = %v", err)
		}

		if got := getter.calls.Load(); got != 1 {
			t.Errorf("network calls = %d, want 1", got)
		}
		if string(first.Body) != string(second.Body) {
			t.Errorf("bodies differ: %q vs %q", first.Body, second.Body)
		}
		if first.FromCache || !second.FromCache {
			t.Errorf("FromCache = %v, %v; want false, true", first.FromCache, second.FromCache)
		}

		if len(observer.events) != 2 {
			t.Fatalf("observed %d events, want 2", len(observer.events))
		}
		if observer.events[0].Source != SourceNetwork || observer.events[1].Source != SourceCache {
			t.Errorf("sources = %s, %s", observer.events[0].Source, observer.events[1].Source)
		}
	})

	t.Run("failed fetch is not cached", func(t *testing.T) {
		t.Parallel()

		getter := &fakeGetter{pages: map[string]string{}}
		observer := &recordingObserver{}
		f := newTestFetcher(t, getter, WithObserver(observer))
		ctx := context.Background()

		for range 2 {
			_, err := f.Fetch(ctx, "2030/day/1/input", "7", ".txt")
			if !IsNotAvailable(err) {
				t.Fatalf("Fetch() error = %v, want not available", err)
			}
		}
		if got := getter.calls.Load(); got != 2 {
			t.Errorf("network calls = %d, want 2", got)
		}
		if observer.events[0].Err == nil {
			t.Error("failure not reported to observer")
		}
	})

	t.Run("identity-less pages always hit the network", func(t *testing.T) {
		t.Parallel()

		getter := &fakeGetter{pages: map[string]string{"settings": "(anonymous user #12)"}}
		f := newTestFetcher(t, getter)
		ctx := context.Background()

		for range 2 {
			page, err := f.Fetch(ctx, "settings", model.NoIdentity, ".html")
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if page.Text() != "(anonymous user #12)" {
				t.Errorf("Text() = %q", page.Text())
			}
		}
		if got := getter.calls.Load(); got != 2 {
			t.Errorf("network calls = %d, want 2", got)
		}
	})

	t.Run("cancelled context stops before the network", func(t *testing.T) {
		t.Parallel()

		getter := &fakeGetter{pages: map[string]string{"a": "b"}}
		f := newTestFetcher(t, getter)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := f.Fetch(ctx, "a", "7", ".txt")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Fetch() error = %v, want context.Canceled", err)
		}
		if got := getter.calls.Load(); got != 0 {
			t.Errorf("network calls = %d, want 0", got)
		}
	})
}
