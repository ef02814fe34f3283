package batch

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/Hansen-L/TTS-Exporter/internal/scene"
)

type countingFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
}

func (f *countingFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	if f.fail[url] {
		return "", errors.New("boom")
	}
	return "/cache/" + url, nil
}

func TestAssets(t *testing.T) {
	ents := []scene.Entity{
		{Kind: scene.KindCustomModel, Model: &scene.CustomModel{MeshURL: "m.obj", DiffuseURL: "d.png"}},
		{Kind: scene.KindCustomModel, Model: &scene.CustomModel{MeshURL: "m.obj"}},
		{Kind: scene.KindDeck, Deck: &scene.Deck{FaceURL: "deck.png"}},
		{Kind: scene.KindCard, Card: &scene.Card{FaceURL: "sheet.png"}},
		{Kind: scene.KindPlane, Plane: &scene.Plane{ImageURL: "tile.png"}},
		{Kind: scene.KindCard, Card: &scene.Card{FaceURL: "sheet.png"}},
		{Kind: scene.KindUnhandled, Unhandled: &scene.Unhandled{}},
	}
	want := []string{"m.obj", "d.png", "sheet.png", "tile.png"}
	if got := Assets(ents); !reflect.DeepEqual(got, want) {
		t.Fatalf("Assets = %v, want %v", got, want)
	}
}

func TestPrefetch(t *testing.T) {
	f := &countingFetcher{calls: map[string]int{}, fail: map[string]bool{"bad.png": true}}
	urls := []string{"a.png", "b.png", "bad.png", "c.obj"}

	res := Prefetch(context.Background(), Config{Fetcher: f, Workers: 3}, urls)
	if len(res) != len(urls) {
		t.Fatalf("results = %d", len(res))
	}
	for i, r := range res {
		if r.URL != urls[i] {
			t.Errorf("result %d url = %q, want %q", i, r.URL, urls[i])
		}
		if f.calls[urls[i]] != 1 {
			t.Errorf("%s fetched %d times", urls[i], f.calls[urls[i]])
		}
	}
	if res[2].Error == "" || res[0].Path != "/cache/a.png" {
		t.Fatalf("results = %+v", res)
	}
}

func TestPrefetchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &countingFetcher{calls: map[string]int{}}
	urls := make([]string, 50)
	for i := range urls {
		urls[i] = string(rune('a'+i%26)) + ".png"
	}
	res := Prefetch(ctx, Config{Fetcher: f, Workers: 1}, urls)
	if len(res) != len(urls) {
		t.Fatalf("results = %d", len(res))
	}
	for _, r := range res {
		if r.Error == "" {
			t.Fatalf("expected every url canceled, got %+v", r)
		}
	}
	if len(f.calls) != 0 {
		t.Fatalf("fetcher called after cancel: %v", f.calls)
	}
}

func TestSettledDoesNotRefetchFailures(t *testing.T) {
	f := &countingFetcher{calls: map[string]int{}, fail: map[string]bool{"bad.png": true}}
	res := Prefetch(context.Background(), Config{Fetcher: f, Workers: 2}, []string{"a.png", "bad.png"})

	s := Settled(f, res)
	if _, err := s.Fetch(context.Background(), "bad.png"); err == nil || err.Error() != "boom" {
		t.Fatalf("err = %v, want the prefetch error", err)
	}
	if p, err := s.Fetch(context.Background(), "a.png"); err != nil || p != "/cache/a.png" {
		t.Fatalf("a.png = %q, %v", p, err)
	}
	if f.calls["bad.png"] != 1 {
		t.Fatalf("bad.png fetched %d times, want 1", f.calls["bad.png"])
	}
	if f.calls["a.png"] != 2 {
		t.Fatalf("a.png fetched %d times, want delegation after prefetch", f.calls["a.png"])
	}
}
