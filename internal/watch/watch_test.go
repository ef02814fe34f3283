package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRunFiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	save := filepath.Join(dir, "TS_Save_1.json")
	if err := os.WriteFile(save, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := New(save, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fired := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) error {
			fired <- struct{}{}
			return errors.New("logged, not fatal")
		})
	}()

	// Unrelated files in the same directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-fired:
		t.Fatalf("fired for an unrelated file")
	case <-time.After(200 * time.Millisecond):
	}

	for i := 0; i < 2; i++ {
		if err := os.WriteFile(save, []byte(`{"SaveName":"x"}`), 0644); err != nil {
			t.Fatal(err)
		}
		select {
		case <-fired:
		case <-time.After(5 * time.Second):
			t.Fatalf("no rebuild after write %d", i)
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v", err)
	}
}

func TestNewMissingDir(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "no", "such", "save.json"), 0, nil); err == nil {
		t.Fatalf("expected error for a missing directory")
	}
}
