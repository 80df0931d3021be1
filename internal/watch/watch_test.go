package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func newWatcher(t *testing.T) *Watcher {
	t.Helper()
	w, err := New(20*time.Millisecond, nil)
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func touch(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestWaitReportsWatchedFile(t *testing.T) {
	dir := t.TempDir()
	shader := filepath.Join(dir, "compute.wgsl")
	touch(t, shader, "a")

	w := newWatcher(t)
	if err := w.Set(shader); err != nil {
		t.Fatal(err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o600)
		_ = os.WriteFile(shader, []byte("b"), 0o600)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got, err := w.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() = %v", err)
	}
	if filepath.Base(got) != "compute.wgsl" {
		t.Errorf("Wait() = %q, want compute.wgsl", got)
	}
}

func TestWaitIgnoresUnwatched(t *testing.T) {
	dir := t.TempDir()
	shader := filepath.Join(dir, "compute.wgsl")
	touch(t, shader, "a")

	w := newWatcher(t)
	if err := w.Set(shader); err != nil {
		t.Fatal(err)
	}
	touch(t, filepath.Join(dir, "other.wgsl"), "x")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if got, err := w.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() = %q, %v; want deadline exceeded", got, err)
	}
}

func TestSetReplacesFiles(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	fa, fb := filepath.Join(a, "a.wgsl"), filepath.Join(b, "b.wgsl")
	touch(t, fa, "")
	touch(t, fb, "")

	w := newWatcher(t)
	if err := w.Set(fa, fb); err != nil {
		t.Fatal(err)
	}
	if w.Files() != 2 || len(w.dirs) != 2 {
		t.Fatalf("files %d dirs %d", w.Files(), len(w.dirs))
	}
	if err := w.Set(fb); err != nil {
		t.Fatal(err)
	}
	if w.Files() != 1 || len(w.dirs) != 1 {
		t.Errorf("after replace: files %d dirs %d", w.Files(), len(w.dirs))
	}

	if err := w.Set(filepath.Join(a, "missing", "x.wgsl")); err == nil {
		t.Error("Set() on a missing directory succeeded")
	}
}

func TestLoopRerunsOnChange(t *testing.T) {
	dir := t.TempDir()
	shader := filepath.Join(dir, "compute.wgsl")
	touch(t, shader, "a")

	w := newWatcher(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var runs atomic.Int32
	run := func(context.Context) {
		switch runs.Add(1) {
		case 1:
			go func() {
				time.Sleep(50 * time.Millisecond)
				_ = os.WriteFile(shader, []byte("b"), 0o600)
			}()
		case 2:
			cancel()
		}
	}
	if err := Loop(ctx, w, func() []string { return []string{shader} }, run); err != nil {
		t.Fatalf("Loop() = %v", err)
	}
	if n := runs.Load(); n != 2 {
		t.Errorf("runs = %d, want 2", n)
	}
}

func TestWaitAfterClose(t *testing.T) {
	w, err := New(time.Millisecond, nil)
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	_ = w.Close()
	if _, err := w.Wait(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Wait() after Close = %v, want ErrClosed", err)
	}
}
