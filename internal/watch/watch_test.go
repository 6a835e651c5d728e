package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tesselslate/xmacro/internal/watch"
)

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.xmacro")
	if err := os.WriteFile(path, []byte("KeySym a\n"), 0644); err != nil {
		t.Fatal(err)
	}
	w, err := watch.NewWatcher(path, 10*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Watch(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	// Writes to other files in the directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-w.Updates:
		t.Fatal("got update for another file")
	case <-time.After(100 * time.Millisecond):
	}

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("KeySym b\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case <-w.Updates:
	case err := <-w.Errors:
		t.Fatal(err)
	case <-time.After(2 * time.Second):
		t.Fatal("no update after write")
	}
}
