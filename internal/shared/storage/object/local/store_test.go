package local

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestSaveOpenDelete(t *testing.T) {
	base := t.TempDir()
	store := New(base)
	ctx := context.Background()

	payload := []byte("PK\x03\x04 odt body")
	key, size, _, err := store.Save(ctx, "cv-1", "cv.odt", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if size != int64(len(payload)) {
		t.Fatalf("expected size %d, got %d", len(payload), size)
	}
	if !strings.HasSuffix(key, "_cv.odt") {
		t.Fatalf("unexpected key %q", key)
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()
	if !bytes.Equal(got, payload) {
		t.Fatalf("unexpected content %q", got)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, key)); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected object removed, stat err %v", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
}

func TestDeleteKeepsSharedNamespace(t *testing.T) {
	base := t.TempDir()
	store := New(base)
	ctx := context.Background()

	first, _, _, err := store.Save(ctx, "cv-1", "cv.odt", strings.NewReader("a"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, _, _, err := store.Save(ctx, "cv-1", "cv.odt", strings.NewReader("b"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct keys")
	}
	if err := store.Delete(ctx, first); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, second)); err != nil {
		t.Fatalf("expected second object to remain: %v", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestSaveRemovesPartialFile(t *testing.T) {
	base := t.TempDir()
	store := New(base)

	if _, _, _, err := store.Save(context.Background(), "cv-1", "cv.odt", failingReader{}); err == nil {
		t.Fatalf("expected error")
	}
	var files int
	_ = filepath.WalkDir(base, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			files++
		}
		return nil
	})
	if files != 0 {
		t.Fatalf("expected no files left, got %d", files)
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Open(context.Background(), "../etc/passwd"); err == nil {
		t.Fatalf("expected error for traversal key")
	}
	if err := store.Delete(context.Background(), "../x"); err == nil {
		t.Fatalf("expected error for traversal key")
	}
}

func TestSaveRejectsBadName(t *testing.T) {
	store := New(t.TempDir())
	if _, _, _, err := store.Save(context.Background(), "cv-1", "../cv.odt", strings.NewReader("x")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestConcurrentSaveDeleteSameOwner(t *testing.T) {
	base := t.TempDir()
	store := New(base)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers*20)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				key, _, _, err := store.Save(ctx, "cv-1", "cv.odt", strings.NewReader("PK\x03\x04"))
				if err != nil {
					errs <- err
					return
				}
				if err := store.Delete(ctx, key); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent save/delete: %v", err)
	}
}
