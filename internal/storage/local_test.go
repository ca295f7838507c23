package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestNewLocalStorage(t *testing.T) {
	t.Run("creates directory if not exists", func(t *testing.T) {
		tempDir := filepath.Join(t.TempDir(), "nested", "versevideo")

		storage, err := NewLocalStorage(tempDir)
		if err != nil {
			t.Fatalf("NewLocalStorage() error = %v", err)
		}

		if storage.TempDir() != tempDir {
			t.Errorf("TempDir() = %v, want %v", storage.TempDir(), tempDir)
		}

		info, err := os.Stat(tempDir)
		if err != nil {
			t.Fatalf("directory not created: %v", err)
		}
		if !info.IsDir() {
			t.Error("expected directory, got file")
		}
	})

	t.Run("uses default directory when empty", func(t *testing.T) {
		storage, err := NewLocalStorage("")
		if err != nil {
			t.Fatalf("NewLocalStorage() error = %v", err)
		}

		expected := filepath.Join(os.TempDir(), "versevideo")
		if storage.TempDir() != expected {
			t.Errorf("TempDir() = %v, want %v", storage.TempDir(), expected)
		}
	})
}

func TestLocalStorage_Reserve(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	t.Run("creates empty file", func(t *testing.T) {
		path, err := storage.Reserve(ctx, "render-1", ".mp4")
		if err != nil {
			t.Fatalf("Reserve() error = %v", err)
		}

		if want := filepath.Join(storage.TempDir(), "render-1.mp4"); path != want {
			t.Errorf("Reserve() = %v, want %v", path, want)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("reserved file missing: %v", err)
		}
		if info.Size() != 0 {
			t.Errorf("reserved file size = %d, want 0", info.Size())
		}
	})

	t.Run("never hands out the same path twice", func(t *testing.T) {
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := storage.Reserve(ctx, "render-race", ".mp4"); err == nil {
					mu.Lock()
					successes++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if successes != 1 {
			t.Errorf("successful reservations = %d, want 1", successes)
		}
	})

	t.Run("rejects names with separators", func(t *testing.T) {
		for _, name := range []string{"", "..", "../escape", "a/b"} {
			if _, err := storage.Reserve(ctx, name, ".mp4"); !errors.Is(err, ErrInvalidName) {
				t.Errorf("Reserve(%q) error = %v, want ErrInvalidName", name, err)
			}
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := storage.Reserve(ctx, "render-2", ".mp4")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestLocalStorage_WorkDir(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	dir, err := storage.WorkDir(ctx, "render-1")
	if err != nil {
		t.Fatalf("WorkDir() error = %v", err)
	}
	if !strings.HasPrefix(dir, storage.TempDir()) {
		t.Errorf("work dir %s is outside %s", dir, storage.TempDir())
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("work dir not created: %v", err)
	}

	if _, err := storage.WorkDir(ctx, "render-1"); err == nil {
		t.Error("expected error when the work dir already exists")
	}
}

func TestLocalStorage_SaveTemp(t *testing.T) {
	storage := setupTestStorage(t)

	t.Run("saves data into the work dir", func(t *testing.T) {
		ctx := context.Background()
		dir, err := storage.WorkDir(ctx, "render-save")
		if err != nil {
			t.Fatalf("WorkDir() error = %v", err)
		}

		path, err := storage.SaveTemp(ctx, dir, "segment-000.txt", bytes.NewReader([]byte("In the beginning")))
		if err != nil {
			t.Fatalf("SaveTemp() error = %v", err)
		}
		if path != filepath.Join(dir, "segment-000.txt") {
			t.Errorf("path = %s, want it inside %s", path, dir)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read saved file: %v", err)
		}
		if string(content) != "In the beginning" {
			t.Errorf("got %q, want %q", string(content), "In the beginning")
		}
	})

	t.Run("resolves relative dirs under the temp dir", func(t *testing.T) {
		path, err := storage.SaveTemp(context.Background(), "", "request.json", strings.NewReader("{}"))
		if err != nil {
			t.Fatalf("SaveTemp() error = %v", err)
		}
		if path != filepath.Join(storage.TempDir(), "request.json") {
			t.Errorf("path = %s, want it inside %s", path, storage.TempDir())
		}
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		ctx := context.Background()
		if _, err := storage.SaveTemp(ctx, "", "twice.txt", strings.NewReader("a")); err != nil {
			t.Fatalf("SaveTemp() error = %v", err)
		}
		if _, err := storage.SaveTemp(ctx, "", "twice.txt", strings.NewReader("b")); err == nil {
			t.Error("expected error for an existing file")
		}
	})

	t.Run("rejects names with separators", func(t *testing.T) {
		_, err := storage.SaveTemp(context.Background(), "", "../escape.txt", strings.NewReader("x"))
		if !errors.Is(err, ErrInvalidName) {
			t.Errorf("expected ErrInvalidName, got %v", err)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := storage.SaveTemp(ctx, "", "test", bytes.NewReader([]byte("data")))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestLocalStorage_LoadTemp(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	t.Run("loads saved file", func(t *testing.T) {
		path, err := storage.SaveTemp(ctx, "", "load_test", bytes.NewReader([]byte("load data")))
		if err != nil {
			t.Fatalf("SaveTemp() error = %v", err)
		}

		reader, err := storage.LoadTemp(ctx, path)
		if err != nil {
			t.Fatalf("LoadTemp() error = %v", err)
		}
		defer func() { _ = reader.Close() }()

		content, err := io.ReadAll(reader)
		if err != nil {
			t.Fatalf("failed to read: %v", err)
		}
		if string(content) != "load data" {
			t.Errorf("got %q, want %q", string(content), "load data")
		}
	})

	t.Run("returns error for non-existent file", func(t *testing.T) {
		_, err := storage.LoadTemp(ctx, "/non/existent/file")
		if err == nil {
			t.Error("expected error for non-existent file")
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := storage.LoadTemp(ctx, "/some/path")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestLocalStorage_CleanupTemp(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	t.Run("removes files and directories", func(t *testing.T) {
		artifact, err := storage.Reserve(ctx, "render-clean", ".mp4")
		if err != nil {
			t.Fatalf("Reserve() error = %v", err)
		}
		work, err := storage.WorkDir(ctx, "render-clean")
		if err != nil {
			t.Fatalf("WorkDir() error = %v", err)
		}
		if err := os.WriteFile(filepath.Join(work, "title.txt"), []byte("John"), 0o600); err != nil {
			t.Fatal(err)
		}

		if err := storage.CleanupTemp(ctx, []string{artifact, work, ""}); err != nil {
			t.Fatalf("CleanupTemp() error = %v", err)
		}

		for _, p := range []string{artifact, work} {
			if _, err := os.Stat(p); !os.IsNotExist(err) {
				t.Errorf("path %s still exists", p)
			}
		}
	})

	t.Run("ignores non-existent files", func(t *testing.T) {
		err := storage.CleanupTemp(ctx, []string{"/non/existent/file"})
		if err != nil {
			t.Errorf("CleanupTemp() should ignore non-existent files, got %v", err)
		}
	})

	t.Run("still cleans up after cancellation", func(t *testing.T) {
		path, err := storage.Reserve(ctx, "render-cancelled", ".mp4")
		if err != nil {
			t.Fatalf("Reserve() error = %v", err)
		}

		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		if err := storage.CleanupTemp(cancelled, []string{path}); err != nil {
			t.Fatalf("CleanupTemp() error = %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("file %s still exists", path)
		}
	})
}

func setupTestStorage(t *testing.T) *LocalStorage {
	t.Helper()

	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	return storage
}
