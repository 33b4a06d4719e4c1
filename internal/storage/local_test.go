package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStorage_PutOpenRoundTrip(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := ls.Put(ctx, "inputs/rfm.csv", strings.NewReader("customer_id\nC1\n")); err != nil {
		t.Fatalf("put: %v", err)
	}

	rc, err := ls.Open(ctx, "inputs/rfm.csv")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "customer_id\nC1\n" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestLocalStorage_OpenMissing(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	_, err = ls.Open(context.Background(), "nope.csv")
	if !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("got %v, want ErrObjectNotFound", err)
	}
}

func TestLocalStorage_Exists(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	ok, err := ls.Exists(ctx, "x.csv")
	if err != nil || ok {
		t.Fatalf("exists before put: ok=%v err=%v", ok, err)
	}

	if err := ls.Put(ctx, "x.csv", strings.NewReader("a")); err != nil {
		t.Fatal(err)
	}

	ok, err = ls.Exists(ctx, "x.csv")
	if err != nil || !ok {
		t.Fatalf("exists after put: ok=%v err=%v", ok, err)
	}
}

func TestLocalStorage_AbsolutePathHonored(t *testing.T) {
	dir := t.TempDir()
	ls, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	abs := filepath.Join(dir, "direct.csv")
	if err := ls.Put(ctx, abs, strings.NewReader("direct")); err != nil {
		t.Fatal(err)
	}

	rc, err := ls.Open(ctx, abs)
	if err != nil {
		t.Fatalf("open absolute: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "direct" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestLocalStorage_CancelledContext(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ls.Open(ctx, "x.csv"); err == nil {
		t.Fatal("expected context error")
	}
}
