package checkpoint

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestStores(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name string
		open func() (Store, error)
	}{
		{"file", func() (Store, error) { return NewFileStore(filepath.Join(dir, "run", "checkpoint.json")) }},
		{"sqlite", func() (Store, error) { return NewSQLiteStore(filepath.Join(dir, "db", "checkpoint.db"), "") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			s, err := tc.open()
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			if _, err := s.Load(ctx); !errors.Is(err, ErrNotFound) {
				t.Fatalf("empty Load err = %v, want ErrNotFound", err)
			}
			for _, payload := range []string{`{"next":1}`, `{"next":2}`} {
				if err := s.Save(ctx, []byte(payload)); err != nil {
					t.Fatalf("save: %v", err)
				}
			}
			if err := s.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}

			reopened, err := tc.open()
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			defer reopened.Close()
			got, err := reopened.Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if string(got) != `{"next":2}` {
				t.Fatalf("payload = %s", got)
			}
		})
	}
}

func TestSQLiteNamesAreIndependent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shared.db")
	a, err := NewSQLiteStore(path, "a")
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := NewSQLiteStore(path, "b")
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if err := a.Save(ctx, []byte("A")); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("b saw a's payload: %v", err)
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		driver, path string
		wantFile     bool
		wantErr      bool
	}{
		{"", filepath.Join(dir, "c.json"), true, false},
		{"", filepath.Join(dir, "c.db"), false, false},
		{"file", filepath.Join(dir, "c.sqlite"), true, false},
		{"SQLITE", filepath.Join(dir, "d.bin"), false, false},
		{"postgres", filepath.Join(dir, "x"), false, true},
		{"file", "", false, true},
	}
	for _, tc := range cases {
		s, err := Open(tc.driver, tc.path)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Open(%q, %q) succeeded", tc.driver, tc.path)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Open(%q, %q): %v", tc.driver, tc.path, err)
		}
		_, isFile := s.(*FileStore)
		if isFile != tc.wantFile {
			t.Errorf("Open(%q, %q) = %T", tc.driver, tc.path, s)
		}
		_ = s.Close()
	}
}

func TestCancelledContext(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "c.json"))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Save(ctx, []byte("x")); !errors.Is(err, context.Canceled) {
		t.Fatalf("Save err = %v", err)
	}
}
