package registry

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, f := range names {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("{}"), 0o644); err != nil {
			t.Fatalf("write temp file: %v", err)
		}
	}
}

func TestLoadDirFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir,
		"microbiota_model_samp_S2.json",
		"microbiota_model_samp_S1.YAML",
		"microbiota_model_samp_S3.yml",
		"diet.txt",
		".hidden.json",
	)
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0o755); err != nil {
		t.Fatal(err)
	}
	samples, err := LoadDir(dir, "microbiota_model_samp_")
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	want := []string{"S1", "S2", "S3"}
	if len(samples) != len(want) {
		t.Fatalf("expected %d samples, got %+v", len(want), samples)
	}
	for i, s := range samples {
		if s.ID != want[i] {
			t.Fatalf("sample %d = %q, want %q", i, s.ID, want[i])
		}
		if !filepath.IsAbs(s.Path) {
			t.Fatalf("path not absolute: %s", s.Path)
		}
	}
}

func TestLoadDirDuplicateID(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.json", "a.yaml")
	if _, err := LoadDir(dir, ""); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestLoadDirExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir on this platform: %v", err)
	}
	hTmp, err := os.MkdirTemp(home, "fluxpipe-registry-*")
	if err != nil {
		t.Skipf("cannot create temp under home: %v", err)
	}
	defer os.RemoveAll(hTmp)
	touch(t, hTmp, "x.json")
	var tildePath string
	if runtime.GOOS == "windows" {
		tildePath = filepath.Join("~", filepath.Base(hTmp))
	} else {
		tildePath = "~/" + filepath.Base(hTmp)
	}
	samples, err := LoadDir(tildePath, "")
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if len(samples) != 1 || samples[0].ID != "x" {
		t.Fatalf("unexpected samples: %+v", samples)
	}
}

func TestLoadDirMissing(t *testing.T) {
	if _, err := LoadDir(filepath.Join(t.TempDir(), "nope"), ""); err == nil {
		t.Fatal("expected error for missing dir")
	}
}
