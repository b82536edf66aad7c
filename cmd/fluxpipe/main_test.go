package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"fluxpipe/internal/model/modeltest"
	"fluxpipe/internal/pipeline"
)

func TestSplitCSV(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"a,,c", []string{"a", "c"}},
		{"", nil},
	}
	for _, c := range cases {
		got := splitCSV(c.in)
		if len(got) != len(c.want) {
			t.Fatalf("%q -> %v, want %v", c.in, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("%q -> %v, want %v", c.in, got, c.want)
			}
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger(&buf, "warn", "json")
	if err != nil {
		t.Fatal(err)
	}
	l.Info().Msg("hidden")
	l.Warn().Str("k", "v").Msg("shown")
	if s := buf.String(); strings.Contains(s, "hidden") || !strings.Contains(s, `"k":"v"`) {
		t.Fatalf("unexpected log output %q", s)
	}
	if _, err := newLogger(&buf, "loud", ""); err == nil {
		t.Fatal("expected error for bad level")
	}
	if _, err := newLogger(&buf, "", "xml"); err == nil {
		t.Fatal("expected error for bad format")
	}
}

func TestCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"simulate", "shadow", "fva", "checkpoint"} {
		c, _, err := root.Find([]string{name})
		if err != nil || c.Name() != name {
			t.Fatalf("subcommand %s not found: %v", name, err)
		}
	}
	for _, flag := range []string{"config", "log-level", "log-format"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Fatalf("missing persistent flag --%s", flag)
		}
	}
}

// run executes the command line and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSimulateThenInspectCheckpoint(t *testing.T) {
	dir := t.TempDir()
	models := filepath.Join(dir, "models")
	if err := os.MkdirAll(models, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"S1", "S2"} {
		modeltest.WriteJSON(t, models, "microbiota_model_samp_"+id, modeltest.Community(id))
	}
	dietPath := filepath.Join(dir, "diet.txt")
	if err := os.WriteFile(dietPath, []byte("EX_glc_D(e)\t5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	results := filepath.Join(dir, "results")

	if _, err := run(t, "simulate",
		"--models-dir", models,
		"--sample-prefix", "microbiota_model_samp_",
		"--diet", dietPath,
		"--results-dir", results,
		"--workers", "2",
	); err != nil {
		t.Fatalf("simulate: %v", err)
	}
	growth, err := os.ReadFile(filepath.Join(results, pipeline.GrowthFile))
	if err != nil {
		t.Fatalf("growth table: %v", err)
	}
	if !strings.Contains(string(growth), "S1") || !strings.Contains(string(growth), "S2") {
		t.Fatalf("growth table missing samples:\n%s", growth)
	}
	if _, err := os.Stat(filepath.Join(results, pipeline.NetProductionFile(pipeline.StageStandard))); err != nil {
		t.Fatalf("net production table: %v", err)
	}

	export := filepath.Join(dir, "export")
	out, err := run(t, "checkpoint", "--path", filepath.Join(results, "checkpoint.json"), "--export", export)
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	if !strings.Contains(out, "2 done") || !strings.Contains(out, "last sample: S2") {
		t.Fatalf("unexpected checkpoint output:\n%s", out)
	}
	exported, err := os.ReadFile(filepath.Join(export, pipeline.GrowthFile))
	if err != nil || !bytes.Equal(exported, growth) {
		t.Fatalf("exported growth table differs: %v", err)
	}
}

func TestCheckpointMissing(t *testing.T) {
	if _, err := run(t, "checkpoint", "--path", filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Fatal("expected error for missing checkpoint")
	}
}

func TestSimulateRequiresModelsDir(t *testing.T) {
	if _, err := run(t, "simulate", "--results-dir", t.TempDir()); err == nil || !strings.Contains(err.Error(), "models_dir") {
		t.Fatalf("err = %v", err)
	}
}

func TestShadowToStdoutAndDir(t *testing.T) {
	dir := t.TempDir()
	p := modeltest.WriteJSON(t, dir, "linear", modeltest.Linear())

	out, err := run(t, "shadow", "--objectives", "BIOMASS,missing", "--filter", "negative", "--workers", "1", p)
	if err != nil {
		t.Fatalf("shadow: %v", err)
	}
	for _, want := range []string{"metabolite\tobjective\tlinear", "A_c\tBIOMASS\t-", "objective\tlinear\nBIOMASS\t"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	outDir := filepath.Join(dir, "shadow")
	if _, err := run(t, "shadow", "--objectives", "BIOMASS", "--out", outDir, p); err != nil {
		t.Fatalf("shadow --out: %v", err)
	}
	for _, name := range []string{ShadowPricesFile, ObjectiveValuesFile} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}

	if _, err := run(t, "shadow", "--objectives", "BIOMASS", "--filter", "sideways", p); err == nil {
		t.Fatal("expected error for bad filter")
	}
}

func TestFVAPrintsRanges(t *testing.T) {
	p := modeltest.WriteJSON(t, t.TempDir(), "linear", modeltest.Linear())
	out, err := run(t, "fva", "--reactions", "EX_A,BIOMASS", p)
	if err != nil {
		t.Fatalf("fva: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || lines[0] != "reaction\tmin\tmax" {
		t.Fatalf("unexpected output:\n%s", out)
	}
	fields := strings.Split(lines[2], "\t")
	if fields[0] != "BIOMASS" {
		t.Fatalf("row order: %v", lines)
	}
	for _, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || v < 10-1e-6 || v > 10+1e-6 {
			t.Fatalf("BIOMASS range %v", fields)
		}
	}
}
