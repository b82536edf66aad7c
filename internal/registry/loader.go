package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fluxpipe/internal/common/fsutil"
	"fluxpipe/pkg/types"
)

var modelExts = map[string]bool{".json": true, ".yaml": true, ".yml": true}

// LoadDir scans a directory for model files (*.json, *.yaml, *.yml) and
// builds the sample list sorted by id. The sample ID is the file name without
// extension and without prefix; Path is the absolute file path. Two files
// mapping to the same id are an error.
func LoadDir(dir, prefix string) ([]types.Sample, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var samples []types.Sample
	seen := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if !modelExts[strings.ToLower(ext)] || strings.HasPrefix(name, ".") {
			continue
		}
		id := strings.TrimPrefix(strings.TrimSuffix(name, ext), prefix)
		if id == "" {
			continue
		}
		if prev, dup := seen[id]; dup {
			return nil, fmt.Errorf("sample %q found in both %s and %s", id, prev, name)
		}
		seen[id] = name
		samples = append(samples, types.Sample{ID: id, Path: filepath.Join(abs, name)})
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].ID < samples[j].ID })
	return samples, nil
}
