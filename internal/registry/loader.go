package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gamelaunch/internal/common/fsutil"
	"gamelaunch/internal/manifest"
	"gamelaunch/pkg/types"
)

// Scanner discovers installed versions under a versions directory.
type Scanner interface {
	Scan(versionsDir string) ([]types.InstalledVersion, error)
}

// DescriptorScanner treats <dir>/<id>/<id>.json as an installed version.
type DescriptorScanner struct{}

// NewDescriptorScanner returns the default Scanner.
func NewDescriptorScanner() Scanner { return DescriptorScanner{} }

// Scan lists versions sorted by id. Directories without a descriptor, or
// with one that does not parse, are skipped. A missing versions directory
// yields an empty list.
func (DescriptorScanner) Scan(versionsDir string) ([]types.InstalledVersion, error) {
	base, err := fsutil.ExpandHome(versionsDir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var out []types.InstalledVersion
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id := e.Name()
		d, err := manifest.Load(abs, id)
		if err != nil {
			continue
		}
		out = append(out, types.InstalledVersion{
			ID:           id,
			Type:         d.Type,
			InheritsFrom: d.InheritsFrom,
			Path:         manifest.DescriptorPath(abs, id),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// LoadDir scans <root>/versions with the default scanner.
func LoadDir(root string) ([]types.InstalledVersion, error) {
	return NewDescriptorScanner().Scan(filepath.Join(root, "versions"))
}
