package verify

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gamelaunch/internal/rules"
	"gamelaunch/pkg/types"
)

// metadataPrefix is always skipped when unpacking native bundles.
const metadataPrefix = "META-INF/"

// NativeArtifact returns the classifier artifact of lib for platform p, with
// ${arch} in the classifier key replaced by 32 or 64.
func NativeArtifact(lib types.Library, p rules.Platform) (*types.Artifact, string, bool) {
	key, ok := lib.Natives[p.OS]
	if !ok || lib.Downloads == nil {
		return nil, "", false
	}
	key = strings.ReplaceAll(key, "${arch}", p.Bits())
	a, ok := lib.Downloads.Classifiers[key]
	if !ok {
		return nil, key, false
	}
	return &a, key, true
}

// Unpack extracts every non-directory entry of the zip archive at src into
// dest, skipping META-INF/ and the given exclude prefixes. Entries resolving
// outside dest are rejected. It returns the number of files written.
func Unpack(src, dest string, exclude []string) (int, error) {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", src, err)
	}
	defer zr.Close()
	root, err := filepath.Abs(dest)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() || skipEntry(zf.Name, exclude) {
			continue
		}
		target := filepath.Join(root, filepath.FromSlash(zf.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return n, fmt.Errorf("entry %q escapes %s", zf.Name, root)
		}
		if err := extractFile(zf, target); err != nil {
			return n, fmt.Errorf("extract %s: %w", zf.Name, err)
		}
		n++
	}
	return n, nil
}

func skipEntry(name string, exclude []string) bool {
	if strings.HasPrefix(name, metadataPrefix) {
		return true
	}
	for _, ex := range exclude {
		if ex != "" && strings.HasPrefix(name, ex) {
			return true
		}
	}
	return false
}

func extractFile(zf *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
