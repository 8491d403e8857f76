package extract

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

const sourceExt = ".sqlite"

// Source is one database file found under the source root.
type Source struct {
	Database string
	Path     string
}

// Discover finds every *.sqlite file below root. A file's database name is
// its parent directory, or its file stem when it sits directly in root.
func Discover(root string) ([]Source, error) {
	var sources []Source
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), sourceExt) {
			return nil
		}
		sources = append(sources, Source{Database: databaseName(root, path), Path: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].Database != sources[j].Database {
			return sources[i].Database < sources[j].Database
		}
		return sources[i].Path < sources[j].Path
	})
	return sources, nil
}

func databaseName(root, path string) string {
	dir := filepath.Dir(path)
	if filepath.Clean(dir) == filepath.Clean(root) {
		base := filepath.Base(path)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return filepath.Base(dir)
}
