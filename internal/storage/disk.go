// Package storage reports disk usage of the persisted artifacts (dataset,
// catalog/matrix pair, credential database, title index).
package storage

import (
	"io/fs"
	"os"
	"path/filepath"
)

// UsageBytes sums the on-disk size of the given paths. A path may be a file
// or a directory (summed recursively, the title index is a bleve directory).
// Empty and missing paths contribute 0.
func UsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
			continue
		}
		err = filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			total += fi.Size()
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
