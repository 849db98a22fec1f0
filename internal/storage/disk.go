package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// UsageBytes returns the on-disk size of the SQLite database at dbPath,
// including its WAL and shared-memory files, plus every extra path (a file or
// a directory such as the canned-response index). Missing paths count as zero.
func UsageBytes(dbPath string, extra ...string) (int64, error) {
	paths := append([]string{dbPath, dbPath + "-wal", dbPath + "-shm"}, extra...)
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		err := filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
			return nil
		})
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return 0, err
		}
	}
	return total, nil
}
