package reaper

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// sweepScratch removes scratch-directory files older than orphanAge and
// any directory left empty afterward, regardless of the directory's own
// age, per §4.8 step 3. It returns the count of files removed.
func sweepScratch(scratchDir string, now time.Time) (int, []error) {
	entries, err := os.ReadDir(scratchDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, []error{fmt.Errorf("read scratch dir: %w", err)}
	}

	var errs []error
	removed := 0
	for _, entry := range entries {
		full := filepath.Join(scratchDir, entry.Name())
		if entry.IsDir() {
			n, subErrs := sweepScratch(full, now)
			removed += n
			errs = append(errs, subErrs...)
			if isEmptyDir(full) {
				if err := os.Remove(full); err != nil {
					errs = append(errs, fmt.Errorf("remove empty dir %s: %w", full, err))
				}
			}
			continue
		}

		info, err := entry.Info()
		if err != nil {
			errs = append(errs, fmt.Errorf("stat %s: %w", full, err))
			continue
		}
		if now.Sub(info.ModTime()) < orphanAge {
			continue
		}
		if err := os.Remove(full); err != nil {
			errs = append(errs, fmt.Errorf("remove orphan %s: %w", full, err))
			continue
		}
		removed++
	}
	return removed, errs
}

func isEmptyDir(path string) bool {
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) == 0
}
