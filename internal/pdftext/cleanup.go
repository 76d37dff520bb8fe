package pdftext

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	httpTempPrefix = "finfinder-dl-"
	s3TempPrefix   = "finfinder-s3-"
)

// CleanupTemps removes files in dir whose names start with one of prefixes
// and that are older than maxAge. With no prefixes it targets the download
// temp files created by Resolver. Returns the number of files removed.
func CleanupTemps(dir string, maxAge time.Duration, prefixes ...string) int {
	if len(prefixes) == 0 {
		prefixes = []string{httpTempPrefix, s3TempPrefix}
	}
	now := time.Now()
	removed := 0
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		if !hasAnyPrefix(info.Name(), prefixes) {
			return nil
		}
		if now.Sub(info.ModTime()) >= maxAge {
			if os.Remove(path) == nil {
				removed++
			}
		}
		return nil
	})
	return removed
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
