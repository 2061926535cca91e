package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNoWorkbook is returned when a directory holds no workbook
var ErrNoWorkbook = errors.New("no workbook found")

// workbookExtensions are the formats the ingest pipeline reads
var workbookExtensions = map[string]bool{
	".xlsx": true,
	".xls":  true,
	".csv":  true,
}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// FindWorkbooks lists the movement workbooks in dir, oldest first. Office
// lock files ("~$name.xlsx") and empty files are skipped.
func FindWorkbooks(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasPrefix(name, "~$") || !workbookExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}

		info, err := entry.Info()
		if err != nil || info.Size() == 0 {
			continue
		}

		files = append(files, FileInfo{
			Path:    filepath.Join(dir, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].ModTime.Before(files[j].ModTime)
	})
	return files, nil
}

// GetLatestFile returns the most recently modified file from a list
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.ModTime.After(latest.ModTime) {
			latest = file
		}
	}
	return latest, true
}

// ResolveWorkbook returns path unchanged when it names a file, and the most
// recently modified workbook inside it when it names a directory.
func ResolveWorkbook(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return path, nil
	}

	found, err := FindWorkbooks(path)
	if err != nil {
		return "", err
	}
	latest, ok := GetLatestFile(found)
	if !ok {
		return "", fmt.Errorf("%w in %s", ErrNoWorkbook, path)
	}
	return latest.Path, nil
}
