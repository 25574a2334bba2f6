package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/DerekChan65535/pygrays-api/internal/config"
)

// FileInfo represents information about a discovered source file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery locates report source files for the batch entry points.
// Relative directories resolve against the base path.
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance. An empty base
// path resolves relative directories against the working directory.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindAgingExtracts finds the state extracts in the specified directory,
// sorted by name so sheet order stays deterministic across runs.
func (d *Discovery) FindAgingExtracts(dir string) ([]FileInfo, error) {
	files, err := d.FindFilesByPattern(dir, config.AgingExtractPrefix+"*.csv")
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// FindCSVFiles finds all CSV files in the specified directory
func (d *Discovery) FindCSVFiles(dir string) ([]FileInfo, error) {
	return d.findByExtension(dir, config.CSVExtensions)
}

// FindWorkbookFiles finds all spreadsheet workbooks in the specified
// directory, skipping editor temp files.
func (d *Discovery) FindWorkbookFiles(dir string) ([]FileInfo, error) {
	return d.findByExtension(dir, config.WorkbookExtensions)
}

// FindFilesByPattern finds files matching a glob pattern
func (d *Discovery) FindFilesByPattern(dir string, pattern string) ([]FileInfo, error) {
	searchPattern := filepath.Join(d.resolve(dir), pattern)

	matches, err := filepath.Glob(searchPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	var files []FileInfo
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, FileInfo{
			Path:    match,
			Name:    filepath.Base(match),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	return files, nil
}

func (d *Discovery) findByExtension(dir string, extensions []string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasPrefix(name, "~$") {
			continue
		}

		ext := strings.ToLower(filepath.Ext(name))
		keep := false
		for _, allowed := range extensions {
			if ext == allowed {
				keep = true
				break
			}
		}
		if !keep {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

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

func (d *Discovery) resolve(dir string) string {
	if dir == "" {
		dir = "."
	}
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}
