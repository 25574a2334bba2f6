package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFiles(t *testing.T, dir string, names []string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("test content"), 0644))
	}
}

func TestNewDiscovery(t *testing.T) {
	discovery := NewDiscovery("/test/base")

	assert.NotNil(t, discovery)
	assert.Equal(t, "/test/base", discovery.basePath)
}

func TestFindAgingExtracts(t *testing.T) {
	tests := []struct {
		name          string
		files         []string
		expectedNames []string
		description   string
	}{
		{
			name: "extracts sorted by name",
			files: []string{
				"Sales Aged Balance - VIC.csv",
				"Sales Aged Balance - NSW.csv",
				"Sales Aged Balance - QLD.csv",
			},
			expectedNames: []string{
				"Sales Aged Balance - NSW.csv",
				"Sales Aged Balance - QLD.csv",
				"Sales Aged Balance - VIC.csv",
			},
			description: "Should sort extracts alphabetically",
		},
		{
			name: "non-conforming names skipped",
			files: []string{
				"Sales Aged Balance - NSW.csv",
				"summary.csv",
				"Sales Aged Balance - WA.txt",
			},
			expectedNames: []string{"Sales Aged Balance - NSW.csv"},
			description:   "Should keep only prefixed CSV extracts",
		},
		{
			name:          "no extracts",
			files:         []string{"data.csv", "notes.txt"},
			expectedNames: []string{},
			description:   "Should return empty when nothing matches",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			seedFiles(t, dir, tt.files)

			discovery := NewDiscovery("")
			files, err := discovery.FindAgingExtracts(dir)
			assert.NoError(t, err, tt.description)

			names := make([]string, 0, len(files))
			for _, file := range files {
				names = append(names, file.Name)
				assert.NotEmpty(t, file.Path)
				assert.Greater(t, file.Size, int64(0))
				assert.False(t, file.ModTime.IsZero())
			}
			assert.Equal(t, tt.expectedNames, names, tt.description)
		})
	}
}

func TestFindCSVFiles(t *testing.T) {
	tests := []struct {
		name          string
		files         []string
		expectedCount int
		description   string
	}{
		{
			name:          "only CSV files",
			files:         []string{"data1.csv", "data2.CSV", "report.csv"},
			expectedCount: 3,
			description:   "Should find all CSV files regardless of case",
		},
		{
			name:          "mixed file types",
			files:         []string{"data.csv", "report.xlsx", "doc.pdf"},
			expectedCount: 1,
			description:   "Should find only CSV files",
		},
		{
			name:          "empty directory",
			files:         []string{},
			expectedCount: 0,
			description:   "Should handle empty directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			seedFiles(t, dir, tt.files)

			discovery := NewDiscovery("")
			files, err := discovery.FindCSVFiles(dir)
			assert.NoError(t, err, tt.description)
			assert.Len(t, files, tt.expectedCount, tt.description)
		})
	}
}

func TestFindWorkbookFiles(t *testing.T) {
	dir := t.TempDir()
	seedFiles(t, dir, []string{
		"payments.xlsx",
		"legacy.xls",
		"~$payments.xlsx",
		"data.csv",
	})

	discovery := NewDiscovery("")
	files, err := discovery.FindWorkbookFiles(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(files))
	for _, file := range files {
		names = append(names, file.Name)
	}
	assert.ElementsMatch(t, []string{"payments.xlsx", "legacy.xls"}, names)
}

func TestFindFilesByPattern(t *testing.T) {
	tests := []struct {
		name          string
		files         []string
		pattern       string
		expectedCount int
		description   string
	}{
		{
			name:          "wildcard pattern",
			files:         []string{"Deals20260601.txt", "Deals20260602.txt", "other.csv"},
			pattern:       "Deals*.txt",
			expectedCount: 2,
			description:   "Should find files matching wildcard pattern",
		},
		{
			name:          "no matches",
			files:         []string{"file1.txt", "file2.csv"},
			pattern:       "*.log",
			expectedCount: 0,
			description:   "Should return empty when no matches",
		},
		{
			name:          "exact filename pattern",
			files:         []string{"exact.txt", "other.txt"},
			pattern:       "exact.txt",
			expectedCount: 1,
			description:   "Should find exact filename match",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			seedFiles(t, dir, tt.files)

			discovery := NewDiscovery("")
			files, err := discovery.FindFilesByPattern(dir, tt.pattern)
			assert.NoError(t, err, tt.description)
			assert.Len(t, files, tt.expectedCount, tt.description)
		})
	}
}

func TestDiscoveryRelativePaths(t *testing.T) {
	base := t.TempDir()
	sub := filepath.Join(base, "extracts")
	require.NoError(t, os.MkdirAll(sub, 0755))
	seedFiles(t, sub, []string{"Sales Aged Balance - NSW.csv"})

	discovery := NewDiscovery(base)
	files, err := discovery.FindAgingExtracts("extracts")
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestGetLatestFile(t *testing.T) {
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	files := []FileInfo{
		{Name: "old.csv", ModTime: base},
		{Name: "latest.csv", ModTime: base.Add(48 * time.Hour)},
		{Name: "middle.csv", ModTime: base.Add(24 * time.Hour)},
	}

	latest, found := GetLatestFile(files)
	assert.True(t, found)
	assert.Equal(t, "latest.csv", latest.Name)

	_, found = GetLatestFile(nil)
	assert.False(t, found)
}

func TestLoadAndWriteArtifact(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "statement.csv")
	require.NoError(t, os.WriteFile(source, []byte("a,b,c\n"), 0644))

	artifact, err := LoadArtifact(source)
	require.NoError(t, err)
	assert.Equal(t, "statement.csv", artifact.Name)
	assert.Equal(t, []byte("a,b,c\n"), artifact.Content)

	outDir := filepath.Join(dir, "out", "nested")
	path, err := WriteArtifact(outDir, artifact)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "statement.csv"), path)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, artifact.Content, written)
}

func TestLoadArtifacts(t *testing.T) {
	dir := t.TempDir()
	seedFiles(t, dir, []string{"one.csv", "two.csv"})

	infos := []FileInfo{
		{Path: filepath.Join(dir, "two.csv"), Name: "two.csv"},
		{Path: filepath.Join(dir, "one.csv"), Name: "one.csv"},
	}

	artifacts, err := LoadArtifacts(infos)
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
	assert.Equal(t, "two.csv", artifacts[0].Name)
	assert.Equal(t, "one.csv", artifacts[1].Name)

	_, err = LoadArtifacts([]FileInfo{{Path: filepath.Join(dir, "missing.csv")}})
	assert.Error(t, err)
}

func TestDiscoveryErrorHandling(t *testing.T) {
	discovery := NewDiscovery("")

	t.Run("non-existent directory", func(t *testing.T) {
		_, err := discovery.FindCSVFiles("/non/existent/directory")
		assert.Error(t, err)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := discovery.FindFilesByPattern(t.TempDir(), "[invalid")
		assert.Error(t, err)
	})
}
