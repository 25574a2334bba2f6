package files

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/DerekChan65535/pygrays-api/pkg/contracts/domain"
)

// LoadArtifact reads a file into the in-memory form the report services
// consume. The artifact name is the base name of the path.
func LoadArtifact(path string) (domain.FileArtifact, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.FileArtifact{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return domain.FileArtifact{Name: filepath.Base(path), Content: content}, nil
}

// LoadArtifacts reads every discovered file, preserving order.
func LoadArtifacts(infos []FileInfo) ([]domain.FileArtifact, error) {
	artifacts := make([]domain.FileArtifact, 0, len(infos))
	for _, info := range infos {
		artifact, err := LoadArtifact(info.Path)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, nil
}

// WriteArtifact persists a generated artifact under dir, creating the
// directory if needed, and returns the written path.
func WriteArtifact(dir string, artifact domain.FileArtifact) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, artifact.Name)
	if err := os.WriteFile(path, artifact.Content, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
