// Package archive bundles generated workbooks into the ZIP artifacts
// the report endpoints hand back, and owns the canonical artifact
// naming scheme.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"

	"github.com/DerekChan65535/pygrays-api/pkg/contracts/domain"
)

// Bundle writes the artifacts into one deflate ZIP in the given order.
// Entry order is part of the output contract, so callers sort before
// bundling.
func Bundle(artifacts []domain.FileArtifact) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, a := range artifacts {
		entry, err := w.Create(a.Name)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("add archive entry %q: %w", a.Name, err)
		}
		if _, err := entry.Write(a.Content); err != nil {
			w.Close()
			return nil, fmt.Errorf("write archive entry %q: %w", a.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// EntryName builds the canonical workbook entry name
// <DocumentType>_<YYYYMMDD>[-<variant>].xlsx.
func EntryName(doc domain.DocumentType, date time.Time, variant string) string {
	name := fmt.Sprintf("%s_%s", doc, date.Format("20060102"))
	if variant != "" {
		name += "-" + variant
	}
	return name + ".xlsx"
}

// Name builds the canonical archive name
// [prefix]<DocumentType>_Reports_<YYYYMMDD>.zip.
func Name(prefix string, doc domain.DocumentType, date time.Time) string {
	return fmt.Sprintf("%s%s_Reports_%s.zip", prefix, doc, date.Format("20060102"))
}
