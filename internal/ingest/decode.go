// Package ingest reads the delimited text and workbook files the report
// services receive as uploads and turns them into typed records. Text
// decoding, delimiter detection and schema coercion all live here so the
// services deal only in schema.Record values.
package ingest

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText converts raw upload bytes to UTF-8 text. It tries UTF-8
// with a BOM, then plain UTF-8, then falls back to ISO 8859-1, which
// accepts any byte sequence. Legacy extracts from the finance systems
// still arrive in single-byte encodings.
func DecodeText(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("empty file")
	}
	if bytes.HasPrefix(raw, utf8BOM) {
		trimmed := raw[len(utf8BOM):]
		if utf8.Valid(trimmed) {
			return string(trimmed), nil
		}
	}
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(decoded), nil
}

// DetectDelimiter picks comma or tab by counting both in the first
// non-empty line. Tab wins only when it is strictly more frequent, so a
// plain CSV with no tabs always reads as comma-separated.
func DetectDelimiter(text string) rune {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		if strings.Count(line, "\t") > strings.Count(line, ",") {
			return '\t'
		}
		return ','
	}
	return ','
}
