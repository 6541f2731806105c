package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ParseDocuments decodes intermediate documents from JSON. The input may
// be a single document or an array of documents.
func ParseDocuments(data []byte) ([]*Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty input")
	}
	if trimmed[0] == '[' {
		var recs []*Record
		if err := json.Unmarshal(trimmed, &recs); err != nil {
			return nil, fmt.Errorf("parse record array: %w", err)
		}
		return recs, nil
	}
	var rec Record
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return nil, fmt.Errorf("parse record: %w", err)
	}
	return []*Record{&rec}, nil
}

// ReadFile loads records from a JSON file holding one document or an array.
func ReadFile(path string) ([]*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	recs, err := ParseDocuments(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

// WriteFile writes records to path as an indented JSON array.
func WriteFile(path string, recs []*Record) error {
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
