package table

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Save writes t as CSV to path, replacing any existing file. The file is
// written to a temporary sibling first and renamed into place, so a failed
// save leaves no partial output behind.
func Save(t *Table, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &IOFailureError{Path: path, Err: err}
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := Write(tmp, t); err != nil {
		return &IOFailureError{Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &IOFailureError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &IOFailureError{Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return &IOFailureError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &IOFailureError{Path: path, Err: err}
	}
	committed = true
	return nil
}

// Write serialises t as CSV to w.
func Write(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	cols := t.Columns()
	if err := cw.Write(cols); err != nil {
		return err
	}

	record := make([]string, len(cols))
	for i, row := range t.Rows {
		for j, name := range cols {
			cell, err := row.cell(name, t.Annotated)
			if err != nil {
				return fmt.Errorf("row %d column %s: %w", i+1, name, err)
			}
			record[j] = cell
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (r *Row) cell(name string, annotated bool) (string, error) {
	if annotated {
		switch name {
		case EntitiesColumn:
			return EncodePairs(r.Entities)
		case POSTagsColumn:
			return EncodePairs(r.POSTags)
		}
	}
	return r.Fields[name], nil
}

// EncodePairs renders a list of pairs as a JSON array of two-element arrays.
// A nil or empty list encodes as "[]".
func EncodePairs[T any](pairs []T) (string, error) {
	if len(pairs) == 0 {
		return "[]", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(pairs); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// DecodePairs parses a cell written by EncodePairs.
func DecodePairs(cell string) ([][2]string, error) {
	var pairs [][2]string
	if err := json.Unmarshal([]byte(cell), &pairs); err != nil {
		return nil, fmt.Errorf("decode pairs: %w", err)
	}
	return pairs, nil
}
