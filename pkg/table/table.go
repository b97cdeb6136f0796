// Package table holds the in-memory headline table and its CSV/TSV/XLSX I/O.
package table

import (
	"github.com/japaniel/headliner/pkg/nlp"
)

// Column names with fixed meaning. All other columns pass through untouched.
const (
	TitleColumn    = "title"
	EntitiesColumn = "entities"
	POSTagsColumn  = "pos_tags"
)

// Row is one headline. Fields holds every original cell by header name,
// including the title; Title is a typed copy of Fields["title"].
type Row struct {
	Title    string
	Entities []nlp.Entity
	POSTags  []nlp.TaggedToken
	Fields   map[string]string
}

// Table is an ordered set of rows sharing one header.
type Table struct {
	Header []string
	Rows   []*Row
	// Annotated is set once every row carries Entities and POSTags.
	Annotated bool
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Columns returns the header that Save will write.
func (t *Table) Columns() []string {
	cols := make([]string, len(t.Header), len(t.Header)+2)
	copy(cols, t.Header)
	if !t.Annotated {
		return cols
	}
	for _, name := range []string{EntitiesColumn, POSTagsColumn} {
		if !contains(cols, name) {
			cols = append(cols, name)
		}
	}
	return cols
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
