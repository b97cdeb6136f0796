// Package stats computes frequency statistics over annotated tables.
package stats

import (
	"fmt"
	"io"
	"sort"

	"github.com/japaniel/headliner/pkg/table"
)

// EntityCount is one ranked entity text.
type EntityCount struct {
	Text  string
	Count int
}

// TopEntities returns the k most frequent entity texts across all rows,
// ignoring labels. Equal counts keep the order in which the texts were
// first seen. Unannotated tables yield no entities.
func TopEntities(t *table.Table, k int) []EntityCount {
	if k <= 0 || t == nil || !t.Annotated {
		return nil
	}

	// Insertion-ordered counter.
	index := make(map[string]int)
	var counts []EntityCount
	for _, row := range t.Rows {
		for _, ent := range row.Entities {
			i, ok := index[ent.Text]
			if !ok {
				i = len(counts)
				index[ent.Text] = i
				counts = append(counts, EntityCount{Text: ent.Text})
			}
			counts[i].Count++
		}
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if len(counts) > k {
		counts = counts[:k]
	}
	return counts
}

// Report prints the ranking produced by TopEntities.
func Report(w io.Writer, top []EntityCount, k int) {
	if len(top) == 0 {
		fmt.Fprintln(w, "\nNo entities found.")
		return
	}
	fmt.Fprintf(w, "\nTop %d Entities Found in Headlines:\n", k)
	for _, e := range top {
		fmt.Fprintf(w, "   - %s: %d\n", e.Text, e.Count)
	}
}
