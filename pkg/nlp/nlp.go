// Package nlp wraps a pretrained morphological model behind a small interface
// so the rest of the pipeline can be exercised with a stub.
package nlp

import (
	"encoding/json"
	"strings"
)

// Entity is one named-entity span recognised in a text.
type Entity struct {
	Text  string // Contiguous substring of the analysed text
	Label string // e.g. "PERSON", "GPE", "ORG"
}

// TaggedToken is a single token with its coarse part-of-speech tag.
type TaggedToken struct {
	Text string
	POS  string // Universal tag, e.g. "NOUN", "PUNCT"
}

// MarshalJSON encodes the entity as a ["text","label"] pair.
func (e Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{e.Text, e.Label})
}

// MarshalJSON encodes the token as a ["text","pos"] pair.
func (t TaggedToken) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{t.Text, t.POS})
}

// Doc is the result of analysing one text.
type Doc struct {
	Entities []Entity
	Tokens   []TaggedToken
}

// Model runs inference over a text. Implementations must be safe for
// concurrent use once constructed.
type Model interface {
	Analyze(text string) (Doc, error)
}

// ModelFunc adapts a plain function to the Model interface.
type ModelFunc func(text string) (Doc, error)

// Analyze calls f(text).
func (f ModelFunc) Analyze(text string) (Doc, error) { return f(text) }

// blank reports whether text has no content other than whitespace.
func blank(text string) bool { return strings.TrimSpace(text) == "" }

// spaceDoc is the analysis of a blank text: no entities, and a single SPACE
// token unless the text is empty.
func spaceDoc(text string) Doc {
	if text == "" {
		return Doc{}
	}
	return Doc{Tokens: []TaggedToken{{Text: text, POS: "SPACE"}}}
}
