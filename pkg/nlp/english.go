package nlp

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
)

// EnglishModelID selects the English tagger and entity extractor from prose.
const EnglishModelID = "en"

// English tags tokens and extracts PERSON/GPE entities using prose's
// averaged-perceptron models, which are embedded in the binary.
type English struct{}

// NewEnglish returns the English model.
func NewEnglish() *English { return &English{} }

// ID returns EnglishModelID.
func (e *English) ID() string { return EnglishModelID }

// Analyze tokenizes text and returns its coarse-tagged tokens and entity spans.
func (e *English) Analyze(text string) (Doc, error) {
	if blank(text) {
		return spaceDoc(text), nil
	}
	pd, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return Doc{}, fmt.Errorf("prose: %w", err)
	}

	var doc Doc
	for _, tok := range pd.Tokens() {
		doc.Tokens = append(doc.Tokens, TaggedToken{Text: tok.Text, POS: pennToCoarse(tok.Tag, tok.Text)})
	}

	cursor := 0
	for _, ent := range pd.Entities() {
		start, end, ok := locate(text, cursor, strings.Fields(ent.Text))
		if !ok {
			continue
		}
		doc.Entities = append(doc.Entities, Entity{Text: text[start:end], Label: ent.Label})
		cursor = end
	}
	return doc, nil
}

// locate finds words in text at or after from, allowing only whitespace
// between consecutive words, and returns the byte span they cover.
func locate(text string, from int, words []string) (int, int, bool) {
	if len(words) == 0 {
		return 0, 0, false
	}
	for search := from; search < len(text); {
		rel := strings.Index(text[search:], words[0])
		if rel < 0 {
			return 0, 0, false
		}
		start := search + rel
		end := start + len(words[0])
		matched := true
		for _, w := range words[1:] {
			rest := text[end:]
			trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
			if !strings.HasPrefix(trimmed, w) {
				matched = false
				break
			}
			end += len(rest) - len(trimmed) + len(w)
		}
		if matched {
			return start, end, true
		}
		search = start + 1
	}
	return 0, 0, false
}

var pennTags = map[string]string{
	"NN":   "NOUN",
	"NNS":  "NOUN",
	"NNP":  "PROPN",
	"NNPS": "PROPN",
	"VB":   "VERB",
	"VBD":  "VERB",
	"VBG":  "VERB",
	"VBN":  "VERB",
	"VBP":  "VERB",
	"VBZ":  "VERB",
	"MD":   "AUX",
	"JJ":   "ADJ",
	"JJR":  "ADJ",
	"JJS":  "ADJ",
	"RB":   "ADV",
	"RBR":  "ADV",
	"RBS":  "ADV",
	"WRB":  "ADV",
	"IN":   "ADP",
	"RP":   "ADP",
	"DT":   "DET",
	"PDT":  "DET",
	"WDT":  "DET",
	"PRP":  "PRON",
	"PRP$": "PRON",
	"WP":   "PRON",
	"WP$":  "PRON",
	"EX":   "PRON",
	"CC":   "CCONJ",
	"CD":   "NUM",
	"TO":   "PART",
	"POS":  "PART",
	"UH":   "INTJ",
	"FW":   "X",
	"SYM":  "SYM",
	"$":    "SYM",
	"#":    "SYM",
}

// pennToCoarse maps a Penn Treebank tag onto a universal coarse tag.
// Tokens made only of punctuation are PUNCT whatever the tagger said.
func pennToCoarse(tag, text string) string {
	if text != "" && strings.IndexFunc(text, func(r rune) bool { return !unicode.IsPunct(r) }) < 0 {
		return "PUNCT"
	}
	if coarse, ok := pennTags[tag]; ok {
		return coarse
	}
	switch tag {
	case ",", ".", ":", "(", ")", "``", "''", "-LRB-", "-RRB-", "HYPH", "NFP":
		return "PUNCT"
	}
	return "X"
}
