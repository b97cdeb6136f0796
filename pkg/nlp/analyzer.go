package nlp

import (
	"fmt"
	"strings"

	"github.com/ikawaha/kagome-dict/dict"
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// JapaneseModelID selects the IPA dictionary bundled with the binary.
const JapaneseModelID = "ipa"

// Analyzer tags tokens and extracts proper-noun entities using kagome.
type Analyzer struct {
	id string
	t  *tokenizer.Tokenizer
}

// OpenKagome loads a Japanese model. "ipa" uses the embedded IPA dictionary;
// any other value is read as a path to a kagome dictionary archive.
func OpenKagome(id string) (*Analyzer, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = JapaneseModelID
	}

	var d *dict.Dict
	if id == JapaneseModelID {
		d = ipa.Dict()
	} else {
		loaded, err := dict.LoadDictFile(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrModelUnavailable, id, err)
		}
		d = loaded
	}
	if d == nil {
		return nil, fmt.Errorf("%w: %s: empty dictionary", ErrModelUnavailable, id)
	}

	t, err := tokenizer.New(d, tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelUnavailable, id, err)
	}
	return &Analyzer{id: id, t: t}, nil
}

// ID returns the identifier the analyzer was opened with.
func (a *Analyzer) ID() string { return a.id }

// Analyze tokenizes text and returns its POS-tagged tokens and entity spans.
// Whitespace-only tokens are dropped; punctuation is kept. Words missing
// from the dictionary are tagged but never reported as entities.
func (a *Analyzer) Analyze(text string) (Doc, error) {
	if blank(text) {
		return spaceDoc(text), nil
	}
	var doc Doc

	var (
		cursor int
		open   *span // entity currently being extended
	)
	flush := func() {
		if open != nil {
			doc.Entities = append(doc.Entities, Entity{Text: text[open.start:open.end], Label: open.label})
			open = nil
		}
	}

	for _, tok := range a.t.Tokenize(text) {
		if tok.Class == tokenizer.DUMMY {
			continue
		}
		// Locate the surface in the source so entity spans are exact slices.
		rel := strings.Index(text[cursor:], tok.Surface)
		if rel < 0 {
			return Doc{}, fmt.Errorf("token %q not found in input after offset %d", tok.Surface, cursor)
		}
		start := cursor + rel
		end := start + len(tok.Surface)
		cursor = end

		if strings.TrimSpace(tok.Surface) == "" {
			continue
		}

		features := tok.Features()
		doc.Tokens = append(doc.Tokens, TaggedToken{Text: tok.Surface, POS: coarsePOS(features)})

		label, ok := entityLabel(features)
		if tok.Class == tokenizer.UNKNOWN {
			ok = false
		}
		switch {
		case !ok:
			flush()
		case open != nil && open.label == label && strings.TrimSpace(text[open.end:start]) == "":
			open.end = end
		default:
			flush()
			open = &span{start: start, end: end, label: label}
		}
	}
	flush()
	return doc, nil
}

type span struct {
	start, end int
	label      string
}

// IPA features:
// 0: Part of Speech
// 1: Sub-POS 1
// 2: Sub-POS 2
// 3: Sub-POS 3
func feature(features []string, i int) string {
	if i < len(features) {
		return features[i]
	}
	return ""
}

var entityClasses = map[string]string{
	"人名": "PERSON",
	"地域": "GPE",
	"組織": "ORG",
	"一般": "MISC",
}

func entityLabel(features []string) (string, bool) {
	if feature(features, 0) != "名詞" || feature(features, 1) != "固有名詞" {
		return "", false
	}
	label, ok := entityClasses[feature(features, 2)]
	if !ok {
		return "MISC", true
	}
	return label, true
}

var primaryTags = map[string]string{
	"名詞":   "NOUN",
	"動詞":   "VERB",
	"形容詞":  "ADJ",
	"副詞":   "ADV",
	"助詞":   "ADP",
	"助動詞":  "AUX",
	"連体詞":  "DET",
	"接続詞":  "CCONJ",
	"感動詞":  "INTJ",
	"フィラー": "INTJ",
	"接頭詞":  "X",
}

// coarsePOS maps an IPA feature vector onto a universal coarse tag.
func coarsePOS(features []string) string {
	primary, sub := feature(features, 0), feature(features, 1)
	switch primary {
	case "名詞":
		switch sub {
		case "固有名詞":
			return "PROPN"
		case "数":
			return "NUM"
		case "代名詞":
			return "PRON"
		}
	case "記号":
		switch sub {
		case "句点", "読点", "括弧開", "括弧閉":
			return "PUNCT"
		}
		return "SYM"
	}
	if tag, ok := primaryTags[primary]; ok {
		return tag
	}
	return "X"
}
