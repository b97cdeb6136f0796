package nlp

import "strings"

// DefaultModelID is the model used when none is configured.
const DefaultModelID = EnglishModelID

// Open loads the model named by id: "en" (the default) for English, "ipa"
// or a path to a kagome dictionary archive for Japanese. Failures wrap
// ErrModelUnavailable.
func Open(id string) (Model, error) {
	switch id = strings.TrimSpace(id); id {
	case "", EnglishModelID:
		return NewEnglish(), nil
	default:
		a, err := OpenKagome(id)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
}
