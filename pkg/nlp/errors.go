package nlp

// ErrModelUnavailable is returned (wrapped) when a model cannot be loaded.
var ErrModelUnavailable = &ModelError{"model unavailable"}

// ModelError provides a simple typed error for model loading.
type ModelError struct{ msg string }

func (e *ModelError) Error() string { return e.msg }
