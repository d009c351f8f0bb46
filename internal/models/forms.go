package models

// FormErrors maps a field name to the message shown next to it.
// The reserved key FieldForm carries a form-level banner.
type FormErrors map[string]string

const FieldForm = "form"

func (e FormErrors) Empty() bool {
	return len(e) == 0
}

func (e FormErrors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Clear drops the message of one field, as done when the user edits it.
func (e FormErrors) Clear(field string) {
	delete(e, field)
}

func (e FormErrors) Set(field, message string) {
	e[field] = message
}

// Clone returns an independent copy; nil stays nil.
func (e FormErrors) Clone() FormErrors {
	if e == nil {
		return nil
	}
	out := make(FormErrors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
