package forms

import (
	"sort"
	"strings"
)

// FormKey holds errors that belong to the whole form rather than a single field.
const FormKey = "form"

// Errors maps a field key to a human readable message.
type Errors map[string]string

func (e Errors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	keys := make([]string, 0, len(e))
	for key := range e {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+e[key])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Set records msg under key, or clears key when msg is empty.
func (e Errors) Set(key, msg string) {
	if msg == "" {
		delete(e, key)
		return
	}
	e[key] = msg
}

func (e Errors) Clone() Errors {
	out := make(Errors, len(e))
	for key, msg := range e {
		out[key] = msg
	}
	return out
}

// Err returns e as an error, or nil when it holds nothing.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
