// Package shortcut defines the search shortcut data model and its canonical
// in-memory form.
package shortcut

import (
	"encoding/json"
	"errors"
	"strings"
)

// Record represents a single named search shortcut. The wire field for the
// query is "q" to match the stored shape.
type Record struct {
	Name  string `json:"name"`
	Query string `json:"q"`
}

// MaxRecords is the largest collection size accepted in storage.
const MaxRecords = 50

var (
	// ErrNotArray is returned when the payload's top level is not a JSON array.
	ErrNotArray = errors.New("payload is not an array")
	// ErrBadRecord is returned when an element is not an object carrying both
	// fields as strings.
	ErrBadRecord = errors.New("record has wrong shape")
)

// Defaults returns the built-in shortcut set. Callers receive a fresh slice
// on every call so stored state can never alias it.
func Defaults() []Record {
	return []Record{
		{Name: "Unread", Query: "is:unread"},
		{Name: "Starred", Query: "is:starred"},
		{Name: "Attachments", Query: "has:attachment"},
		{Name: "Important", Query: "is:important"},
		{Name: "Sent", Query: "in:sent"},
		{Name: "Drafts", Query: "in:draft"},
		{Name: "Large mail", Query: "larger:10M"},
		{Name: "This week", Query: "newer:7d"},
	}
}

// Decode parses untrusted JSON into records, enforcing shape strictly: the
// top level must be an array, every element an object with "name" and "q"
// present as strings. Extra keys are dropped here; Sanitize rebuilds each
// record field by field so nothing beyond the two fields survives.
func Decode(raw []byte) ([]Record, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, ErrNotArray
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil {
			return nil, ErrBadRecord
		}

		nameRaw, ok := obj["name"]
		if !ok {
			return nil, ErrBadRecord
		}
		queryRaw, ok := obj["q"]
		if !ok {
			return nil, ErrBadRecord
		}

		var name, query string
		if err := json.Unmarshal(nameRaw, &name); err != nil {
			return nil, ErrBadRecord
		}
		if err := json.Unmarshal(queryRaw, &query); err != nil {
			return nil, ErrBadRecord
		}

		records = append(records, Record{Name: name, Query: query})
	}

	return records, nil
}

// Sanitize produces the canonical form of a collection: a fresh slice of
// fresh records with trimmed fields. The input is never mutated and no
// references into it are returned. A nil or empty input falls back to the
// built-in defaults rather than producing an empty canonical collection.
func Sanitize(c []Record) []Record {
	if len(c) == 0 {
		return Defaults()
	}

	out := make([]Record, len(c))
	for i, r := range c {
		out[i] = Record{
			Name:  strings.TrimSpace(r.Name),
			Query: strings.TrimSpace(r.Query),
		}
	}
	return out
}

// Equal reports whether two collections hold the same records in the same
// order.
func Equal(a, b []Record) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
