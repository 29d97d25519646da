// Package store adapts the external key-value store into a safe source and
// sink for shortcut collections. Its failure policy is fail closed: every
// error path yields the built-in defaults or a boolean failure, never a
// panic and never unvalidated data. Storage content is treated as untrusted
// input and re-validated on every load, not only on save.
package store

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"mailpanel/kvstore"
	"mailpanel/shortcut"
	"mailpanel/validate"
)

// Key is the fixed storage key. There is no version field; schema evolution
// would require a new key.
const Key = "mailpanel.shortcuts"

// Import rejection reasons. These are the complete messages shown to the
// user; the offending content is never echoed back.
var (
	ErrUnsafe    = errors.New("import rejected: unsafe content")
	ErrMalformed = errors.New("import rejected: not a valid shortcut list")
	ErrInvalid   = errors.New("import rejected: one or more shortcuts failed validation")
)

// Adapter mediates between the validation pipeline and the key-value store.
type Adapter struct {
	kv  kvstore.Store
	log *zap.Logger
}

// New creates an adapter over the given store.
func New(kv kvstore.Store, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{kv: kv, log: log}
}

// Load returns the canonical stored collection. An absent key, a decode
// failure, a validation failure, or any backend error all produce the
// built-in defaults. Backend errors are logged as a fixed string: they can
// embed attacker-controlled content, so their text is discarded.
func (a *Adapter) Load(ctx context.Context) []shortcut.Record {
	raw, ok, err := a.kv.Get(ctx, Key)
	if err != nil {
		a.log.Warn("shortcut load failed, using defaults")
		return shortcut.Defaults()
	}
	if !ok {
		a.log.Info("no stored shortcuts, using defaults")
		return shortcut.Defaults()
	}

	records, err := shortcut.Decode([]byte(raw))
	if err != nil || !validate.Collection(records) {
		a.log.Warn("stored shortcuts invalid, using defaults")
		return shortcut.Defaults()
	}
	return shortcut.Sanitize(records)
}

// Save re-validates, sanitizes, and persists the collection. It reports
// false without writing when the collection is invalid, and false when the
// backend write fails.
func (a *Adapter) Save(ctx context.Context, c []shortcut.Record) bool {
	if !validate.Collection(c) {
		return false
	}

	clean := shortcut.Sanitize(c)
	data, err := json.Marshal(clean)
	if err != nil {
		a.log.Warn("shortcut save failed")
		return false
	}
	if err := a.kv.Set(ctx, Key, string(data)); err != nil {
		a.log.Warn("shortcut save failed")
		return false
	}
	return true
}

// Import parses a pasted payload into a canonical collection. Rejection is
// wholesale: a dangerous pattern anywhere in the raw text (checked before
// parsing), a parse failure, or any invalid record rejects the entire
// payload with no partial import.
func (a *Adapter) Import(raw string) ([]shortcut.Record, error) {
	if validate.Dangerous(raw) {
		return nil, ErrUnsafe
	}

	records, err := shortcut.Decode([]byte(raw))
	if err != nil {
		return nil, ErrMalformed
	}
	if !validate.Collection(records) {
		return nil, ErrInvalid
	}
	return shortcut.Sanitize(records), nil
}

// Export serializes the collection as pretty-printed JSON for manual copy.
func (a *Adapter) Export(c []shortcut.Record) string {
	data, err := json.MarshalIndent(shortcut.Sanitize(c), "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}
