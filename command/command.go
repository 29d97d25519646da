// Package command turns UI actions into typed commands consumed by a single
// dispatcher, instead of scattering mutation logic through event closures.
// Every mutating command persists immediately and then asks the mount layer
// to re-render.
package command

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"mailpanel/nav"
	"mailpanel/shortcut"
	"mailpanel/store"
	"mailpanel/validate"
)

// Kind identifies a UI action.
type Kind int

const (
	Navigate Kind = iota
	Add
	Edit
	Delete
	Import
	Export
)

// String returns the wire name of the kind, as carried in panel data
// attributes.
func (k Kind) String() string {
	switch k {
	case Navigate:
		return "navigate"
	case Add:
		return "add"
	case Edit:
		return "edit"
	case Delete:
		return "delete"
	case Import:
		return "import"
	case Export:
		return "export"
	}
	return "unknown"
}

// KindFromString parses a wire name back into a kind.
func KindFromString(s string) (Kind, bool) {
	for _, k := range []Kind{Navigate, Add, Edit, Delete, Import, Export} {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Command is one requested action. Index targets an existing record for
// Navigate/Edit/Delete; Record carries new field values for Add/Edit;
// Payload carries the raw import text.
type Command struct {
	Kind    Kind
	Index   int
	Record  shortcut.Record
	Payload string
}

// Refresher re-renders the mounted panel after a collection change.
type Refresher interface {
	Refresh(ctx context.Context)
}

var (
	// ErrIndex means the command targeted a record that no longer exists.
	ErrIndex = errors.New("no such shortcut")
	// ErrFull means the collection already holds the maximum record count.
	ErrFull = errors.New("shortcut list is full")
	// ErrSave is the generic persistence failure shown to the user.
	ErrSave = errors.New("could not save shortcuts")
)

// Dispatcher executes commands against the store, the navigator, and the
// mounted panel.
type Dispatcher struct {
	store   *store.Adapter
	nav     *nav.Navigator
	refresh Refresher
	log     *zap.Logger
}

// New creates a dispatcher. refresh may be nil when no panel is mounted
// (headless use, tests).
func New(st *store.Adapter, navigator *nav.Navigator, refresh Refresher, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{store: st, nav: navigator, refresh: refresh, log: log}
}

// Dispatch executes one command. The returned string is non-empty only for
// Export. Errors are user-facing messages; they never contain the user's
// own input.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (string, error) {
	switch cmd.Kind {
	case Navigate:
		current := d.store.Load(ctx)
		if cmd.Index < 0 || cmd.Index >= len(current) {
			return "", ErrIndex
		}
		d.nav.Activate(current[cmd.Index])
		return "", nil

	case Add:
		if err := checkFields(cmd.Record); err != nil {
			return "", err
		}
		current := d.store.Load(ctx)
		if len(current) >= shortcut.MaxRecords {
			return "", ErrFull
		}
		return "", d.persist(ctx, append(current, cmd.Record))

	case Edit:
		if err := checkFields(cmd.Record); err != nil {
			return "", err
		}
		current := d.store.Load(ctx)
		if cmd.Index < 0 || cmd.Index >= len(current) {
			return "", ErrIndex
		}
		current[cmd.Index] = cmd.Record
		return "", d.persist(ctx, current)

	case Delete:
		current := d.store.Load(ctx)
		if cmd.Index < 0 || cmd.Index >= len(current) {
			return "", ErrIndex
		}
		next := append(append([]shortcut.Record{}, current[:cmd.Index]...), current[cmd.Index+1:]...)
		if len(next) == 0 {
			// The collection is never empty in storage; deleting the last
			// record restores the built-in set.
			next = shortcut.Defaults()
		}
		return "", d.persist(ctx, next)

	case Import:
		records, err := d.store.Import(cmd.Payload)
		if err != nil {
			return "", err
		}
		return "", d.persist(ctx, records)

	case Export:
		return d.store.Export(d.store.Load(ctx)), nil
	}

	return "", fmt.Errorf("unknown command")
}

// checkFields validates Add/Edit input field by field so the UI can show
// inline, field-specific messages.
func checkFields(r shortcut.Record) error {
	if err := validate.Name(r.Name); err != nil {
		return fmt.Errorf("name: %w", err)
	}
	if err := validate.Query(r.Query); err != nil {
		return fmt.Errorf("query: %w", err)
	}
	if !validate.Length(r.Query, validate.MaxQueryLength) {
		return fmt.Errorf("query: %w", validate.ErrTooLong)
	}
	return nil
}

func (d *Dispatcher) persist(ctx context.Context, c []shortcut.Record) error {
	if !d.store.Save(ctx, c) {
		return ErrSave
	}
	if d.refresh != nil {
		d.refresh.Refresh(ctx)
	}
	return nil
}
