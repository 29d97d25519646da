package nav

import (
	"testing"
	"time"

	"mailpanel/hostdoc"
	"mailpanel/shortcut"
)

func newDoc(t *testing.T) *hostdoc.Document {
	t.Helper()
	doc, err := hostdoc.Parse(`<html><body><main></main></body></html>`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func TestEncodeQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain operator", "is:unread", "is%3Aunread"},
		{"space is percent twenty", "a b", "a%20b"},
		{"ampersand", "a b&c", "a%20b%26c"},
		{"from address", "from:boss@example.com", "from%3Aboss%40example.com"},
		{"already safe", "report", "report"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EncodeQuery(tt.in); got != tt.want {
				t.Fatalf("EncodeQuery(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTarget(t *testing.T) {
	r := shortcut.Record{Name: "Unread", Query: "is:unread"}
	if got := Target(r); got != "search/is%3Aunread" {
		t.Fatalf("Target = %q", got)
	}
}

func TestActivateFirstTime(t *testing.T) {
	doc := newDoc(t)
	n := New(doc, 20*time.Millisecond)

	n.Activate(shortcut.Record{Name: "Unread", Query: "is:unread"})

	if got := doc.Fragment(); got != "search/is%3Aunread" {
		t.Fatalf("fragment = %q", got)
	}
	if log := doc.FragmentLog(); len(log) != 1 {
		t.Fatalf("fragment log = %v, want a single entry", log)
	}
}

// A second activation of the same record must still reach the host as a
// fresh navigation: bounce through the neutral fragment, then re-target.
func TestActivateRepeatBounces(t *testing.T) {
	doc := newDoc(t)
	n := New(doc, 20*time.Millisecond)
	r := shortcut.Record{Name: "Unread", Query: "is:unread"}

	n.Activate(r)
	n.Activate(r)

	if got := doc.Fragment(); got != NeutralFragment {
		t.Fatalf("fragment = %q immediately after repeat, want %q", got, NeutralFragment)
	}

	time.Sleep(80 * time.Millisecond)

	target := "search/is%3Aunread"
	want := []string{target, NeutralFragment, target}
	got := doc.FragmentLog()
	if len(got) != len(want) {
		t.Fatalf("fragment log = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fragment log = %v, want %v", got, want)
		}
	}
}

func TestActivateDifferentRecordNoBounce(t *testing.T) {
	doc := newDoc(t)
	n := New(doc, 20*time.Millisecond)

	n.Activate(shortcut.Record{Name: "Unread", Query: "is:unread"})
	n.Activate(shortcut.Record{Name: "Starred", Query: "is:starred"})

	if got := doc.Fragment(); got != "search/is%3Astarred" {
		t.Fatalf("fragment = %q", got)
	}
	if log := doc.FragmentLog(); len(log) != 2 {
		t.Fatalf("fragment log = %v, want two entries", log)
	}
}
