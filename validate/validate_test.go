package validate

import (
	"errors"
	"strings"
	"testing"

	"mailpanel/shortcut"
)

func TestLength(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want bool
	}{
		{"empty", "", 10, false},
		{"whitespace only", "   \t  ", 10, false},
		{"single char", "a", 10, true},
		{"at limit", strings.Repeat("x", 10), 10, true},
		{"over limit", strings.Repeat("x", 11), 10, false},
		{"trimmed to limit", "  " + strings.Repeat("x", 10) + "  ", 10, true},
		{"multibyte runes counted once", strings.Repeat("é", 10), 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Length(tt.in, tt.max); got != tt.want {
				t.Fatalf("Length(%q, %d) = %v, want %v", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestDangerous(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"script tag", "<script>alert(1)</script>", true},
		{"script tag mixed case", "<ScRiPt>alert(1)", true},
		{"iframe tag", "x<iframe src=y>", true},
		{"embed tag", "<embed>", true},
		{"object tag", "<object data=x>", true},
		{"javascript scheme", "javascript:alert(1)", true},
		{"javascript scheme upper", "JAVASCRIPT:alert(1)", true},
		{"data scheme", "data:text/html;base64,xxx", true},
		{"vbscript scheme", "vbscript:msgbox", true},
		{"event handler", "a onclick=alert(1)", true},
		{"event handler spaced", "a onload = run()", true},
		{"event handler mixed case", "OnClick=x", true},
		{"img with src", `<img src="x">`, true},
		{"eval call", "eval(document.cookie)", true},
		{"expression call", "expression(alert(1))", true},
		{"plain query", "from:boss@example.com is:unread", false},
		{"plain text", "quarterly report", false},
		{"angle bracket alone", "a < b > c", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Dangerous(tt.in); got != tt.want {
				t.Fatalf("Dangerous(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "", ErrEmpty},
		{"whitespace", "   ", ErrEmpty},
		{"operator", "from:alice@example.com", nil},
		{"compound operator", "has:attachment", nil},
		{"several operators", "in:sent before:2024/01/01", nil},
		{"plain text", "quarterly report", nil},
		{"no operator no text", "?!#%", ErrNoContent},
		{"script", "<script>alert(1)</script>", ErrPattern},
		{"union select", "union select * from users", ErrPattern},
		{"drop table", "x drop table mail", ErrPattern},
		{"insert into", "insert into t values(1)", ErrPattern},
		{"delete from", "delete from inbox", ErrPattern},
		{"update set", "update users set admin=1", ErrPattern},
		{"comment marker", "from:me --", ErrPattern},
		{"semicolon then drop", "from:me; please DROP everything", ErrPattern},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Query(tt.in)
			if !errors.Is(got, tt.want) && got != tt.want {
				t.Fatalf("Query(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"valid", "Unread", nil},
		{"empty", "", ErrEmpty},
		{"whitespace", "  \t ", ErrEmpty},
		{"at limit", strings.Repeat("n", MaxNameLength), nil},
		{"over limit", strings.Repeat("n", MaxNameLength+1), ErrTooLong},
		{"dangerous", "<script>x</script>", ErrPattern},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Name(tt.in)
			if !errors.Is(got, tt.want) && got != tt.want {
				t.Fatalf("Name(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRecord(t *testing.T) {
	tests := []struct {
		name string
		in   shortcut.Record
		want bool
	}{
		{"valid", shortcut.Record{Name: "Unread", Query: "is:unread"}, true},
		{"empty name", shortcut.Record{Name: "  ", Query: "is:unread"}, false},
		{"empty query", shortcut.Record{Name: "Unread", Query: ""}, false},
		{"name too long", shortcut.Record{Name: strings.Repeat("n", 101), Query: "is:unread"}, false},
		{"query too long", shortcut.Record{Name: "x", Query: "from:" + strings.Repeat("q", 500)}, false},
		{"dangerous name", shortcut.Record{Name: "<script>x</script>", Query: "is:unread"}, false},
		{"dangerous query", shortcut.Record{Name: "x", Query: "javascript:alert(1)"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Record(tt.in); got != tt.want {
				t.Fatalf("Record(%+v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCollection(t *testing.T) {
	valid := shortcut.Record{Name: "Unread", Query: "is:unread"}

	many := func(n int) []shortcut.Record {
		out := make([]shortcut.Record, n)
		for i := range out {
			out[i] = valid
		}
		return out
	}

	tests := []struct {
		name string
		in   []shortcut.Record
		want bool
	}{
		{"nil", nil, false},
		{"empty", []shortcut.Record{}, false},
		{"single valid", many(1), true},
		{"at limit", many(50), true},
		{"over limit", many(51), false},
		{"one bad element", append(many(3), shortcut.Record{Name: "", Query: "is:unread"}), false},
		{"defaults", shortcut.Defaults(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Collection(tt.in); got != tt.want {
				t.Fatalf("Collection(len %d) = %v, want %v", len(tt.in), got, tt.want)
			}
		})
	}
}
