package shortcut

import (
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []Record
		wantErr error
	}{
		{
			name: "simple list",
			raw:  `[{"name":"Work","q":"from:boss@example.com"}]`,
			want: []Record{{Name: "Work", Query: "from:boss@example.com"}},
		},
		{
			name: "extra keys dropped",
			raw:  `[{"name":"A","q":"is:unread","__proto__":{"x":1},"admin":true}]`,
			want: []Record{{Name: "A", Query: "is:unread"}},
		},
		{
			name: "empty array",
			raw:  `[]`,
			want: []Record{},
		},
		{
			name:    "top level object",
			raw:     `{"name":"A","q":"b"}`,
			wantErr: ErrNotArray,
		},
		{
			name:    "not json",
			raw:     `hello`,
			wantErr: ErrNotArray,
		},
		{
			name:    "element is array",
			raw:     `[["A","b"]]`,
			wantErr: ErrBadRecord,
		},
		{
			name:    "missing query field",
			raw:     `[{"name":"A"}]`,
			wantErr: ErrBadRecord,
		},
		{
			name:    "missing name field",
			raw:     `[{"q":"is:unread"}]`,
			wantErr: ErrBadRecord,
		},
		{
			name:    "numeric name",
			raw:     `[{"name":42,"q":"is:unread"}]`,
			wantErr: ErrBadRecord,
		},
		{
			name:    "null query",
			raw:     `[{"name":"A","q":null}]`,
			wantErr: ErrBadRecord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Decode(%q) error = %v, want %v", tt.raw, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode(%q) unexpected error: %v", tt.raw, err)
			}
			if !Equal(got, tt.want) {
				t.Fatalf("Decode(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSanitizeTrims(t *testing.T) {
	in := []Record{{Name: "  Work  ", Query: "\tfrom:boss@example.com "}}
	got := Sanitize(in)

	want := []Record{{Name: "Work", Query: "from:boss@example.com"}}
	if !Equal(got, want) {
		t.Fatalf("Sanitize = %v, want %v", got, want)
	}
	// Input untouched.
	if in[0].Name != "  Work  " {
		t.Fatal("Sanitize mutated its input")
	}
}

func TestSanitizeFreshAllocation(t *testing.T) {
	in := []Record{{Name: "A", Query: "is:unread"}}
	out := Sanitize(in)

	out[0].Name = "changed"
	if in[0].Name != "A" {
		t.Fatal("Sanitize output aliases its input")
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	in := []Record{{Name: " A ", Query: " is:unread "}}
	once := Sanitize(in)
	twice := Sanitize(once)

	if !Equal(once, twice) {
		t.Fatalf("Sanitize not idempotent: %v vs %v", once, twice)
	}
}

func TestSanitizeEmptyFallsBack(t *testing.T) {
	if !Equal(Sanitize(nil), Defaults()) {
		t.Fatal("Sanitize(nil) should return the defaults")
	}
	if !Equal(Sanitize([]Record{}), Defaults()) {
		t.Fatal("Sanitize(empty) should return the defaults")
	}
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	if len(d) != 8 {
		t.Fatalf("Defaults() has %d records, want 8", len(d))
	}

	// Every call returns a fresh slice.
	d[0].Name = "tampered"
	if Defaults()[0].Name == "tampered" {
		t.Fatal("Defaults() returns shared state")
	}
}
