package panel

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"mailpanel/command"
	"mailpanel/shortcut"
)

func TestBuildRows(t *testing.T) {
	records := []shortcut.Record{
		{Name: "Unread", Query: "is:unread"},
		{Name: "Starred", Query: "is:starred"},
	}
	p := Build(records)

	if got := attrValue(p, "id"); got != RootID {
		t.Fatalf("root id = %q, want %q", got, RootID)
	}

	links := collect(p, "a")
	if len(links) != 2 {
		t.Fatalf("built %d links, want 2", len(links))
	}
	if got := textOf(links[0]); got != "Unread" {
		t.Fatalf("first link text = %q", got)
	}
	if got := attrValue(links[1], "data-mp-query"); got != "is:starred" {
		t.Fatalf("second link query attr = %q", got)
	}
}

func TestBuildEmptyState(t *testing.T) {
	p := Build(nil)

	if len(collect(p, "a")) != 0 {
		t.Fatal("empty collection should render no links")
	}
	out := HTML(p)
	if !strings.Contains(out, "No shortcuts yet") {
		t.Fatal("empty state message missing")
	}
	// The actions row is still there so the user can add or import.
	if !strings.Contains(out, "Import") {
		t.Fatal("actions missing from empty panel")
	}
}

// A name that slipped past validation must come out of the serializer as
// inert text, never as markup.
func TestBuildEscapesHostileText(t *testing.T) {
	records := []shortcut.Record{
		{Name: "<script>alert(1)</script>", Query: `"quoted" & <tagged>`},
	}
	out := HTML(Build(records))

	if strings.Contains(out, "<script>") {
		t.Fatal("serialized panel contains live markup from a record name")
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Fatal("record name was not escaped as text")
	}
	if strings.Contains(out, `"quoted" & <tagged>`) {
		t.Fatal("attribute value was not escaped")
	}
}

func TestCommandFor(t *testing.T) {
	p := Build([]shortcut.Record{{Name: "Unread", Query: "is:unread"}})

	links := collect(p, "a")
	cmd, ok := CommandFor(links[0])
	if !ok {
		t.Fatal("link should carry a command")
	}
	if cmd.Kind != command.Navigate || cmd.Index != 0 {
		t.Fatalf("link command = %+v", cmd)
	}

	var deleteBtn *html.Node
	for _, b := range collect(p, "button") {
		if attrValue(b, "class") == "mailpanel-delete" {
			deleteBtn = b
		}
	}
	if deleteBtn == nil {
		t.Fatal("delete button not built")
	}
	cmd, ok = CommandFor(deleteBtn)
	if !ok || cmd.Kind != command.Delete || cmd.Index != 0 {
		t.Fatalf("delete command = %+v, ok=%v", cmd, ok)
	}

	// Nodes without command attributes yield nothing.
	if _, ok := CommandFor(p); ok {
		t.Fatal("root node should not carry a command")
	}
	if _, ok := CommandFor(nil); ok {
		t.Fatal("nil node should not carry a command")
	}
}

func collect(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}
