// Package panel builds the shortcut panel subtree. The hard rule here is
// that user-controlled text (names, queries) enters the tree only as text
// nodes, never as markup to be parsed. That single mechanical guarantee
// defeats stored XSS even for a string that slipped past the validator.
// Attribute values carry data for the dispatcher; the serializer escapes
// them on output.
package panel

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"mailpanel/command"
	"mailpanel/shortcut"
)

// RootID is the reserved identifier of the mounted panel. Mount-state
// detection keys off this id.
const RootID = "mailpanel-root"

// Data attributes wiring panel nodes to commands.
const (
	attrCommand = "data-mp-cmd"
	attrIndex   = "data-mp-index"
	attrQuery   = "data-mp-query"
)

// Build constructs the panel subtree for a canonical collection. The result
// is a fresh, detached element ready for insertion.
func Build(records []shortcut.Record) *html.Node {
	root := elem("div",
		html.Attribute{Key: "id", Val: RootID},
		html.Attribute{Key: "class", Val: "mailpanel"},
	)

	header := elem("div", html.Attribute{Key: "class", Val: "mailpanel-header"})
	title := elem("h3")
	title.AppendChild(text("Search shortcuts"))
	header.AppendChild(title)
	root.AppendChild(header)

	if len(records) == 0 {
		empty := elem("p", html.Attribute{Key: "class", Val: "mailpanel-empty"})
		empty.AppendChild(text("No shortcuts yet"))
		root.AppendChild(empty)
	} else {
		root.AppendChild(buildList(records))
	}

	root.AppendChild(buildActions())
	return root
}

func buildList(records []shortcut.Record) *html.Node {
	list := elem("ul", html.Attribute{Key: "class", Val: "mailpanel-list"})
	for i, r := range records {
		list.AppendChild(buildRow(i, r))
	}
	return list
}

func buildRow(index int, r shortcut.Record) *html.Node {
	idx := strconv.Itoa(index)

	row := elem("li", html.Attribute{Key: "class", Val: "mailpanel-row"})

	link := elem("a",
		html.Attribute{Key: "class", Val: "mailpanel-link"},
		html.Attribute{Key: attrCommand, Val: command.Navigate.String()},
		html.Attribute{Key: attrIndex, Val: idx},
		html.Attribute{Key: attrQuery, Val: r.Query},
	)
	link.AppendChild(text(r.Name))
	row.AppendChild(link)

	row.AppendChild(actionButton("mailpanel-edit", "edit", command.Edit, idx))
	row.AppendChild(actionButton("mailpanel-delete", "delete", command.Delete, idx))
	return row
}

func actionButton(class, label string, kind command.Kind, idx string) *html.Node {
	attrs := []html.Attribute{
		{Key: "class", Val: class},
		{Key: "type", Val: "button"},
		{Key: attrCommand, Val: kind.String()},
	}
	if idx != "" {
		attrs = append(attrs, html.Attribute{Key: attrIndex, Val: idx})
	}
	btn := elem("button", attrs...)
	btn.AppendChild(text(label))
	return btn
}

func buildActions() *html.Node {
	actions := elem("div", html.Attribute{Key: "class", Val: "mailpanel-actions"})
	actions.AppendChild(actionButton("mailpanel-add", "Add", command.Add, ""))
	actions.AppendChild(actionButton("mailpanel-import", "Import", command.Import, ""))
	actions.AppendChild(actionButton("mailpanel-export", "Export", command.Export, ""))
	return actions
}

// CommandFor recovers the command a panel node triggers. Activation stops
// at the panel boundary: callers must not forward the event to the host
// page's own handlers.
func CommandFor(n *html.Node) (command.Command, bool) {
	if n == nil || n.Type != html.ElementNode {
		return command.Command{}, false
	}

	kindName := attrValue(n, attrCommand)
	if kindName == "" {
		return command.Command{}, false
	}
	kind, ok := command.KindFromString(kindName)
	if !ok {
		return command.Command{}, false
	}

	cmd := command.Command{Kind: kind, Index: -1}
	if raw := attrValue(n, attrIndex); raw != "" {
		idx, err := strconv.Atoi(raw)
		if err != nil {
			return command.Command{}, false
		}
		cmd.Index = idx
	}
	return cmd, true
}

// HTML serializes a subtree. Text nodes and attribute values come out
// escaped; this is the form handed to a live browser page.
func HTML(n *html.Node) string {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return ""
	}
	return sb.String()
}

func elem(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Lookup([]byte(tag)),
		Data:     tag,
		Attr:     attrs,
	}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
