// Package nav translates an activated shortcut into a navigation against
// the host page's fragment identifier.
package nav

import (
	"net/url"
	"strings"
	"time"

	"mailpanel/hostdoc"
	"mailpanel/shortcut"
)

// NeutralFragment is the inbox-equivalent fragment used to force the host
// SPA to treat a repeated navigation as fresh.
const NeutralFragment = "inbox"

// DefaultBounceDelay is how long to sit on the neutral fragment before
// re-targeting on a repeated activation.
const DefaultBounceDelay = 150 * time.Millisecond

// Navigator drives fragment navigation on a host document.
type Navigator struct {
	doc   *hostdoc.Document
	delay time.Duration
}

// New creates a navigator. A non-positive bounceDelay selects the default.
func New(doc *hostdoc.Document, bounceDelay time.Duration) *Navigator {
	if bounceDelay <= 0 {
		bounceDelay = DefaultBounceDelay
	}
	return &Navigator{doc: doc, delay: bounceDelay}
}

// EncodeQuery percent-encodes a query for use inside a fragment. Encoding
// is unconditional: the validator's pattern checks are heuristic, and this
// is the structural backstop. Spaces become %20, not +.
func EncodeQuery(q string) string {
	return strings.ReplaceAll(url.QueryEscape(q), "+", "%20")
}

// Target returns the fragment a record navigates to.
func Target(r shortcut.Record) string {
	return "search/" + EncodeQuery(r.Query)
}

// Activate navigates the host document to the record's search. When the
// host is already on the computed target, it bounces through the neutral
// fragment first and re-targets after a short delay, so the host SPA sees
// a fresh navigation instead of a no-op.
func (n *Navigator) Activate(r shortcut.Record) {
	target := Target(r)
	if n.doc.Fragment() != target {
		n.doc.SetFragment(target)
		return
	}

	n.doc.SetFragment(NeutralFragment)
	time.AfterFunc(n.delay, func() {
		n.doc.SetFragment(target)
	})
}
