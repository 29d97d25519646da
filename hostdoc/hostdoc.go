// Package hostdoc models the third-party host document the panel attaches
// to: a live HTML tree the host rewrites at will. The panel does not own
// this tree and must assume nothing about its structure. All mutation goes
// through Document methods, which emit notifications to scoped subscribers
// the way a DOM mutation observer would.
package hostdoc

import (
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"golang.org/x/net/html"
)

// Kind identifies what a mutation did.
type Kind int

const (
	// NodeAdded means a node was inserted somewhere under Locus.
	NodeAdded Kind = iota
	// NodeRemoved means a child was detached from Locus.
	NodeRemoved
	// ChildrenReplaced means Locus had its whole subtree torn down and
	// rebuilt, the way SPA re-renders do.
	ChildrenReplaced
)

// Mutation describes one change to the tree. Locus is the parent element
// the change happened under; for removals it is the old parent, which is
// still connected and therefore still scopable.
type Mutation struct {
	Kind  Kind
	Locus *html.Node
}

// Subscription delivers mutation batches for changes inside its scope.
// Delivery is non-blocking: a consumer that falls behind loses batches, not
// ordering, which is safe because consumers only ever react to "something
// changed", never to batch contents.
type Subscription struct {
	ID string
	C  chan []Mutation

	scope *html.Node
	doc   *Document
}

// Cancel stops delivery. The channel is never closed; consumers exit via
// their own context.
func (s *Subscription) Cancel() {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	delete(s.doc.subs, s.ID)
}

// Document owns a live HTML tree and the subscriptions watching it.
type Document struct {
	mu       sync.RWMutex
	root     *html.Node
	subs     map[string]*Subscription
	fragment string
	fragLog  []string
}

// Parse builds a document from HTML source.
func Parse(src string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, err
	}
	return &Document{root: root, subs: make(map[string]*Subscription)}, nil
}

// Root returns the document root. Callers may walk it but must route every
// mutation through Document methods.
func (d *Document) Root() *html.Node {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.root
}

// Query returns the first node matching the selector, or nil. An invalid
// selector is treated as no match rather than a failure.
func (d *Document) Query(selector string) (n *html.Node) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	defer func() {
		// goquery panics on selectors it cannot compile; an alien host
		// document must never take the panel down with it.
		if recover() != nil {
			n = nil
		}
	}()

	sel := goquery.NewDocumentFromNode(d.root).Find(selector)
	if len(sel.Nodes) == 0 {
		return nil
	}
	return sel.Nodes[0]
}

// FindByText returns the first element with the given tag whose text
// content equals text after trimming, case-insensitively.
func (d *Document) FindByText(tag, text string) *html.Node {
	d.mu.RLock()
	defer d.mu.RUnlock()

	want := strings.ToLower(strings.TrimSpace(text))
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == tag {
			if strings.ToLower(strings.TrimSpace(textContent(n))) == want {
				found = n
				return false
			}
		}
		return true
	})
	return found
}

// ElementByID returns the connected element carrying the id, or nil.
func (d *Document) ElementByID(id string) *html.Node {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.elementByIDLocked(id)
}

func (d *Document) elementByIDLocked(id string) *html.Node {
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && attr(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Connected reports whether an element with the id is currently attached to
// the document.
func (d *Document) Connected(id string) bool {
	return d.ElementByID(id) != nil
}

// Contains reports whether n is attached under the document root.
func (d *Document) Contains(n *html.Node) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return containedIn(n, d.root)
}

// AppendChild attaches child as the last child of parent.
func (d *Document) AppendChild(parent, child *html.Node) {
	d.mu.Lock()
	parent.AppendChild(child)
	d.notifyLocked([]Mutation{{Kind: NodeAdded, Locus: parent}})
	d.mu.Unlock()
}

// InsertAfter attaches n as the next sibling of ref. It reports false when
// ref has no parent to insert under.
func (d *Document) InsertAfter(ref, n *html.Node) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	parent := ref.Parent
	if parent == nil {
		return false
	}
	if ref.NextSibling != nil {
		parent.InsertBefore(n, ref.NextSibling)
	} else {
		parent.AppendChild(n)
	}
	d.notifyLocked([]Mutation{{Kind: NodeAdded, Locus: parent}})
	return true
}

// Remove detaches n from its parent. It reports false when n is not
// attached.
func (d *Document) Remove(n *html.Node) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	parent := n.Parent
	if parent == nil {
		return false
	}
	parent.RemoveChild(n)
	d.notifyLocked([]Mutation{{Kind: NodeRemoved, Locus: parent}})
	return true
}

// Detach removes the element carrying the id. It reports false when no such
// element is connected.
func (d *Document) Detach(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := d.elementByIDLocked(id)
	if n == nil || n.Parent == nil {
		return false
	}
	parent := n.Parent
	parent.RemoveChild(n)
	d.notifyLocked([]Mutation{{Kind: NodeRemoved, Locus: parent}})
	return true
}

// Rebuild tears down parent's children and reattaches deep copies of them,
// emitting the same notification burst a host-page re-render would. The
// rebuilt subtree is structurally identical but node identities change.
func (d *Document) Rebuild(parent *html.Node) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var kids []*html.Node
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		kids = append(kids, c)
	}

	batch := make([]Mutation, 0, 2*len(kids))
	for _, c := range kids {
		parent.RemoveChild(c)
		batch = append(batch, Mutation{Kind: NodeRemoved, Locus: parent})
	}
	for _, c := range kids {
		parent.AppendChild(clone(c))
		batch = append(batch, Mutation{Kind: NodeAdded, Locus: parent})
	}
	if len(batch) == 0 {
		batch = []Mutation{{Kind: ChildrenReplaced, Locus: parent}}
	}
	d.notifyLocked(batch)
}

// Observe subscribes to mutation batches for changes within scope only,
// never the whole document.
func (d *Document) Observe(scope *html.Node) *Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()

	sub := &Subscription{
		ID:    uuid.NewString(),
		C:     make(chan []Mutation, 16),
		scope: scope,
		doc:   d,
	}
	d.subs[sub.ID] = sub
	return sub
}

func (d *Document) notifyLocked(batch []Mutation) {
	for _, sub := range d.subs {
		if !batchTouches(batch, sub.scope) {
			continue
		}
		select {
		case sub.C <- batch:
		default:
			// Consumer is behind; it will act on a later batch.
		}
	}
}

func batchTouches(batch []Mutation, scope *html.Node) bool {
	for _, m := range batch {
		if containedIn(m.Locus, scope) {
			return true
		}
	}
	return false
}

// Fragment returns the current location fragment.
func (d *Document) Fragment() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fragment
}

// SetFragment records a navigation to the given fragment.
func (d *Document) SetFragment(f string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fragment = f
	d.fragLog = append(d.fragLog, f)
}

// FragmentLog returns every fragment set since the document was created, in
// order.
func (d *Document) FragmentLog() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, len(d.fragLog))
	copy(out, d.fragLog)
	return out
}

// walk visits n and its subtree until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func containedIn(n, ancestor *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

func clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for k := n.FirstChild; k != nil; k = k.NextSibling {
		c.AppendChild(clone(k))
	}
	return c
}
