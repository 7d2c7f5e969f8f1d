package doc

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/phobologic/layoutsync/internal/model"
)

// Document is a parsed file whose tag tree is replaced on every update.
// Update reuses Element objects for subtrees whose source text did not
// change, so tag identity survives some edits and not others.
type Document struct {
	mu     sync.RWMutex
	path   string
	format *Format
	source []byte
	root   *Element
	roots  []*model.SnapshotNode
	reused int
}

// Open reads and parses the file at path, choosing the format by extension.
func Open(path string) (*Document, error) {
	name := ForExtension(filepath.Ext(path))
	if name == "" {
		return nil, fmt.Errorf("%s: unsupported file type", path)
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(Formats[name], path, source)
}

// New parses source as a document of the given format.
func New(format *Format, path string, source []byte) (*Document, error) {
	d := &Document{path: path, format: format}
	if err := d.load(source, false); err != nil {
		return nil, err
	}
	return d, nil
}

// Path returns the path the document was opened from.
func (d *Document) Path() string { return d.path }

// Format returns the document's format.
func (d *Document) Format() *Format { return d.format }

// Reused reports how many elements the last Update carried over from the
// previous tree.
func (d *Document) Reused() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.reused
}

// Update reparses the document from source, keeping the previous Element
// objects for every subtree whose source text is byte-identical.
func (d *Document) Update(source []byte) error {
	return d.load(source, true)
}

// Replace reparses the document from source without reusing any element.
func (d *Document) Replace(source []byte) error {
	return d.load(source, false)
}

// Reload rereads the document from its path.
func (d *Document) Reload() error {
	source, err := os.ReadFile(d.path)
	if err != nil {
		return err
	}
	return d.Update(source)
}

func (d *Document) load(source []byte, reuse bool) error {
	root, err := d.format.Parse(source)
	if err != nil {
		return fmt.Errorf("%s: %w", d.path, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	reused := 0
	if reuse && root != nil && d.root != nil {
		root, reused = reuseUnchanged(d.root, d.source, root, source)
	}

	roots, err := d.format.Render(source, root)
	if err != nil {
		return fmt.Errorf("%s: %w", d.path, err)
	}

	d.source = source
	d.root = root
	d.roots = roots
	d.reused = reused
	return nil
}

// Read calls fn with the current root tag (nil for an empty document) and
// its rendered snapshot nodes. The document cannot change while fn runs.
func (d *Document) Read(fn func(root model.Tag, roots []*model.SnapshotNode)) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var root model.Tag
	if d.root != nil {
		root = d.root
	}
	fn(root, d.roots)
}

// Root returns the current root element, or nil.
func (d *Document) Root() *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.root
}

// reuseUnchanged swaps subtrees of next for elements of prev with identical
// source text and identical inherited namespace declarations. An old element
// is handed out at most once, and never when any part of its subtree is
// already in use.
func reuseUnchanged(prev *Element, prevSrc []byte, next *Element, nextSrc []byte) (*Element, int) {
	prevScopes := inheritedNamespaces(prev)
	nextScopes := inheritedNamespaces(next)

	pool := make(map[string][]*Element)
	prev.walk(func(e *Element) {
		key := prevScopes[e] + "\x00" + string(prevSrc[e.start:e.end])
		pool[key] = append(pool[key], e)
	})

	used := make(map[*Element]struct{})
	available := func(e *Element) bool {
		ok := true
		e.walk(func(x *Element) {
			if _, taken := used[x]; taken {
				ok = false
			}
		})
		return ok
	}
	take := func(key string) *Element {
		list := pool[key]
		for i, e := range list {
			if available(e) {
				pool[key] = append(list[:i:i], list[i+1:]...)
				return e
			}
		}
		return nil
	}

	count := 0
	var visit func(e *Element) *Element
	visit = func(e *Element) *Element {
		if old := take(nextScopes[e] + "\x00" + string(nextSrc[e.start:e.end])); old != nil {
			old.walk(func(x *Element) { used[x] = struct{}{} })
			old.shift(e.start - old.start)
			count += old.size()
			return old
		}
		if len(e.children) > 0 {
			children := make([]*Element, len(e.children))
			for i, c := range e.children {
				children[i] = visit(c)
			}
			e.setChildren(children)
		}
		return e
	}
	return visit(next), count
}

// inheritedNamespaces maps every element under root to the namespace
// declarations its ancestors put in scope, encoded in prefix order. An
// element's own declarations are part of its source text.
func inheritedNamespaces(root *Element) map[*Element]string {
	out := make(map[*Element]string)
	var visit func(e *Element, scope map[string]string, encoded string)
	visit = func(e *Element, scope map[string]string, encoded string) {
		out[e] = encoded
		inner, innerEncoded := scope, encoded
		if decls := namespaceDecls(e); len(decls) > 0 {
			inner = make(map[string]string, len(scope)+len(decls))
			maps.Copy(inner, scope)
			maps.Copy(inner, decls)
			innerEncoded = encodeScope(inner)
		}
		for _, c := range e.children {
			visit(c, inner, innerEncoded)
		}
	}
	visit(root, nil, "")
	return out
}

// namespaceDecls returns the xmlns declarations on e keyed by prefix, with ""
// for the default namespace.
func namespaceDecls(e *Element) map[string]string {
	var decls map[string]string
	for _, a := range e.attrs {
		prefix, ok := "", false
		switch {
		case a.Space == "xmlns":
			prefix, ok = a.Local, true
		case a.Space == "" && a.Local == "xmlns":
			ok = true
		case a.Space == "" && strings.HasPrefix(a.Local, "xmlns:"):
			prefix, ok = strings.TrimPrefix(a.Local, "xmlns:"), true
		}
		if !ok {
			continue
		}
		if decls == nil {
			decls = make(map[string]string)
		}
		decls[prefix] = a.Value
	}
	return decls
}

func encodeScope(scope map[string]string) string {
	var b strings.Builder
	for _, prefix := range slices.Sorted(maps.Keys(scope)) {
		b.WriteString(prefix)
		b.WriteByte('=')
		b.WriteString(scope[prefix])
		b.WriteByte(';')
	}
	return b.String()
}
