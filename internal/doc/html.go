package doc

import (
	"bytes"
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	sitterhtml "github.com/smacker/go-tree-sitter/html"
	"golang.org/x/net/html"

	"github.com/phobologic/layoutsync/internal/model"
)

// fragmentTag names the element that wraps a document with several
// top-level elements.
const fragmentTag = "#fragment"

// alignWindow bounds how far the renderer looks ahead in the source for an
// element the HTML parser moved or dropped.
const alignWindow = 8

func init() {
	Formats["html"] = &Format{
		Name:       "html",
		Extensions: []string{".html", ".htm"},
		IDAttr:     model.QName{Local: "id"},
		parse:      parseHTML,
		render:     renderHTML,
	}
}

// parseHTML builds the tag tree from tree-sitter's syntax tree, which keeps
// the source structure exactly as written.
func parseHTML(source []byte) (*Element, error) {
	p := sitter.NewParser()
	p.SetLanguage(sitterhtml.GetLanguage())

	tree, err := p.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	top := &Element{name: fragmentTag, start: 0, end: len(source)}
	collectElements(tree.RootNode(), source, top)

	switch len(top.children) {
	case 0:
		return nil, nil
	case 1:
		return top.children[0], nil
	default:
		return top, nil
	}
}

func collectElements(n *sitter.Node, source []byte, parent *Element) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "element", "script_element", "style_element":
			parent.appendChild(buildElement(child, source))
		case "ERROR":
			collectElements(child, source, parent)
		}
	}
}

func buildElement(n *sitter.Node, source []byte) *Element {
	e := &Element{start: int(n.StartByte()), end: int(n.EndByte())}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "start_tag", "self_closing_tag":
			readStartTag(e, child, source)
		case "element", "script_element", "style_element":
			e.appendChild(buildElement(child, source))
		case "ERROR":
			collectElements(child, source, e)
		}
	}
	return e
}

func readStartTag(e *Element, n *sitter.Node, source []byte) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "tag_name":
			e.name = nodeText(child, source)
		case "attribute":
			e.attrs = append(e.attrs, readAttribute(child, source))
		}
	}
}

func readAttribute(n *sitter.Node, source []byte) model.Attribute {
	var a model.Attribute
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "attribute_name":
			a.Local = nodeText(child, source)
		case "attribute_value":
			a.Value = nodeText(child, source)
		case "quoted_attribute_value":
			// An empty quoted value has no attribute_value child.
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if v := child.NamedChild(j); v.Type() == "attribute_value" {
					a.Value = nodeText(v, source)
				}
			}
		}
	}
	a.Value = html.UnescapeString(a.Value)
	return a
}

func nodeText(n *sitter.Node, source []byte) string {
	return string(source[n.StartByte():n.EndByte()])
}

// renderHTML runs the HTML5 tree construction algorithm over the source, so
// implied elements (html, head, body, tbody) appear as synthetic nodes and
// misnested markup is restructured. A rendered element is paired with a
// source element of the same name among the source children of its nearest
// paired ancestor. Source elements the parser moved out of reach get a
// snapshot node of their own after the rendered roots.
func renderHTML(source []byte, root *Element) ([]*model.SnapshotNode, error) {
	parsed, err := html.Parse(bytes.NewReader(source))
	if err != nil {
		return nil, err
	}

	top := root
	if root.name != fragmentTag {
		top = &Element{children: []*Element{root}}
	}
	a := &aligner{
		claimed: make(map[*Element]bool),
		first:   make(map[*Element]int),
	}

	var roots []*model.SnapshotNode
	for c := parsed.FirstChild; c != nil; c = c.NextSibling {
		roots = append(roots, a.render(c, top)...)
	}

	root.walk(func(e *Element) {
		if e.name != fragmentTag && !a.claimed[e] {
			roots = append(roots, &model.SnapshotNode{Snapshot: model.Capture(e)})
		}
	})
	return roots, nil
}

type aligner struct {
	claimed map[*Element]bool
	// first is the index of the first unclaimed source child of a parent.
	first map[*Element]int
}

func (a *aligner) render(n *html.Node, parent *Element) []*model.SnapshotNode {
	if n.Type != html.ElementNode {
		return nil
	}
	node := &model.SnapshotNode{}
	scope := parent
	if e := a.claim(parent, n.Data); e != nil {
		node.Snapshot = model.Capture(e)
		scope = e
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		node.Children = append(node.Children, a.render(c, scope)...)
	}
	return []*model.SnapshotNode{node}
}

// claim returns the first unclaimed source child of parent named name,
// looking at no more than alignWindow unclaimed children. Children the parser
// moved elsewhere stay available to later rendered siblings.
func (a *aligner) claim(parent *Element, name string) *Element {
	kids := parent.children
	i := a.first[parent]
	for i < len(kids) && a.claimed[kids[i]] {
		i++
	}
	a.first[parent] = i

	for looked := 0; i < len(kids) && looked < alignWindow; i++ {
		e := kids[i]
		if a.claimed[e] {
			continue
		}
		looked++
		if strings.EqualFold(e.name, name) {
			a.claimed[e] = true
			return e
		}
	}
	return nil
}
