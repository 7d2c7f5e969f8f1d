package doc

import (
	"github.com/phobologic/layoutsync/internal/model"
)

// Element is one parsed tag of a document. It records the byte span of its
// source text so a later parse can recognise unchanged subtrees.
type Element struct {
	name     string
	attrs    []model.Attribute
	children []*Element
	tags     []model.Tag
	start    int
	end      int
}

// Name returns the tag name as written in the source.
func (e *Element) Name() string { return e.name }

// Children returns the child tags in document order.
func (e *Element) Children() []model.Tag { return e.tags }

// Elements returns the child elements in document order.
func (e *Element) Elements() []*Element { return e.children }

// Attributes returns the attributes in source order.
func (e *Element) Attributes() []model.Attribute { return e.attrs }

// Attr looks up an attribute by namespace URI and local name.
func (e *Element) Attr(space, local string) (string, bool) {
	for _, a := range e.attrs {
		if a.Space == space && a.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// Span returns the byte offsets of the element's source text.
func (e *Element) Span() (start, end int) { return e.start, e.end }

func (e *Element) appendChild(c *Element) {
	e.children = append(e.children, c)
	e.tags = append(e.tags, c)
}

func (e *Element) setChildren(children []*Element) {
	e.children = children
	e.tags = make([]model.Tag, len(children))
	for i, c := range children {
		e.tags[i] = c
	}
}

func (e *Element) walk(fn func(*Element)) {
	fn(e)
	for _, c := range e.children {
		c.walk(fn)
	}
}

func (e *Element) shift(delta int) {
	if delta == 0 {
		return
	}
	e.walk(func(x *Element) {
		x.start += delta
		x.end += delta
	})
}

func (e *Element) size() int {
	n := 0
	e.walk(func(*Element) { n++ })
	return n
}
