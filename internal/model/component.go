package model

import "fmt"

// Component is a stable-identity node bound to exactly one Tag.
// A parent owns its ordered children; the parent pointer is a plain
// back-reference and is reset whenever the child is re-parented or dropped.
type Component struct {
	key      string
	tagName  string
	tag      Tag
	children []*Component
	parent   *Component
	snapshot *Snapshot
	props    map[any]any
}

// NewComponent creates a component bound to tag. key is a caller-chosen
// stable identifier that never changes for the life of the component.
func NewComponent(tag Tag, key string) *Component {
	return &Component{
		key:     key,
		tagName: tag.Name(),
		tag:     tag,
	}
}

// Key returns the component's stable identifier.
func (c *Component) Key() string { return c.key }

// Tag returns the bound tag.
func (c *Component) Tag() Tag { return c.tag }

// TagName returns the name of the bound tag as of the last SetTag.
func (c *Component) TagName() string { return c.tagName }

// SetTag rebinds the component to tag.
func (c *Component) SetTag(tag Tag) {
	c.tag = tag
	c.tagName = tag.Name()
}

// Snapshot returns the cached snapshot, or nil.
func (c *Component) Snapshot() *Snapshot { return c.snapshot }

// SetSnapshot replaces the cached snapshot. nil clears it.
func (c *Component) SetSnapshot(s *Snapshot) { c.snapshot = s }

// Parent returns the parent component, or nil for a root or detached node.
func (c *Component) Parent() *Component { return c.parent }

// Children returns the ordered child components. The slice must not be
// modified by the caller.
func (c *Component) Children() []*Component { return c.children }

// SetChildren replaces the child list. Previous children that are not in the
// new list and still point at c have their parent reset.
func (c *Component) SetChildren(children []*Component) {
	for _, child := range children {
		if child == c {
			panic(fmt.Sprintf("model: component %s cannot be its own child", c))
		}
	}

	if len(c.children) > 0 {
		keep := make(map[*Component]struct{}, len(children))
		for _, child := range children {
			keep[child] = struct{}{}
		}
		for _, old := range c.children {
			if _, ok := keep[old]; !ok && old.parent == c {
				old.parent = nil
			}
		}
	}

	if len(children) == 0 {
		c.children = nil
		return
	}
	c.children = children
	for _, child := range children {
		child.parent = c
	}
}

// AddChild inserts child before the given sibling, or appends it when before
// is nil or not a child of c. A child that already has a parent is removed
// from it first.
func (c *Component) AddChild(child, before *Component) {
	if child == c {
		panic(fmt.Sprintf("model: component %s cannot be its own child", c))
	}
	if p := child.parent; p != nil {
		p.RemoveChild(child)
	}
	index := -1
	if before != nil {
		index = c.indexOf(before)
	}
	if index < 0 {
		c.children = append(c.children, child)
	} else {
		c.children = append(c.children, nil)
		copy(c.children[index+1:], c.children[index:])
		c.children[index] = child
	}
	child.parent = c
}

// RemoveChild detaches child from c.
func (c *Component) RemoveChild(child *Component) {
	if i := c.indexOf(child); i >= 0 {
		c.children = append(c.children[:i], c.children[i+1:]...)
		if len(c.children) == 0 {
			c.children = nil
		}
	}
	if child.parent == c {
		child.parent = nil
	}
}

// DetachParent clears the parent back-reference.
func (c *Component) DetachParent() { c.parent = nil }

func (c *Component) indexOf(child *Component) int {
	for i, ch := range c.children {
		if ch == child {
			return i
		}
	}
	return -1
}

// Root follows parent pointers to the top of the tree.
func (c *Component) Root() *Component {
	root := c
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// Flatten returns c and all its descendants in preorder.
func (c *Component) Flatten() []*Component {
	var out []*Component
	c.walk(func(n *Component) { out = append(out, n) })
	return out
}

func (c *Component) walk(fn func(*Component)) {
	fn(c)
	for _, child := range c.children {
		child.walk(fn)
	}
}

// FindByTag returns the first component in preorder bound to tag.
func (c *Component) FindByTag(tag Tag) *Component {
	if c.tag == tag {
		return c
	}
	for _, child := range c.children {
		if found := child.FindByTag(tag); found != nil {
			return found
		}
	}
	return nil
}

// FindAllByTag returns every component bound to tag, deepest first.
func (c *Component) FindAllByTag(tag Tag) []*Component {
	var out []*Component
	for _, child := range c.children {
		out = append(out, child.FindAllByTag(tag)...)
	}
	if c.tag == tag {
		out = append(out, c)
	}
	return out
}

// ID returns the declared id from the snapshot (or the tag when no snapshot
// is cached) with any "@+id/" or "@id/" prefix removed.
func (c *Component) ID(attr QName) string {
	var (
		v  string
		ok bool
	)
	if c.snapshot != nil {
		v, ok = c.snapshot.Attr(attr.Space, attr.Local)
	} else if c.tag != nil {
		v, ok = c.tag.Attr(attr.Space, attr.Local)
	}
	if !ok {
		return ""
	}
	return StripID(v)
}

// Property returns a client property.
func (c *Component) Property(key any) any {
	return c.props[key]
}

// SetProperty stores a client property. Properties survive reconciliation
// for as long as the component itself is reused.
func (c *Component) SetProperty(key, value any) {
	if c.props == nil {
		c.props = make(map[any]any)
	}
	c.props[key] = value
}

// RemoveProperty deletes a client property and returns its previous value.
func (c *Component) RemoveProperty(key any) any {
	v := c.props[key]
	delete(c.props, key)
	return v
}

func (c *Component) String() string {
	return "<" + c.tagName + ">"
}
