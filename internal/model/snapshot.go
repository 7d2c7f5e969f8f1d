package model

import (
	"encoding/binary"
	"hash/fnv"
	"sort"
)

// Snapshot is an immutable capture of a tag's name and attributes taken at
// one point in time. Signature summarizes name, attributes and child shape.
type Snapshot struct {
	Tag       Tag
	TagName   string
	Attrs     []Attribute
	Signature uint64
}

// Capture records the current state of tag.
func Capture(tag Tag) *Snapshot {
	attrs := append([]Attribute(nil), tag.Attributes()...)
	sortAttrs(attrs)

	children := tag.Children()
	childNames := make([]string, len(children))
	for i, c := range children {
		childNames[i] = c.Name()
	}

	return &Snapshot{
		Tag:       tag,
		TagName:   tag.Name(),
		Attrs:     attrs,
		Signature: Signature(tag.Name(), attrs, childNames),
	}
}

// Attr returns the captured value of an attribute.
func (s *Snapshot) Attr(space, local string) (string, bool) {
	for _, a := range s.Attrs {
		if a.Space == space && a.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// Signature hashes a tag name, its attributes and the names of its children.
// Attribute order does not affect the result.
func Signature(name string, attrs []Attribute, childNames []string) uint64 {
	sorted := attrs
	if !attrsSorted(attrs) {
		sorted = append([]Attribute(nil), attrs...)
		sortAttrs(sorted)
	}

	h := fnv.New64a()
	writeString := func(s string) {
		var n [4]byte
		binary.LittleEndian.PutUint32(n[:], uint32(len(s)))
		_, _ = h.Write(n[:])
		_, _ = h.Write([]byte(s))
	}

	writeString(name)
	for _, a := range sorted {
		writeString(a.Space)
		writeString(a.Local)
		writeString(a.Value)
	}
	// Separates attributes from children so that shifting a value between the
	// two cannot produce the same stream.
	_, _ = h.Write([]byte{0xff})
	for _, c := range childNames {
		writeString(c)
	}
	return h.Sum64()
}

func attrLess(a, b Attribute) bool {
	if a.Space != b.Space {
		return a.Space < b.Space
	}
	if a.Local != b.Local {
		return a.Local < b.Local
	}
	return a.Value < b.Value
}

func sortAttrs(attrs []Attribute) {
	sort.SliceStable(attrs, func(i, j int) bool { return attrLess(attrs[i], attrs[j]) })
}

func attrsSorted(attrs []Attribute) bool {
	for i := 1; i < len(attrs); i++ {
		if attrLess(attrs[i], attrs[i-1]) {
			return false
		}
	}
	return true
}

// SnapshotNode is one node of a rendered view tree. The tree mirrors what a
// renderer produced, which need not match the tag tree's shape. Snapshot is
// nil for synthetic nodes that have no source tag.
type SnapshotNode struct {
	Snapshot *Snapshot
	Children []*SnapshotNode
}

// Mirror builds a snapshot-node tree shaped exactly like the tag tree at root.
func Mirror(root Tag) *SnapshotNode {
	node := &SnapshotNode{Snapshot: Capture(root)}
	for _, c := range root.Children() {
		node.Children = append(node.Children, Mirror(c))
	}
	return node
}

// Walk calls fn for node and all its descendants in preorder.
func (n *SnapshotNode) Walk(fn func(*SnapshotNode)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
