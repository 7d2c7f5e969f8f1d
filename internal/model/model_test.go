package model

import "testing"

type testTag struct {
	name     string
	attrs    []Attribute
	children []Tag
}

func (t *testTag) Name() string            { return t.name }
func (t *testTag) Children() []Tag         { return t.children }
func (t *testTag) Attributes() []Attribute { return t.attrs }

func (t *testTag) Attr(space, local string) (string, bool) {
	for _, a := range t.attrs {
		if a.Space == space && a.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

func TestStripID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"@+id/button", "button"},
		{"@id/button", "button"},
		{"button", "button"},
		{"", ""},
		{"@android:id/list", "@android:id/list"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := StripID(tt.in); got != tt.want {
				t.Errorf("StripID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSignature(t *testing.T) {
	t.Parallel()

	a := []Attribute{{Local: "text", Value: "a"}, {Space: AndroidURI, Local: "id", Value: "@+id/x"}}
	reordered := []Attribute{a[1], a[0]}

	base := Signature("Button", a, nil)
	if got := Signature("Button", reordered, nil); got != base {
		t.Error("attribute order changed the signature")
	}
	if got := Signature("TextView", a, nil); got == base {
		t.Error("tag name did not change the signature")
	}
	if got := Signature("Button", a[:1], nil); got == base {
		t.Error("dropping an attribute did not change the signature")
	}
	if got := Signature("Button", a, []string{"View"}); got == base {
		t.Error("child shape did not change the signature")
	}
	if Signature("a", nil, []string{"bc"}) == Signature("ab", nil, []string{"c"}) {
		t.Error("length prefixes missing: shifted strings collide")
	}
}

func TestCaptureAndMirror(t *testing.T) {
	t.Parallel()

	child := &testTag{name: "Button", attrs: []Attribute{{Local: "text", Value: "go"}}}
	root := &testTag{name: "LinearLayout", children: []Tag{child}}

	node := Mirror(root)
	if node.Snapshot.Tag != root || node.Snapshot.TagName != "LinearLayout" {
		t.Fatalf("root snapshot = %+v", node.Snapshot)
	}
	if len(node.Children) != 1 || node.Children[0].Snapshot.Tag != child {
		t.Fatalf("children = %+v", node.Children)
	}
	if v, ok := node.Children[0].Snapshot.Attr("", "text"); !ok || v != "go" {
		t.Errorf("Attr(text) = %q, %v", v, ok)
	}

	var visited []string
	node.Walk(func(n *SnapshotNode) { visited = append(visited, n.Snapshot.TagName) })
	if len(visited) != 2 || visited[1] != "Button" {
		t.Errorf("Walk visited %v", visited)
	}

	// Mutating the tag later must not alter the capture.
	child.attrs[0].Value = "stop"
	if v, _ := node.Children[0].Snapshot.Attr("", "text"); v != "go" {
		t.Errorf("snapshot changed with its tag: %q", v)
	}
}

func TestComponentChildren(t *testing.T) {
	t.Parallel()

	tag := func(name string) Tag { return &testTag{name: name} }
	root := NewComponent(tag("LinearLayout"), "r")
	a := NewComponent(tag("Button"), "a")
	b := NewComponent(tag("Button"), "b")
	c := NewComponent(tag("TextView"), "c")

	root.SetChildren([]*Component{a, b})
	if a.Parent() != root || b.Parent() != root {
		t.Fatal("SetChildren did not set parents")
	}

	root.AddChild(c, b)
	if got := root.Children(); len(got) != 3 || got[1] != c {
		t.Fatalf("AddChild before b: %v", got)
	}

	root.SetChildren([]*Component{c})
	if a.Parent() != nil || b.Parent() != nil {
		t.Error("dropped children still point at root")
	}

	root.RemoveChild(c)
	if len(root.Children()) != 0 || c.Parent() != nil {
		t.Error("RemoveChild left state behind")
	}

	root.SetChildren([]*Component{a})
	a.SetChildren([]*Component{b})
	if b.Root() != root {
		t.Error("Root did not follow parents")
	}
	if flat := root.Flatten(); len(flat) != 3 || flat[2] != b {
		t.Errorf("Flatten = %v", flat)
	}
	if root.FindByTag(b.Tag()) != b {
		t.Error("FindByTag missed b")
	}
	if all := root.FindAllByTag(b.Tag()); len(all) != 1 {
		t.Errorf("FindAllByTag = %v", all)
	}
}

func TestComponentAddChildMovesFromOldParent(t *testing.T) {
	t.Parallel()

	tag := func(name string) Tag { return &testTag{name: name} }
	from := NewComponent(tag("LinearLayout"), "from")
	to := NewComponent(tag("FrameLayout"), "to")
	a := NewComponent(tag("Button"), "a")
	b := NewComponent(tag("Button"), "b")
	from.SetChildren([]*Component{a, b})

	to.AddChild(a, nil)
	if a.Parent() != to {
		t.Errorf("parent = %v, want to", a.Parent())
	}
	if got := from.Children(); len(got) != 1 || got[0] != b {
		t.Errorf("old parent children = %v, want [b]", got)
	}
	if got := to.Children(); len(got) != 1 || got[0] != a {
		t.Errorf("new parent children = %v, want [a]", got)
	}

	// Moving within the same parent reorders without duplicating.
	to.AddChild(b, a)
	to.AddChild(a, b)
	if got := to.Children(); len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("reordered children = %v, want [a b]", got)
	}
	if len(from.Children()) != 0 {
		t.Errorf("old parent kept %v", from.Children())
	}
}

func TestComponentSelfChildPanics(t *testing.T) {
	t.Parallel()

	c := NewComponent(&testTag{name: "View"}, "v")
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	c.SetChildren([]*Component{c})
}

func TestComponentIDAndProperties(t *testing.T) {
	t.Parallel()

	tag := &testTag{name: "Button", attrs: []Attribute{{Space: AndroidURI, Local: "id", Value: "@+id/ok"}}}
	c := NewComponent(tag, "k")
	if got := c.ID(AndroidID); got != "ok" {
		t.Errorf("ID from tag = %q, want ok", got)
	}

	c.SetSnapshot(&Snapshot{Tag: tag, TagName: "Button", Attrs: []Attribute{{Space: AndroidURI, Local: "id", Value: "@id/cancel"}}})
	if got := c.ID(AndroidID); got != "cancel" {
		t.Errorf("ID from snapshot = %q, want cancel", got)
	}

	c.SetProperty("w", 10)
	if c.Property("w") != 10 {
		t.Error("property not stored")
	}
	if c.RemoveProperty("w") != 10 || c.Property("w") != nil {
		t.Error("property not removed")
	}
}
