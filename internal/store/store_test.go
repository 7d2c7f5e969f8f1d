package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/phobologic/layoutsync/internal/doc"
	"github.com/phobologic/layoutsync/internal/idgen"
	"github.com/phobologic/layoutsync/internal/model"
	"github.com/phobologic/layoutsync/internal/reconcile"
)

const layout = `<LinearLayout xmlns:android="http://schemas.android.com/apk/res/android">
  <Button android:id="@+id/ok" android:text="OK"/>
  <TextView android:text="a"/>
  <TextView android:text="a"/>
</LinearLayout>`

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:", nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func syncSource(t *testing.T, m *reconcile.Model, source string) reconcile.Result {
	t.Helper()
	d, err := doc.New(doc.Formats["xml"], "main.xml", []byte(source))
	if err != nil {
		t.Fatal(err)
	}
	var res reconcile.Result
	d.Read(func(root model.Tag, roots []*model.SnapshotNode) {
		res = m.Sync(root, roots)
	})
	return res
}

func keys(components []*model.Component) []string {
	var out []string
	for _, root := range components {
		for _, c := range root.Flatten() {
			out = append(out, c.Key())
		}
	}
	return out
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	m := reconcile.NewModel(reconcile.WithKeys(idgen.Sequence("c")))
	syncSource(t, m, layout)
	if err := s.Save(ctx, "res/layout/main.xml", "xml", m.Components()); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.Load(ctx, "res/layout/main.xml")
	if err != nil {
		t.Fatal(err)
	}
	want, got := keys(m.Components()), keys(loaded)
	if len(got) != len(want) {
		t.Fatalf("loaded keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("key %d = %s, want %s", i, got[i], want[i])
		}
	}

	root := loaded[0]
	if root.TagName() != "LinearLayout" || len(root.Children()) != 3 {
		t.Fatalf("root = %s with %d children", root, len(root.Children()))
	}
	button := root.Children()[0]
	if button.Parent() != root {
		t.Error("parent link not restored")
	}
	if button.ID(model.AndroidID) != "ok" {
		t.Errorf("button id = %q", button.ID(model.AndroidID))
	}
	orig := m.Components()[0].Children()[0].Snapshot()
	if button.Snapshot().Signature != orig.Signature {
		t.Error("signature did not survive the round trip")
	}
	if len(root.Tag().Children()) != 3 {
		t.Error("stored tag has no children")
	}
}

func TestLoadedTreeReconciles(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	first := reconcile.NewModel(reconcile.WithKeys(idgen.Sequence("a")))
	syncSource(t, first, layout)
	if err := s.Save(ctx, "main.xml", "xml", first.Components()); err != nil {
		t.Fatal(err)
	}
	before := keys(first.Components())

	loaded, err := s.Load(ctx, "main.xml")
	if err != nil {
		t.Fatal(err)
	}
	second := reconcile.NewModelWith(loaded,
		reconcile.WithKeys(idgen.Sequence("b")), reconcile.WithIntegrityChecks(true))
	res := syncSource(t, second, layout)

	after := keys(second.Components())
	for i := range before {
		if after[i] != before[i] {
			t.Errorf("key %d = %s, want %s", i, after[i], before[i])
		}
	}
	if res.Counts[model.PassExact] != 0 {
		t.Errorf("exact matches = %d, want 0 for stored tags", res.Counts[model.PassExact])
	}
	if len(res.Created) != 0 {
		t.Errorf("created = %d, want 0", len(res.Created))
	}
}

func TestSaveReplacesAndForget(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	m := reconcile.NewModel(reconcile.WithKeys(idgen.Sequence("c")))
	syncSource(t, m, layout)
	if err := s.Save(ctx, "a.xml", "xml", m.Components()); err != nil {
		t.Fatal(err)
	}
	syncSource(t, m, `<FrameLayout/>`)
	if err := s.Save(ctx, "a.xml", "xml", m.Components()); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, "b.html", "html", nil); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.Load(ctx, "a.xml")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys(loaded)) != 1 {
		t.Errorf("loaded %d components, want 1", len(keys(loaded)))
	}

	docs, err := s.Paths(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 || docs[0].Path != "a.xml" || docs[0].Components != 1 || docs[1].Format != "html" {
		t.Errorf("Paths = %+v", docs)
	}

	if err := s.Forget(ctx, "a.xml"); err != nil {
		t.Fatal(err)
	}
	loaded, err = s.Load(ctx, "a.xml")
	if err != nil || loaded != nil {
		t.Errorf("after Forget: %v, %v", loaded, err)
	}
	docs, _ = s.Paths(ctx)
	if len(docs) != 1 {
		t.Errorf("Paths after Forget = %+v", docs)
	}
}

func TestOpenFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	s, err := Open(ctx, path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, "x.html", "html", nil); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(ctx, path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	docs, err := s.Paths(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].Path != "x.html" {
		t.Errorf("Paths = %+v", docs)
	}
}
