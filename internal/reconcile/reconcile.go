// Package reconcile rebuilds a component tree from a new tag tree while
// reusing as many existing component identities as possible.
//
// Matching runs as ordered passes, each only looking at tags the earlier
// passes left unmatched:
//
//  1. exact: the new tree still contains the old tag object;
//  2. id: the declared id of an old snapshot equals a new tag's id;
//  3. signature: an old snapshot's signature equals the signature of the new
//     tag's snapshot, duplicates consumed in old-tree order;
//  4. leftover: exactly one old and one new tag remain and their names agree.
//
// Tags with no match get a fresh component. Old components with no match are
// dropped.
//
// Reconciliation is synchronous and not reentrant. Callers hold whatever lock
// protects the document while it runs.
package reconcile

import (
	"github.com/phobologic/layoutsync/internal/model"
)

// Result is the outcome of one reconciliation.
type Result struct {
	// Components is [root], or empty when the document has no root.
	Components []*model.Component
	Created    []*model.Component
	Reused     []*model.Component
	Dropped    []*model.Component
	Counts     map[model.Pass]int
	// Invalidated reports that the binding map was discarded because a tag
	// changed name under a bound component.
	Invalidated bool

	passes map[*model.Component]model.Pass
}

// Pass returns the step that produced c in this result, or "" when c is not
// part of the new tree.
func (r Result) Pass(c *model.Component) model.Pass {
	return r.passes[c]
}

// Root returns the root component, or nil for an empty document.
func (r Result) Root() *model.Component {
	if len(r.Components) == 0 {
		return nil
	}
	return r.Components[0]
}

// Reconcile computes a new component tree for newRoot, reusing components
// from old. roots is the rendered snapshot-node tree for newRoot; it supplies
// the snapshots used for signature matching and the snapshots stored on the
// resulting components.
func Reconcile(old []*model.Component, newRoot model.Tag, roots []*model.SnapshotNode, opts ...Option) Result {
	return newUpdater(newOptions(opts)).update(old, newRoot, roots)
}

type updater struct {
	opts options

	tagToComponent      map[model.Tag]*model.Component
	componentToTag      map[*model.Component]model.Tag
	snapshotToComponent map[*model.Snapshot]*model.Component
	tagToSnapshot       map[model.Tag]*model.Snapshot
	passes              map[*model.Component]model.Pass

	// oldOrder lists old tags in preorder so map-backed passes stay
	// deterministic.
	oldOrder []model.Tag
}

func newUpdater(o options) *updater {
	return &updater{
		opts:                o,
		tagToComponent:      make(map[model.Tag]*model.Component),
		componentToTag:      make(map[*model.Component]model.Tag),
		snapshotToComponent: make(map[*model.Snapshot]*model.Component),
		tagToSnapshot:       make(map[model.Tag]*model.Snapshot),
		passes:              make(map[*model.Component]model.Pass),
	}
}

func (u *updater) record(tag model.Tag, c *model.Component, pass model.Pass) {
	if prev, ok := u.componentToTag[c]; ok {
		delete(u.tagToComponent, prev)
	}
	u.componentToTag[c] = tag
	u.tagToComponent[tag] = c
	u.passes[c] = pass
}

func (u *updater) reset() {
	clear(u.tagToComponent)
	clear(u.componentToTag)
	clear(u.passes)
}

func (u *updater) update(old []*model.Component, newRoot model.Tag, roots []*model.SnapshotNode) Result {
	var oldComponents []*model.Component
	for _, c := range old {
		oldComponents = append(oldComponents, c.Flatten()...)
	}

	if newRoot == nil {
		for _, c := range oldComponents {
			c.SetSnapshot(nil)
		}
		u.opts.logger.Debug("reconcile: document empty", "dropped", len(oldComponents))
		return Result{Dropped: oldComponents, Counts: map[model.Pass]int{}}
	}

	for _, root := range roots {
		u.gatherSnapshots(root)
	}

	u.mapOldToNew(old, newRoot)

	invalidated := false
	for tag, c := range u.tagToComponent {
		if c.TagName() != tag.Name() {
			// Tag objects were reused unpredictably; recompute everything.
			u.opts.logger.Debug("reconcile: binding invalidated",
				"component", c.TagName(), "tag", tag.Name())
			u.reset()
			invalidated = true
			break
		}
	}

	root := u.createTree(newRoot)
	root.DetachParent()

	live := make(map[*model.Component]struct{})
	for _, c := range root.Flatten() {
		live[c] = struct{}{}
	}

	// Clear before refreshing so no component keeps a snapshot from an
	// unrelated binding.
	for _, c := range oldComponents {
		c.SetSnapshot(nil)
	}
	for c := range live {
		c.SetSnapshot(nil)
	}
	for _, node := range roots {
		u.updateHierarchy(node, live)
	}

	res := Result{
		Components:  []*model.Component{root},
		Counts:      make(map[model.Pass]int),
		Invalidated: invalidated,
		passes:      make(map[*model.Component]model.Pass, len(live)),
	}
	for _, c := range root.Flatten() {
		pass := u.passes[c]
		res.passes[c] = pass
		res.Counts[pass]++
		if pass == model.PassNew {
			res.Created = append(res.Created, c)
		} else {
			res.Reused = append(res.Reused, c)
		}
	}
	for _, c := range oldComponents {
		if _, ok := live[c]; !ok {
			res.Dropped = append(res.Dropped, c)
		}
	}

	if u.opts.checkIntegrity {
		if err := CheckStructure(res.Components); err != nil {
			panic(err)
		}
	}

	u.opts.logger.Debug("reconcile: done",
		"exact", res.Counts[model.PassExact],
		"id", res.Counts[model.PassID],
		"signature", res.Counts[model.PassSignature],
		"leftover", res.Counts[model.PassLeftover],
		"created", len(res.Created),
		"dropped", len(res.Dropped),
		"invalidated", invalidated)

	return res
}

func (u *updater) gatherSnapshots(node *model.SnapshotNode) {
	node.Walk(func(n *model.SnapshotNode) {
		if n.Snapshot != nil && n.Snapshot.Tag != nil {
			u.tagToSnapshot[n.Snapshot.Tag] = n.Snapshot
		}
	})
}

func (u *updater) gatherComponents(c *model.Component) {
	u.record(c.Tag(), c, model.PassExact)
	u.oldOrder = append(u.oldOrder, c.Tag())
	if s := c.Snapshot(); s != nil {
		u.snapshotToComponent[s] = c
	}
	for _, child := range c.Children() {
		u.gatherComponents(child)
	}
}

func (u *updater) createTree(tag model.Tag) *model.Component {
	c := u.tagToComponent[tag]
	if c == nil {
		c = model.NewComponent(tag, u.opts.keys())
		u.record(tag, c, model.PassNew)
	} else if c.Tag() != tag {
		c.SetTag(tag)
	}

	subTags := tag.Children()
	if len(subTags) == 0 {
		c.SetChildren(nil)
		return c
	}

	if u.opts.checkIntegrity {
		u.checkSiblings(subTags)
	}

	children := make([]*model.Component, 0, len(subTags))
	for _, sub := range subTags {
		children = append(children, u.createTree(sub))
	}
	c.SetChildren(children)
	return c
}

func (u *updater) updateHierarchy(node *model.SnapshotNode, live map[*model.Component]struct{}) {
	if s := node.Snapshot; s != nil && s.Tag != nil {
		c := u.snapshotToComponent[s]
		if _, ok := live[c]; !ok {
			c = u.tagToComponent[s.Tag]
		}
		if _, ok := live[c]; ok && c.TagName() == s.TagName {
			c.SetSnapshot(s)
			if c.Tag() != s.Tag {
				c.SetTag(s.Tag)
			}
		}
	}
	for _, child := range node.Children {
		u.updateHierarchy(child, live)
	}
}
