package reconcile

import (
	"github.com/phobologic/layoutsync/internal/model"
)

// Listener is notified after every Sync.
type Listener interface {
	ModelChanged(m *Model, res Result)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(m *Model, res Result)

// ModelChanged calls f.
func (f ListenerFunc) ModelChanged(m *Model, res Result) { f(m, res) }

// Model owns the component tree of one document. The component list is only
// ever replaced as a whole.
type Model struct {
	opts       options
	components []*model.Component
	version    int64
	listeners  []*listenerEntry
	syncing    bool
}

type listenerEntry struct{ l Listener }

// NewModel returns an empty model.
func NewModel(opts ...Option) *Model {
	return &Model{opts: newOptions(opts)}
}

// NewModelWith returns a model seeded with components, such as a tree loaded
// from a store.
func NewModelWith(components []*model.Component, opts ...Option) *Model {
	m := NewModel(opts...)
	m.components = components
	return m
}

// Sync reconciles the model against newRoot and its rendered roots, replaces
// the component list and notifies listeners. Calling Sync again before it
// returns, including from a listener, panics.
func (m *Model) Sync(newRoot model.Tag, roots []*model.SnapshotNode) Result {
	if m.syncing {
		panic("reconcile: Sync called while a sync is in progress")
	}
	m.syncing = true
	defer func() { m.syncing = false }()

	res := newUpdater(m.opts).update(m.components, newRoot, roots)
	m.components = res.Components
	m.version++

	listeners := append([]*listenerEntry(nil), m.listeners...)
	for _, e := range listeners {
		e.l.ModelChanged(m, res)
	}
	return res
}

// Components returns the current component list: a single root, or nothing
// for an empty document.
func (m *Model) Components() []*model.Component { return m.components }

// Version counts completed syncs.
func (m *Model) Version() int64 { return m.version }

// IDAttr returns the declared-id attribute the model matches on.
func (m *Model) IDAttr() model.QName { return m.opts.idAttr }

// AddListener registers l and returns a function that unregisters it.
func (m *Model) AddListener(l Listener) (remove func()) {
	entry := &listenerEntry{l: l}
	m.listeners = append(m.listeners, entry)
	return func() {
		for i, e := range m.listeners {
			if e == entry {
				m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

// Flatten returns every component in preorder.
func (m *Model) Flatten() []*model.Component {
	var out []*model.Component
	for _, c := range m.components {
		out = append(out, c.Flatten()...)
	}
	return out
}

// Find returns the first component whose declared id equals id.
func (m *Model) Find(id string) *model.Component {
	if id == "" {
		return nil
	}
	for _, c := range m.Flatten() {
		if c.ID(m.opts.idAttr) == id {
			return c
		}
	}
	return nil
}

// FindByTag returns the component bound to tag.
func (m *Model) FindByTag(tag model.Tag) *model.Component {
	for _, c := range m.components {
		if found := c.FindByTag(tag); found != nil {
			return found
		}
	}
	return nil
}

// FindByOffset returns the deepest component whose tag's source text
// contains offset, or nil. Tags without a source span never match.
func (m *Model) FindByOffset(offset int) *model.Component {
	var found *model.Component
	candidates := m.components
	for {
		var next *model.Component
		for _, c := range candidates {
			if s, ok := c.Tag().(model.Spanned); ok {
				if start, end := s.Span(); start <= offset && offset < end {
					next = c
					break
				}
			}
		}
		if next == nil {
			return found
		}
		found = next
		candidates = next.Children()
	}
}

// CheckStructure verifies the current tree. See CheckStructure.
func (m *Model) CheckStructure() error {
	return CheckStructure(m.components)
}
