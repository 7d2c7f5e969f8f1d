package reconcile

import (
	"github.com/phobologic/layoutsync/internal/model"
)

// mapOldToNew binds tags of the new tree to components of the old tree.
// Bindings land in u.tagToComponent; any new tag left unbound gets a fresh
// component in createTree.
func (u *updater) mapOldToNew(old []*model.Component, newRoot model.Tag) {
	for _, c := range old {
		u.gatherComponents(c)
	}

	// Old tags still present in the new tree need no work. What is left in
	// remaining vanished from the document; missing holds new tags in
	// preorder.
	remaining := make(map[model.Tag]struct{}, len(u.tagToComponent))
	for tag := range u.tagToComponent {
		remaining[tag] = struct{}{}
	}
	var missing []model.Tag
	checkMissing(newRoot, remaining, &missing)

	// Nothing added, or nothing of the old tree survived: either way there
	// is nothing left to correlate.
	if len(missing) == 0 || len(remaining) == 0 {
		return
	}

	missing = u.matchByID(missing, remaining)
	if len(missing) == 0 || len(remaining) == 0 {
		return
	}

	missing = u.matchBySignature(missing, remaining)
	u.matchLeftover(missing, remaining)
}

func checkMissing(tag model.Tag, remaining map[model.Tag]struct{}, missing *[]model.Tag) {
	if _, ok := remaining[tag]; ok {
		delete(remaining, tag)
	} else {
		*missing = append(*missing, tag)
	}
	for _, child := range tag.Children() {
		checkMissing(child, remaining, missing)
	}
}

// remainingComponents returns the components of the remaining old tags in
// old-tree preorder.
func (u *updater) remainingComponents(remaining map[model.Tag]struct{}) []*model.Component {
	out := make([]*model.Component, 0, len(remaining))
	for _, tag := range u.oldOrder {
		if _, ok := remaining[tag]; !ok {
			continue
		}
		if c := u.tagToComponent[tag]; c != nil {
			out = append(out, c)
		}
	}
	return out
}

// matchByID binds missing tags to remaining components with the same
// declared id. The old side is read from snapshots since the old tags may
// no longer be valid. Returns the still-missing tags.
func (u *updater) matchByID(missing []model.Tag, remaining map[model.Tag]struct{}) []model.Tag {
	attr := u.opts.idAttr
	oldIDs := make(map[string]*model.Component)
	for _, c := range u.remainingComponents(remaining) {
		s := c.Snapshot()
		if s == nil {
			continue
		}
		id, ok := s.Attr(attr.Space, attr.Local)
		if !ok {
			continue
		}
		id = model.StripID(id)
		if _, dup := oldIDs[id]; !dup {
			oldIDs[id] = c
		}
	}
	if len(oldIDs) == 0 {
		return missing
	}

	left := missing[:0:0]
	for _, tag := range missing {
		if id, ok := tag.Attr(attr.Space, attr.Local); ok {
			id = model.StripID(id)
			if c := oldIDs[id]; c != nil {
				delete(oldIDs, id)
				delete(remaining, c.Tag())
				u.record(tag, c, model.PassID)
				continue
			}
		}
		left = append(left, tag)
	}
	return left
}

// matchBySignature pairs missing tags with remaining components whose
// snapshot signature matches. Identical elements repeated several times are
// claimed in old-tree order, so they pair up one-to-one in the order they
// appear.
func (u *updater) matchBySignature(missing []model.Tag, remaining map[model.Tag]struct{}) []model.Tag {
	candidates := make(map[uint64][]*model.Component)
	for _, c := range u.remainingComponents(remaining) {
		if s := c.Snapshot(); s != nil {
			candidates[s.Signature] = append(candidates[s.Signature], c)
		}
	}
	if len(candidates) == 0 {
		return missing
	}

	left := missing[:0:0]
	for _, tag := range missing {
		s := u.tagToSnapshot[tag]
		if s == nil {
			left = append(left, tag)
			continue
		}
		list := candidates[s.Signature]
		if len(list) == 0 {
			left = append(left, tag)
			continue
		}
		c := list[0]
		candidates[s.Signature] = list[1:]
		delete(remaining, c.Tag())
		u.record(tag, c, model.PassSignature)
	}
	return left
}

// matchLeftover handles a single edited element whose attributes changed
// enough to defeat the signature pass.
func (u *updater) matchLeftover(missing []model.Tag, remaining map[model.Tag]struct{}) {
	if len(missing) != 1 || len(remaining) != 1 {
		return
	}
	for oldTag := range remaining {
		c := u.tagToComponent[oldTag]
		if c != nil && c.TagName() == missing[0].Name() {
			delete(remaining, oldTag)
			u.record(missing[0], c, model.PassLeftover)
		}
	}
}
