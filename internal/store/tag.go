package store

import "github.com/phobologic/layoutsync/internal/model"

// storedTag stands in for a tag from an earlier run. It is never part of a
// live document.
type storedTag struct {
	name     string
	attrs    []model.Attribute
	children []model.Tag
}

func (t *storedTag) Name() string                  { return t.name }
func (t *storedTag) Children() []model.Tag         { return t.children }
func (t *storedTag) Attributes() []model.Attribute { return t.attrs }

func (t *storedTag) Attr(space, local string) (string, bool) {
	for _, a := range t.attrs {
		if a.Space == space && a.Local == local {
			return a.Value, true
		}
	}
	return "", false
}
