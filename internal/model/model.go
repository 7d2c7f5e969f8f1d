// Package model defines core data structures for layoutsync.
package model

import "strings"

// AndroidURI is the namespace of the android: attribute prefix.
const AndroidURI = "http://schemas.android.com/apk/res/android"

const (
	newIDPrefix = "@+id/"
	idPrefix    = "@id/"
)

// QName is a namespace-qualified attribute name. Space is a namespace URI,
// or "" for unqualified attributes.
type QName struct {
	Space string
	Local string
}

// AndroidID is the declared id attribute of Android layouts.
var AndroidID = QName{Space: AndroidURI, Local: "id"}

// Attribute is a single attribute value on a tag.
type Attribute struct {
	Space string
	Local string
	Value string
}

// Tag is a node of an externally owned document tree.
//
// Identity is interface equality: two Tag values are the same node only if
// they compare equal with ==. Document infrastructure may hand out the same
// node across reparses or a brand new one; callers must tolerate both.
type Tag interface {
	Name() string
	Children() []Tag
	Attr(space, local string) (string, bool)
	Attributes() []Attribute
}

// Spanned is implemented by tags that know the byte range of their source
// text, end exclusive.
type Spanned interface {
	Span() (start, end int)
}

// StripID returns the bare name of an id reference, removing a leading
// "@+id/" or "@id/". Values without a prefix are returned unchanged.
func StripID(id string) string {
	if strings.HasPrefix(id, newIDPrefix) {
		return id[len(newIDPrefix):]
	}
	if strings.HasPrefix(id, idPrefix) {
		return id[len(idPrefix):]
	}
	return id
}
