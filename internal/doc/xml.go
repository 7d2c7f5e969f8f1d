package doc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"

	"github.com/phobologic/layoutsync/internal/model"
)

// mergeTag is the Android layout root that contributes its children to the
// parent view without producing a view of its own.
const mergeTag = "merge"

func init() {
	Formats["xml"] = &Format{
		Name:       "xml",
		Extensions: []string{".xml"},
		IDAttr:     model.AndroidID,
		parse:      parseXML,
		render:     renderXML,
	}
}

func parseXML(source []byte) (*Element, error) {
	d := xml.NewDecoder(bytes.NewReader(source))

	var (
		root  *Element
		stack []*Element
	)
	for {
		offset := int(d.InputOffset())
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			e := &Element{name: t.Name.Local, start: offset}
			for _, a := range t.Attr {
				e.attrs = append(e.attrs, model.Attribute{
					Space: a.Name.Space,
					Local: a.Name.Local,
					Value: a.Value,
				})
			}
			switch {
			case len(stack) > 0:
				stack[len(stack)-1].appendChild(e)
			case root == nil:
				root = e
			default:
				return nil, errors.New("multiple root elements")
			}
			stack = append(stack, e)
		case xml.EndElement:
			e := stack[len(stack)-1]
			e.end = int(d.InputOffset())
			stack = stack[:len(stack)-1]
		}
	}

	if len(stack) > 0 {
		return nil, io.ErrUnexpectedEOF
	}
	return root, nil
}

// renderXML inflates one view per element. A <merge> element has no view of
// its own; its children attach to whatever holds the merge.
func renderXML(_ []byte, root *Element) ([]*model.SnapshotNode, error) {
	return inflate(root), nil
}

func inflate(e *Element) []*model.SnapshotNode {
	var children []*model.SnapshotNode
	for _, c := range e.children {
		children = append(children, inflate(c)...)
	}
	if e.name == mergeTag {
		return children
	}
	return []*model.SnapshotNode{{Snapshot: model.Capture(e), Children: children}}
}
