// Package doc parses layout documents into tag trees and renders them into
// snapshot-node trees.
package doc

import (
	"fmt"
	"sort"
	"sync"

	"github.com/phobologic/layoutsync/internal/model"
)

// Format holds the parser and renderer for one kind of document.
type Format struct {
	Name       string
	Extensions []string
	// IDAttr is the attribute that carries a tag's declared id.
	IDAttr model.QName

	parse  func(source []byte) (*Element, error)
	render func(source []byte, root *Element) ([]*model.SnapshotNode, error)
}

// Parse builds the tag tree for source. It returns a nil root when the
// document holds no element.
func (f *Format) Parse(source []byte) (*Element, error) {
	root, err := f.parse(source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", f.Name, err)
	}
	return root, nil
}

// Render builds the snapshot-node tree for a parsed document. Its shape
// follows what the document displays, which may differ from the tag tree.
func (f *Format) Render(source []byte, root *Element) ([]*model.SnapshotNode, error) {
	if root == nil {
		return nil, nil
	}
	roots, err := f.render(source, root)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", f.Name, err)
	}
	return roots, nil
}

// Formats maps format names to their configuration.
// Populated by init() functions in per-format files.
var Formats = map[string]*Format{}

var extensionMap map[string]string
var extensionOnce sync.Once

func getExtensionMap() map[string]string {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]string)
		for _, f := range Formats {
			for _, ext := range f.Extensions {
				extensionMap[ext] = f.Name
			}
		}
	})
	return extensionMap
}

// ForExtension returns the format name for a file extension, or "" if unsupported.
func ForExtension(ext string) string {
	return getExtensionMap()[ext]
}

// Names returns the registered format names in sorted order.
func Names() []string {
	names := make([]string, 0, len(Formats))
	for name := range Formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
