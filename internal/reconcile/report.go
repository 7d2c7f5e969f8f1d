package reconcile

import (
	"github.com/phobologic/layoutsync/internal/model"
)

// FileReport lays r out as report rows for the document at path. Live
// components come in preorder; dropped ones follow in old-tree order.
func (r Result) FileReport(path, format string, idAttr model.QName) model.FileReport {
	fr := model.FileReport{
		Path:        path,
		Format:      format,
		Invalidated: r.Invalidated,
	}

	var walk func(c *model.Component, depth int)
	walk = func(c *model.Component, depth int) {
		row := componentRow(c, idAttr)
		row.Depth = depth
		row.Pass = r.passes[c]
		row.Status = model.Kept
		if row.Pass == model.PassNew {
			row.Status = model.Created
		}
		fr.Components = append(fr.Components, row)
		for _, child := range c.Children() {
			walk(child, depth+1)
		}
	}
	for _, root := range r.Components {
		walk(root, 0)
	}

	for _, c := range r.Dropped {
		row := componentRow(c, idAttr)
		row.Status = model.Dropped
		fr.Dropped = append(fr.Dropped, row)
	}
	return fr
}

func componentRow(c *model.Component, idAttr model.QName) model.ComponentRow {
	row := model.ComponentRow{
		Key: c.Key(),
		Tag: c.TagName(),
		ID:  c.ID(idAttr),
	}
	if p := c.Parent(); p != nil {
		row.Parent = p.Key()
	}
	return row
}
