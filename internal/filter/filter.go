// Package filter narrows a report to the files and rows worth showing.
package filter

import (
	"sort"
	"strings"

	"github.com/phobologic/layoutsync/internal/model"
)

// SelectFiles returns a new Report with only the maxFiles files that changed
// most, ranked by churn (created plus dropped components) and then by path.
// If maxFiles is <= 0 or >= len(files), the report is returned unchanged.
func SelectFiles(r *model.Report, maxFiles int) *model.Report {
	if maxFiles <= 0 || maxFiles >= len(r.Files) {
		return r
	}

	ranked := make([]model.FileReport, len(r.Files))
	copy(ranked, r.Files)
	sort.SliceStable(ranked, func(i, j int) bool {
		ci, cj := ranked[i].Churn(), ranked[j].Churn()
		if ci != cj {
			return ci > cj
		}
		return ranked[i].Path < ranked[j].Path
	})

	selected := ranked[:maxFiles]
	// Present the survivors in path order.
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Path < selected[j].Path
	})

	return &model.Report{
		Root:  r.Root,
		Files: selected,
	}
}

// ByFile returns a new Report containing only files whose path contains
// substr (case-insensitive).
func ByFile(r *model.Report, substr string) *model.Report {
	lower := strings.ToLower(substr)

	var files []model.FileReport
	for i := range r.Files {
		if strings.Contains(strings.ToLower(r.Files[i].Path), lower) {
			files = append(files, r.Files[i])
		}
	}

	return &model.Report{
		Root:  r.Root,
		Files: files,
	}
}

// ByStatus returns a new Report containing only rows with the given status.
// Files left with no rows are removed.
func ByStatus(r *model.Report, status model.Status) *model.Report {
	var files []model.FileReport
	for i := range r.Files {
		fr := r.Files[i]
		if status == model.Dropped {
			fr.Components = nil
		} else {
			fr.Dropped = nil
			var rows []model.ComponentRow
			for _, row := range fr.Components {
				if row.Status == status {
					rows = append(rows, row)
				}
			}
			fr.Components = rows
		}
		if len(fr.Components) > 0 || len(fr.Dropped) > 0 {
			files = append(files, fr)
		}
	}

	return &model.Report{
		Root:  r.Root,
		Files: files,
	}
}

// ParseStatus maps a status name to a Status. The second result is false for
// an unknown name.
func ParseStatus(s string) (model.Status, bool) {
	switch st := model.Status(strings.ToLower(s)); st {
	case model.Kept, model.Created, model.Dropped:
		return st, true
	}
	return "", false
}
