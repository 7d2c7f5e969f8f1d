// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/layoutsync/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a Report into TOON format.
func Encode(r *model.Report) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(r.Root)))

	var fileRows [][]string
	for i := range r.Files {
		fr := &r.Files[i]
		fileRows = append(fileRows, []string{
			fr.Path,
			fr.Format,
			strconv.Itoa(fr.Count(model.Kept)),
			strconv.Itoa(fr.Count(model.Created)),
			strconv.Itoa(fr.Count(model.Dropped)),
			strconv.Itoa(fr.TagsReused),
			yesNo(fr.Invalidated),
		})
	}
	parts = append(parts, formatTabular("files",
		[]string{"path", "format", "kept", "created", "dropped", "reused_tags", "invalidated"}, fileRows))

	var componentRows [][]string
	for i := range r.Files {
		fr := &r.Files[i]
		for j := range fr.Components {
			row := &fr.Components[j]
			componentRows = append(componentRows, []string{
				fr.Path,
				row.Key,
				row.Parent,
				strconv.Itoa(row.Depth),
				row.Tag,
				row.ID,
				string(row.Status),
				string(row.Pass),
			})
		}
	}
	parts = append(parts, formatTabular("components",
		[]string{"file", "key", "parent", "depth", "tag", "id", "status", "pass"}, componentRows))

	var droppedRows [][]string
	for i := range r.Files {
		fr := &r.Files[i]
		for j := range fr.Dropped {
			row := &fr.Dropped[j]
			droppedRows = append(droppedRows, []string{fr.Path, row.Key, row.Tag, row.ID})
		}
	}
	if len(droppedRows) > 0 {
		parts = append(parts, formatTabular("dropped", []string{"file", "key", "tag", "id"}, droppedRows))
	}

	return strings.Join(parts, "\n")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// Table encodes rows as a standalone TOON tabular array.
func Table(name string, columns []string, rows [][]string) string {
	return formatTabular(name, columns, rows)
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
