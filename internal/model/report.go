package model

// Pass names the matching step that bound a component to its new tag.
type Pass string

const (
	PassExact     Pass = "exact"
	PassID        Pass = "id"
	PassSignature Pass = "signature"
	PassLeftover  Pass = "leftover"
	PassNew       Pass = "new"
)

// Status is the fate of a component after one reconciliation.
type Status string

const (
	Kept    Status = "kept"
	Created Status = "created"
	Dropped Status = "dropped"
)

// ComponentRow is one component in a report.
type ComponentRow struct {
	Key    string
	Parent string
	Depth  int
	Tag    string
	ID     string
	Status Status
	Pass   Pass
}

// FileReport holds the reconciliation outcome for one document.
type FileReport struct {
	Path        string
	Format      string
	Components  []ComponentRow
	Dropped     []ComponentRow
	Invalidated bool
	// TagsReused counts parsed elements carried over from the previous
	// parse of the same document.
	TagsReused int
}

// Report is the complete output of a run, ready for serialization.
type Report struct {
	Root  string
	Files []FileReport
}

// Count returns how many rows of the report have status s.
func (f *FileReport) Count(s Status) int {
	if s == Dropped {
		return len(f.Dropped)
	}
	n := 0
	for i := range f.Components {
		if f.Components[i].Status == s {
			n++
		}
	}
	return n
}

// Churn is the number of components created or dropped.
func (f *FileReport) Churn() int {
	return f.Count(Created) + f.Count(Dropped)
}
