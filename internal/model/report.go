package model

import (
	"fmt"
	"strings"
)

// Report tables
const (
	TableHeader = "header"
	TableSector = "sector"
	TableWall   = "wall"
	TableSprite = "sprite"
	TableSource = "source"
)

// Action describes what happened to a reported record.
type Action int

const (
	ActionWarned   Action = iota // record kept as is
	ActionDropped                // record excluded from the output
	ActionRepaired               // record kept with corrected fields
	ActionSkipped                // record kept in the map but produced no geometry
)

func (a Action) String() string {
	switch a {
	case ActionDropped:
		return "dropped"
	case ActionRepaired:
		return "repaired"
	case ActionSkipped:
		return "skipped"
	default:
		return "warning"
	}
}

// ReportEntry is one diagnostic about a single record or source.
type ReportEntry struct {
	Table  string `json:"table"`
	Index  int    `json:"index"` // record index, -1 when the entry concerns a whole table
	Reason string `json:"reason"`
	Action Action `json:"action"`
}

func (e ReportEntry) String() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s (%s)", e.Table, e.Reason, e.Action)
	}
	return fmt.Sprintf("%s %d: %s (%s)", e.Table, e.Index, e.Reason, e.Action)
}

// Report collects every dropped, skipped, repaired or suspicious record
// found while importing a map.
type Report struct {
	Entries []ReportEntry `json:"entries"`
}

// Add appends an entry.
func (r *Report) Add(table string, index int, action Action, format string, args ...interface{}) {
	r.Entries = append(r.Entries, ReportEntry{
		Table:  table,
		Index:  index,
		Reason: fmt.Sprintf(format, args...),
		Action: action,
	})
}

// Merge appends all entries of other.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Entries = append(r.Entries, other.Entries...)
}

// Len returns the number of entries.
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Entries)
}

// Empty reports whether nothing was recorded.
func (r *Report) Empty() bool { return r.Len() == 0 }

// Count returns how many entries carry the given action.
func (r *Report) Count(action Action) int {
	n := 0
	for _, e := range r.Entries {
		if e.Action == action {
			n++
		}
	}
	return n
}

// Filter returns the entries for one table.
func (r *Report) Filter(table string) []ReportEntry {
	var out []ReportEntry
	for _, e := range r.Entries {
		if e.Table == table {
			out = append(out, e)
		}
	}
	return out
}

func (r *Report) String() string {
	var sb strings.Builder
	for _, e := range r.Entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
