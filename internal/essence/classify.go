package essence

import "strings"

// Essence labels the language a fragment appears to imitate.
type Essence string

const (
	EssenceGo         Essence = "GO"
	EssenceRust       Essence = "RUST"
	EssenceJavaScript Essence = "JAVASCRIPT"
	EssenceC          Essence = "C"
	EssenceSwift      Essence = "SWIFT"
)

// Operation labels the kind of behavior a marker implies.
type Operation string

const (
	OpAssignment  Operation = "assignment"
	OpConcurrency Operation = "concurrency"
	OpOwnership   Operation = "ownership"
	OpAsync       Operation = "async"
	OpMemory      Operation = "memory"
	OpOptional    Operation = "optional"
)

// Match records one triggered marker row.
type Match struct {
	Essence   Essence   `json:"essence"`
	Operation Operation `json:"operation"`
	Marker    string    `json:"marker"`
}

// Classification is the result of a classification pass. Entries are kept in
// table order and are not deduplicated across rows.
type Classification struct {
	Essences   []Essence   `json:"essences"`
	Operations []Operation `json:"operations"`
	Matches    []Match     `json:"matches"`
}

// Has reports whether the pair appears in the classification.
func (c Classification) Has(e Essence, op Operation) bool {
	for _, m := range c.Matches {
		if m.Essence == e && m.Operation == op {
			return true
		}
	}
	return false
}

// Count returns how many times the pair was recorded.
func (c Classification) Count(e Essence, op Operation) int {
	n := 0
	for _, m := range c.Matches {
		if m.Essence == e && m.Operation == op {
			n++
		}
	}
	return n
}

type markerRow struct {
	essence   Essence
	operation Operation
	markers   []string
}

var markerTable = []markerRow{
	{essence: EssenceGo, operation: OpAssignment, markers: []string{":="}},
	{essence: EssenceGo, operation: OpConcurrency, markers: []string{"go ", "<-"}},
	{essence: EssenceRust, operation: OpOwnership, markers: []string{"own!", "borrow!", "move!"}},
	{essence: EssenceJavaScript, operation: OpAsync, markers: []string{"await", ".then", "=>", "event!"}},
	{essence: EssenceC, operation: OpMemory, markers: []string{"*ptr", "malloc!", "&ref"}},
	{essence: EssenceSwift, operation: OpOptional, markers: []string{"?", "??", "guard!"}},
}

// Classify scans line for essence markers. It is a pure substring scan: one
// entry per table row with at least one marker present.
func Classify(line string) Classification {
	out := Classification{
		Essences:   []Essence{},
		Operations: []Operation{},
		Matches:    []Match{},
	}
	for _, row := range markerTable {
		for _, marker := range row.markers {
			if !strings.Contains(line, marker) {
				continue
			}
			out.Essences = append(out.Essences, row.essence)
			out.Operations = append(out.Operations, row.operation)
			out.Matches = append(out.Matches, Match{
				Essence:   row.essence,
				Operation: row.operation,
				Marker:    marker,
			})
			break
		}
	}
	return out
}
