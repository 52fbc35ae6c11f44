package bibtex

import (
	"maps"
	"slices"
	"strings"
)

// predefined is the stream position of macros supplied through Options:
// they are visible to every record.
const predefined = -1

type macroDef struct {
	text string
	seq  int
}

// MacroTable maps macro names (case-insensitive) to their literal text. A
// name may be redefined; each definition remembers the stream position of
// its @string record so that a record only sees earlier definitions.
type MacroTable struct {
	defs map[string][]macroDef // in increasing seq order
}

func newMacroTable(initial map[string]string) *MacroTable {
	t := &MacroTable{defs: make(map[string][]macroDef, len(initial))}
	for name, text := range initial {
		t.define(name, text, predefined)
	}
	return t
}

func (t *MacroTable) define(name, text string, seq int) {
	name = strings.ToLower(name)
	t.defs[name] = append(t.defs[name], macroDef{text: text, seq: seq})
}

// lookupBefore returns the latest definition made before stream position
// seq.
func (t *MacroTable) lookupBefore(name string, seq int) (string, bool) {
	defs := t.defs[strings.ToLower(name)]
	for i := len(defs) - 1; i >= 0; i-- {
		if defs[i].seq < seq {
			return defs[i].text, true
		}
	}
	return "", false
}

// Lookup returns the latest definition of name.
func (t *MacroTable) Lookup(name string) (string, bool) {
	defs := t.defs[strings.ToLower(name)]
	if len(defs) == 0 {
		return "", false
	}
	return defs[len(defs)-1].text, true
}

// Len returns the number of distinct macro names.
func (t *MacroTable) Len() int { return len(t.defs) }

// Names returns the defined macro names in sorted order.
func (t *MacroTable) Names() []string {
	return slices.Sorted(maps.Keys(t.defs))
}

// MonthMacros returns the month abbreviations the standard BibTeX styles
// predefine.
func MonthMacros() map[string]string {
	return map[string]string{
		"jan": "January", "feb": "February", "mar": "March",
		"apr": "April", "may": "May", "jun": "June",
		"jul": "July", "aug": "August", "sep": "September",
		"oct": "October", "nov": "November", "dec": "December",
	}
}
