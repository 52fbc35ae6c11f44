package bibtex

import (
	"fmt"
	"strings"
)

// ExpandedField is a field whose value has been expanded to text.
type ExpandedField struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Inherited bool   `json:"inherited,omitempty"` // copied from a crossref parent
}

// ExpandedEntry is an entry with macros expanded and crossref inheritance
// applied. It is built on demand and never stored in the Database.
type ExpandedEntry struct {
	Type   string          `json:"type"`
	Key    string          `json:"key"`
	Line   int             `json:"line"`
	Fields []ExpandedField `json:"fields"`
}

// Field returns the value of the named field, or "" when absent.
func (e *ExpandedEntry) Field(name string) string {
	v, _ := e.Lookup(name)
	return v
}

// Lookup returns the value of the named field.
func (e *ExpandedEntry) Lookup(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, f := range e.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Names returns the field names in order.
func (e *ExpandedEntry) Names() []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Name
	}
	return names
}

// Set stores value under name, replacing an existing value.
func (e *ExpandedEntry) Set(name, value string) {
	name = strings.ToLower(name)
	for i := range e.Fields {
		if e.Fields[i].Name == name {
			e.Fields[i].Value = value
			e.Fields[i].Inherited = false
			return
		}
	}
	e.Fields = append(e.Fields, ExpandedField{Name: name, Value: value})
}

// inherit copies the fields of parent that e lacks.
func (e *ExpandedEntry) inherit(parent *ExpandedEntry) {
	for _, f := range parent.Fields {
		if _, ok := e.Lookup(f.Name); ok {
			continue
		}
		f.Inherited = true
		e.Fields = append(e.Fields, f)
	}
}

// Resolve expands the fields of e and applies crossref inheritance. Each
// field is expanded with the macros visible at its own entry. A crossref
// chain is followed to its end; a missing target is an error in strict
// mode and a warning otherwise (the crossref field is then dropped). A
// cycle is always an error.
func (db *Database) Resolve(e *Entry) (*ExpandedEntry, error) {
	x := db.expander()
	chain := []*Entry{e}
	visited := map[*Entry]bool{e: true}
	var dangling *Entry
	for cur := e; ; {
		v, ok := cur.Field("crossref")
		if !ok {
			break
		}
		ref, err := x.expand(v, Unlimited, cur.seq, cur.line)
		if err != nil {
			return nil, err
		}
		ref = strings.TrimSpace(ref)
		parent, ok := db.Lookup(ref)
		if !ok {
			if db.opts.Strict {
				return nil, &CrossrefError{Kind: ErrMissingCrossref, Key: cur.Key, Ref: ref, Chain: chainKeys(chain)}
			}
			db.log.add(Warning{Kind: ErrMissingCrossref, Line: cur.line,
				Msg: fmt.Sprintf("entry %q refers to unknown entry %q, crossref dropped", cur.Key, ref)})
			dangling = cur
			break
		}
		if visited[parent] {
			return nil, &CrossrefError{Kind: ErrCyclicCrossref, Key: e.Key, Ref: parent.Key, Chain: chainKeys(chain)}
		}
		visited[parent] = true
		chain = append(chain, parent)
		cur = parent
	}

	var out *ExpandedEntry
	for i := len(chain) - 1; i >= 0; i-- {
		child, err := db.expandEntry(chain[i], chain[i] == dangling)
		if err != nil {
			return nil, err
		}
		if out != nil {
			child.inherit(out)
		}
		out = child
	}
	return out, nil
}

// expandEntry expands the own fields of e, without inheritance.
func (db *Database) expandEntry(e *Entry, dropCrossref bool) (*ExpandedEntry, error) {
	x := db.expander()
	out := &ExpandedEntry{Type: e.Type, Key: e.Key, Line: e.line, Fields: make([]ExpandedField, 0, len(e.Fields))}
	for _, f := range e.Fields {
		if dropCrossref && f.Name == "crossref" {
			continue
		}
		text, err := x.expand(f.Value, Unlimited, e.seq, f.Line)
		if err != nil {
			return nil, fmt.Errorf("entry %q field %s: %w", e.Key, f.Name, err)
		}
		out.Fields = append(out.Fields, ExpandedField{Name: f.Name, Value: text})
	}
	return out, nil
}

func chainKeys(chain []*Entry) []string {
	keys := make([]string, len(chain))
	for i, e := range chain {
		keys[i] = e.Key
	}
	return keys
}
