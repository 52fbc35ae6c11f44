package bibtex

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"
)

// File is a named, ordered set of expanded entries: the unit the
// collection tools work on.
type File struct {
	Entries []*ExpandedEntry
	name    string
}

// NewFile returns an empty set with the given name.
func NewFile(name string) *File {
	return &File{name: name}
}

func (f *File) Add(e *ExpandedEntry) {
	f.Entries = append(f.Entries, e)
}

func (f *File) Len() int {
	return len(f.Entries)
}

func (f *File) Name() string {
	return f.name
}

// Save writes f as BibTeX to the named file.
func (f *File) Save(fileName string) error {
	return saveWith(fileName, func(w io.Writer) error { return Write(w, f) })
}

// File resolves every entry of db, in order, into a File named after db.
func (db *Database) File() (*File, error) {
	f := NewFile(db.name)
	c := db.Cursor()
	for {
		e, err := c.NextEntry()
		if err == io.EOF {
			return f, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", db.name, err)
		}
		f.Add(e)
	}
}

type SetActionType int8

const (
	SetNoAction SetActionType = iota
	// SetIntersect keeps the entries that occur more than once across the
	// sets, taking the first occurrence of each.
	SetIntersect
	// SetUnion keeps the first occurrence of every entry.
	SetUnion
	// SetConcat keeps every entry of every set, in order.
	SetConcat
)

var setActions = [...]string{
	SetNoAction:  "none",
	SetIntersect: "intersect",
	SetUnion:     "union",
	SetConcat:    "concat",
}

func (a SetActionType) String() string {
	if 0 <= a && int(a) < len(setActions) {
		return setActions[a]
	}
	return fmt.Sprintf("SetActionType(%d)", int(a))
}

// ParseSetAction returns the action named s ("none", "intersect", "union"
// or "concat").
func ParseSetAction(s string) (SetActionType, error) {
	if i := slices.Index(setActions[:], strings.ToLower(strings.TrimSpace(s))); i >= 0 {
		return SetActionType(i), nil
	}
	if s == "" {
		return SetNoAction, nil
	}
	return SetNoAction, fmt.Errorf("invalid set action %q", s)
}

// EntryRef locates an entry in the set it came from.
type EntryRef struct {
	Entry *ExpandedEntry
	File  *File
}

type DedupMap = map[string][]EntryRef

// DedupReport lists the entries sharing an index value.
type DedupReport struct {
	DuplicateSetCount int
	DuplicateSet      DedupMap
	ResultSetCount    int

	order []string // index values in first-seen order
}

// Print writes every duplicate set with the location of its entries.
func (dr *DedupReport) Print(w io.Writer) error {
	if dr == nil || dr.DuplicateSetCount == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "%d duplicate sets found\n", dr.DuplicateSetCount); err != nil {
		return err
	}
	for _, idx := range dr.order {
		refs := dr.DuplicateSet[idx]
		if len(refs) < 2 {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s\n[%s] has %d occurrences\n", strings.Repeat("*", 60), idx, len(refs)); err != nil {
			return err
		}
		for _, ref := range refs {
			if _, err := fmt.Fprintf(w, "%s:%d\n", ref.File.Name(), ref.Entry.Line); err != nil {
				return err
			}
			if err := Write(w, ref.Entry); err != nil {
				return err
			}
		}
	}
	if dr.ResultSetCount > 0 {
		_, err := fmt.Fprintf(w, "%d entries in result set\n", dr.ResultSetCount)
		return err
	}
	return nil
}

func (dr DedupReport) String() string {
	var b bytes.Buffer
	if err := dr.Print(&b); err != nil {
		b.WriteString("error: " + err.Error())
	}
	return b.String()
}

// indexEntry concatenates the values of the named fields, folded to
// lower-case ASCII letters and digits unless raw is set.
func indexEntry(e *ExpandedEntry, fldNames []string, raw bool) string {
	var sb strings.Builder
	for _, name := range fldNames {
		if name == "citekey" {
			continue
		}
		sb.WriteString(e.Field(name))
	}
	if raw {
		return sb.String()
	}
	return foldASCII(sb.String())
}

// Deduplicate performs a set operation on one or more sets, identifying
// entries by the concatenated values of fldNames. Without fields, or when
// fldNames contains "citekey", the citation key (case-insensitive) is part
// of the identity. With SetNoAction only the report is returned.
func Deduplicate(files []*File, fldNames []string, action SetActionType) (*File, *DedupReport, error) {
	total := 0
	for _, f := range files {
		total += f.Len()
	}
	if total == 0 {
		return nil, nil, fmt.Errorf("nothing to deduplicate")
	}
	hasFields := slices.ContainsFunc(fldNames, func(s string) bool { return s != "citekey" })
	citekey := !hasFields || slices.Contains(fldNames, "citekey")

	dr := &DedupReport{DuplicateSet: make(DedupMap, total)}
	for _, f := range files {
		for _, e := range f.Entries {
			idx := ""
			if hasFields {
				idx = indexEntry(e, fldNames, false)
			}
			if citekey {
				idx += strings.ToLower(e.Key)
			}
			if _, seen := dr.DuplicateSet[idx]; !seen {
				dr.order = append(dr.order, idx)
			}
			dr.DuplicateSet[idx] = append(dr.DuplicateSet[idx], EntryRef{e, f})
		}
	}
	for _, refs := range dr.DuplicateSet {
		if len(refs) > 1 {
			dr.DuplicateSetCount++
		}
	}

	var res *File
	switch action {
	case SetNoAction:
		return nil, dr, nil
	case SetIntersect:
		if dr.DuplicateSetCount == 0 {
			return nil, dr, fmt.Errorf("no common entries")
		}
		res = NewFile("intersection.bib")
		for _, idx := range dr.order {
			if refs := dr.DuplicateSet[idx]; len(refs) > 1 {
				res.Add(refs[0].Entry)
			}
		}
	case SetUnion:
		res = NewFile("union.bib")
		for _, idx := range dr.order {
			res.Add(dr.DuplicateSet[idx][0].Entry)
		}
	case SetConcat:
		res = NewFile("concat.bib")
		for _, f := range files {
			res.Entries = append(res.Entries, f.Entries...)
		}
	default:
		return nil, nil, fmt.Errorf("invalid set action %v", action)
	}
	dr.ResultSetCount = res.Len()
	return res, dr, nil
}

// ValidKeys reports whether every entry of f has a key and no key is used
// twice.
func ValidKeys(f *File) bool {
	for _, e := range f.Entries {
		if e.Key == "" {
			return false
		}
	}
	_, dr, err := Deduplicate([]*File{f}, nil, SetNoAction)
	if err != nil {
		return true // empty set
	}
	return dr.DuplicateSetCount == 0
}

// NewCiteKey builds a key from the last name of the first author (or
// editor), the year, the first word of the title, the initial of the entry
// type and the pages and volume.
func NewCiteKey(e *ExpandedEntry) string {
	var sb strings.Builder
	names := ParseNames(e.Field("author"))
	if len(names) == 0 {
		names = ParseNames(e.Field("editor"))
	}
	if len(names) > 0 {
		sb.WriteString(foldASCII(names[0].LastName()))
	}
	sb.WriteString(foldASCII(e.Field("year")))
	word, _, _ := strings.Cut(strings.TrimSpace(Normalize(e.Field("title"))), " ")
	sb.WriteString(foldASCII(word))
	b := byte('x')
	if e.Type != "" {
		b = e.Type[0]
	}
	sb.WriteByte(b)
	sb.WriteString(foldASCII(e.Field("pages") + e.Field("volume")))
	return sb.String()
}

// FixKeys ensures that every entry has a unique key. Entries without a key,
// or every entry when all is set, get a new one: the folded values of
// fldnames, or NewCiteKey when fldnames is empty. Remaining duplicates get
// a suffix A, B, C and so on. The report describes the duplicates found
// before suffixing.
func FixKeys(f *File, fldnames []string, all bool) (*DedupReport, error) {
	for _, e := range f.Entries {
		if all || e.Key == "" {
			if len(fldnames) == 0 {
				e.Key = NewCiteKey(e)
			} else {
				e.Key = indexEntry(e, fldnames, false)
			}
		}
	}
	_, dr, err := Deduplicate([]*File{f}, nil, SetNoAction)
	if err != nil {
		return nil, err
	}
	if dr.DuplicateSetCount == 0 {
		return dr, nil
	}
	used := make(map[string]bool, f.Len())
	for _, e := range f.Entries {
		used[strings.ToLower(e.Key)] = true
	}
	for _, idx := range dr.order {
		refs := dr.DuplicateSet[idx]
		for i, n := 1, 1; i < len(refs); i++ {
			e := refs[i].Entry
			key := e.Key + suffix(n)
			for used[strings.ToLower(key)] {
				n++
				key = e.Key + suffix(n)
			}
			n++
			used[strings.ToLower(key)] = true
			e.Key = key
		}
	}
	return dr, nil
}

// suffix returns A for 1, B for 2, ..., Z, AA, AB and so on.
func suffix(n int) string {
	var b []byte
	for ; n > 0; n = (n - 1) / 26 {
		b = append(b, byte('A'+(n-1)%26))
	}
	slices.Reverse(b)
	return string(b)
}

// Split splits a set into a separate set for each entry type.
func Split(f *File) map[string]*File {
	res := make(map[string]*File, 10)
	for _, e := range f.Entries {
		sub, ok := res[e.Type]
		if !ok {
			sub = NewFile(e.Type)
			res[e.Type] = sub
		}
		sub.Add(e)
	}
	return res
}
