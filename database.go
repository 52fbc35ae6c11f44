package bibtex

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Database is a parsed BibTeX source: its records in order, the macro table
// built from its @string records and an index of entries by citation key.
// It is read-only once built; Cursors over it may be used concurrently.
type Database struct {
	name    string
	opts    Options
	records []Record
	entries []*Entry
	index   map[string]*Entry // lower-cased key
	macros  *MacroTable
	log     *warnLog
}

// Parse builds a Database from src in one scan. Every @string definition
// is expanded against the macros visible at its position and added to the
// table as it is met. The returned error is a *SyntaxError, a *MacroError
// (strict mode) or a decoding error.
func Parse(src []byte, opts Options) (*Database, error) {
	r, err := NewReader(src, opts)
	if err != nil {
		return nil, err
	}
	return build(r)
}

// Open reads all of r and parses it.
func Open(r io.Reader, opts Options) (*Database, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(src, opts)
}

// OpenFile parses the named file. opts.Name defaults to the file's base
// name.
func OpenFile(fileName string, opts Options) (*Database, error) {
	src, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	if opts.Name == "" {
		opts.Name = filepath.Base(fileName)
	}
	return Parse(src, opts)
}

func build(r *Reader) (*Database, error) {
	db := &Database{
		name:   r.opts.Name,
		opts:   r.opts,
		index:  make(map[string]*Entry),
		macros: newMacroTable(r.opts.Macros),
		log:    r.log,
	}
	x := db.expander()
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		db.records = append(db.records, rec)
		switch rec := rec.(type) {
		case *StringDef:
			text, err := x.expand(rec.Value, Unlimited, rec.seq, rec.line)
			if err != nil {
				return nil, fmt.Errorf("%s: @string %s: %w", db.name, rec.Name, err)
			}
			db.macros.define(rec.Name, text, rec.seq)
		case *Entry:
			db.add(rec)
		}
	}
	db.opts.Logger.Debug("database built", "source", db.name,
		"records", len(db.records), "entries", len(db.entries), "macros", db.macros.Len())
	return db, nil
}

func (db *Database) add(e *Entry) {
	db.entries = append(db.entries, e)
	if e.Key == "" {
		return
	}
	k := strings.ToLower(e.Key)
	if first, dup := db.index[k]; dup {
		db.log.add(Warning{Kind: ErrDuplicateKey, Line: e.line,
			Msg: fmt.Sprintf("key %q already used on line %d, first entry kept", e.Key, first.line)})
		return
	}
	db.index[k] = e
}

// Name returns the name of the source.
func (db *Database) Name() string { return db.name }

// Strict reports whether db was parsed in strict mode.
func (db *Database) Strict() bool { return db.opts.Strict }

// Records returns the unfiltered record stream.
func (db *Database) Records() []Record {
	return append([]Record(nil), db.records...)
}

// Entries returns the entries in source order, duplicates included.
func (db *Database) Entries() []*Entry {
	return append([]*Entry(nil), db.entries...)
}

// Len returns the number of entries.
func (db *Database) Len() int { return len(db.entries) }

// Lookup returns the first entry with the given key, compared
// case-insensitively.
func (db *Database) Lookup(key string) (*Entry, bool) {
	e, ok := db.index[strings.ToLower(key)]
	return e, ok
}

// Macros returns the macro table as it stands after the whole source.
func (db *Database) Macros() *MacroTable { return db.macros }

// Warnings returns the conditions recorded while parsing and, later, while
// expanding and resolving entries.
func (db *Database) Warnings() []Warning { return db.log.all() }

// Preamble returns the expanded text of all @preamble records, in order.
func (db *Database) Preamble() (string, error) {
	x := db.expander()
	var sb strings.Builder
	for _, rec := range db.records {
		p, ok := rec.(*Preamble)
		if !ok {
			continue
		}
		text, err := x.expand(p.Value, Unlimited, p.seq, p.line)
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

// Cursor returns a read position at the start of db.
func (db *Database) Cursor() *Cursor {
	return &Cursor{db: db}
}

// Cursor walks a Database. NextRecord and NextEntry advance independent
// positions; a Cursor is not safe for concurrent use.
type Cursor struct {
	db     *Database
	record int
	entry  int
}

// NextRecord returns the next record of the unfiltered stream.
func (c *Cursor) NextRecord() (Record, bool) {
	if c.record >= len(c.db.records) {
		return nil, false
	}
	rec := c.db.records[c.record]
	c.record++
	return rec, true
}

// NextEntry returns the next entry, expanded and with its crossref
// resolved, or io.EOF. An entry that cannot be resolved returns its error;
// the cursor still moves past it.
func (c *Cursor) NextEntry() (*ExpandedEntry, error) {
	if c.entry >= len(c.db.entries) {
		return nil, io.EOF
	}
	e := c.db.entries[c.entry]
	c.entry++
	return c.db.Resolve(e)
}

// Reset moves both positions back to the start.
func (c *Cursor) Reset() {
	c.record, c.entry = 0, 0
}
