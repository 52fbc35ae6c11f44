package bibtex

import (
	"strings"
)

// Record is one unit of the unfiltered stream: *Preamble, *StringDef,
// *Comment or *Entry.
type Record interface {
	Line() int
	record()
}

// PieceKind tells how a piece of a field value was written.
type PieceKind int8

const (
	BracedPiece PieceKind = iota // {text}
	QuotedPiece                  // "text"
	NumberPiece                  // 1984
	MacroPiece                   // jan, a reference to an @string
)

// Piece is one operand of a '#' concatenation.
type Piece struct {
	Kind PieceKind
	Text string
}

// Value is a raw field value: the pieces of a concatenation, unevaluated.
type Value []Piece

// Literal returns a value holding text as one braced piece.
func Literal(text string) Value {
	return Value{{Kind: BracedPiece, Text: text}}
}

// HasMacros reports whether expanding v needs the macro table.
func (v Value) HasMacros() bool {
	for _, p := range v {
		if p.Kind == MacroPiece {
			return true
		}
	}
	return false
}

// String returns v in BibTeX notation.
func (v Value) String() string {
	var sb strings.Builder
	for i, p := range v {
		if i > 0 {
			sb.WriteString(" # ")
		}
		switch p.Kind {
		case BracedPiece:
			sb.WriteByte('{')
			sb.WriteString(p.Text)
			sb.WriteByte('}')
		case QuotedPiece:
			sb.WriteByte('"')
			sb.WriteString(p.Text)
			sb.WriteByte('"')
		default:
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// Field is a name = value pair of an entry. Names are lower case.
type Field struct {
	Name  string
	Value Value
	Line  int
}

// Entry is a bibliographic record such as @article{key, ...}.
type Entry struct {
	Type   string // lower case
	Key    string
	Fields []Field

	line int
	seq  int // stream position, bounds macro visibility
}

func (e *Entry) Line() int { return e.line }
func (*Entry) record()      {}

// Field returns the raw value of the named field.
func (e *Entry) Field(name string) (Value, bool) {
	name = strings.ToLower(name)
	for _, f := range e.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// set stores f, replacing the value of an existing field with the same name
// in place. It reports whether the field was already present.
func (e *Entry) set(f Field) bool {
	for i := range e.Fields {
		if e.Fields[i].Name == f.Name {
			e.Fields[i] = f
			return true
		}
	}
	e.Fields = append(e.Fields, f)
	return false
}

// Preamble is an @preamble{...} record.
type Preamble struct {
	Value Value

	line int
	seq  int
}

func (p *Preamble) Line() int { return p.line }
func (*Preamble) record()      {}

// StringDef is one macro definition of an @string{...} record.
type StringDef struct {
	Name  string // lower case
	Value Value

	line int
	seq  int
}

func (s *StringDef) Line() int { return s.line }
func (*StringDef) record()      {}

// Comment is free text between records or an @comment record.
type Comment struct {
	Text string

	line int
}

func (c *Comment) Line() int { return c.line }
func (*Comment) record()      {}
