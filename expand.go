package bibtex

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Depth bounds how many pieces of a value are expanded.
type Depth struct {
	limit   int
	bounded bool
}

// Unlimited expands every piece of a value.
var Unlimited = Depth{}

// Bounded expands only the first n pieces; Bounded(0) yields "".
func Bounded(n int) Depth {
	return Depth{limit: max(n, 0), bounded: true}
}

func (d Depth) String() string {
	if !d.bounded {
		return "unlimited"
	}
	return strconv.Itoa(d.limit)
}

func (d Depth) pieces(v Value) Value {
	if d.bounded && d.limit < len(v) {
		return v[:d.limit]
	}
	return v
}

// expander turns values into text using the macros visible at a stream
// position.
type expander struct {
	macros *MacroTable
	strict bool
	log    *warnLog
}

// expand concatenates the pieces of v. Macro pieces resolve against the
// definitions made before position seq; line locates the value in messages.
func (x expander) expand(v Value, d Depth, seq, line int) (string, error) {
	var sb strings.Builder
	for _, p := range d.pieces(v) {
		if p.Kind != MacroPiece {
			sb.WriteString(p.Text)
			continue
		}
		text, ok := x.macros.lookupBefore(p.Text, seq)
		if !ok {
			if x.strict {
				return "", &MacroError{Name: p.Text, Line: line}
			}
			x.log.add(Warning{Kind: ErrUnresolvedMacro, Line: line,
				Msg: fmt.Sprintf("macro %q is not defined, its name is used instead", p.Text)})
			text = p.Text
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

// Expand returns the text of v with every macro resolved against the
// complete macro table of db. Use Resolve to expand the fields of an entry
// with the definitions visible at its own position.
func (db *Database) Expand(v Value, d Depth) (string, error) {
	return db.expander().expand(v, d, math.MaxInt, 0)
}

func (db *Database) expander() expander {
	return expander{macros: db.macros, strict: db.opts.Strict, log: db.log}
}
