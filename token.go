package bibtex

import (
	"fmt"
	"strconv"
)

// TokenKind is the set of lexical tokens of a BibTeX source.
type TokenKind int8

const (
	EOF TokenKind = iota
	Junk          // a line of text outside any record

	AT         // @
	EntryOpen  // { or ( opening a record
	EntryClose // } or ) matching the opener
	Comma      // ,
	Equals     // =
	Concat     // #

	literalBegin
	Number        // 2005
	BracedLiteral // {abc}, braces stripped
	QuotedLiteral // "abc", quotes stripped
	Name          // article, author, jan
	literalEnd
)

var tokenKinds = [...]string{
	EOF:           "EOF",
	Junk:          "Junk",
	AT:            "AT",
	EntryOpen:     "EntryOpen",
	EntryClose:    "EntryClose",
	Comma:         "Comma",
	Equals:        "Equals",
	Concat:        "Concat",
	Number:        "Number",
	BracedLiteral: "BracedLiteral",
	QuotedLiteral: "QuotedLiteral",
	Name:          "Name",
}

func (k TokenKind) String() string {
	s := ""
	if 0 <= k && int(k) < len(tokenKinds) {
		s = tokenKinds[k]
	}
	if s == "" {
		s = "token(" + strconv.Itoa(int(k)) + ")"
	}
	return s
}

// IsLiteral reports whether tokens of kind k can start a field value.
func (k TokenKind) IsLiteral() bool {
	return literalBegin < k && k < literalEnd
}

// Token is one lexical unit. Text holds the literal contents for literal
// kinds, the delimiter character for EntryOpen/EntryClose and the raw line
// for Junk.
type Token struct {
	Kind TokenKind
	Text string
	Line int
}

func (t Token) String() string {
	if t.Text == "" {
		return fmt.Sprintf("%s@%d", t.Kind, t.Line)
	}
	return fmt.Sprintf("%s(%q)@%d", t.Kind, t.Text, t.Line)
}
