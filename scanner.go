package bibtex

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type scanState int8

const (
	stateOutside     scanState = iota // between records
	stateType                         // after '@', reading the record type
	stateOpen                         // after the type, expecting '{' or '('
	stateComment                      // after "@comment"
	stateCommentBody                  // inside @comment{...}
	stateBody                         // inside a record
)

const bom = 0xFEFF // byte order mark, only permitted as very first character

// scanner turns a BibTeX source into tokens. It is a one-shot cursor: the
// first lexical error is sticky and returned by every later call to Next.
type scanner struct {
	src    []byte
	source string // name used in error messages

	ch       rune // current character, -1 at end of input
	offset   int  // offset of ch
	rdOffset int  // offset after ch
	line     int  // line of ch

	state      scanState
	closer     rune // closing delimiter of the current record
	recordLine int  // line of the '@' of the current record

	err error
}

func newScanner(src []byte, source string) *scanner {
	s := &scanner{src: src, source: source, ch: ' ', line: 1}
	s.next()
	if s.ch == bom {
		s.next()
	}
	return s
}

func (s *scanner) next() {
	if s.ch == '\n' {
		s.line++
	}
	if s.rdOffset >= len(s.src) {
		s.offset = len(s.src)
		s.ch = -1
		return
	}
	s.offset = s.rdOffset
	r, w := rune(s.src[s.rdOffset]), 1
	if r >= utf8.RuneSelf {
		r, w = utf8.DecodeRune(s.src[s.rdOffset:])
	}
	s.rdOffset += w
	s.ch = r
}

func (s *scanner) skipWhitespace() {
	for s.ch == ' ' || s.ch == '\t' || s.ch == '\n' || s.ch == '\r' || s.ch == '\f' || s.ch == '\v' {
		s.next()
	}
}

func (s *scanner) errorf(line int, format string, args ...any) error {
	return &SyntaxError{Kind: ErrLexical, Source: s.source, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// Next returns the next token. At the end of input it returns an EOF token
// and a nil error.
func (s *scanner) Next() (Token, error) {
	if s.err != nil {
		return Token{}, s.err
	}
	tok, err := s.scan()
	if err != nil {
		s.err = err
	}
	return tok, err
}

func (s *scanner) scan() (Token, error) {
	for {
		switch s.state {
		case stateOutside:
			if tok, ok := s.scanOutside(); ok {
				return tok, nil
			}
		case stateType:
			s.skipWhitespace()
			line := s.line
			name := s.scanName()
			if name == "" {
				// no type word: let the grammar see whatever follows
				s.state = stateOutside
				continue
			}
			name = strings.ToLower(name)
			if name == "comment" {
				s.state = stateComment
			} else {
				s.state = stateOpen
			}
			return Token{Kind: Name, Text: name, Line: line}, nil
		case stateOpen:
			s.skipWhitespace()
			if tok, ok := s.scanOpener(); ok {
				s.state = stateBody
				return tok, nil
			}
			s.state = stateOutside
		case stateComment:
			for s.ch == ' ' || s.ch == '\t' {
				s.next()
			}
			if tok, ok := s.scanOpener(); ok {
				s.state = stateCommentBody
				return tok, nil
			}
			// "@comment rest of line"
			line := s.line
			start := s.offset
			for s.ch != -1 && s.ch != '\n' {
				s.next()
			}
			text := strings.TrimSpace(string(s.src[start:s.offset]))
			s.state = stateOutside
			return Token{Kind: Junk, Text: text, Line: line}, nil
		case stateCommentBody:
			return s.scanCommentBody()
		case stateBody:
			return s.scanBody()
		}
	}
}

// scanOutside consumes text between records. It reports false when a blank
// line was skipped and scanning must continue.
func (s *scanner) scanOutside() (Token, bool) {
	line := s.line
	switch s.ch {
	case -1:
		return Token{Kind: EOF, Line: line}, true
	case '@':
		s.next()
		s.state = stateType
		s.recordLine = line
		return Token{Kind: AT, Line: line}, true
	}
	start := s.offset
	for s.ch != -1 && s.ch != '\n' && s.ch != '@' {
		s.next()
	}
	text := strings.TrimSpace(string(s.src[start:s.offset]))
	if s.ch == '\n' {
		s.next()
	}
	if text == "" {
		return Token{}, false
	}
	return Token{Kind: Junk, Text: text, Line: line}, true
}

func (s *scanner) scanOpener() (Token, bool) {
	line := s.line
	switch s.ch {
	case '{':
		s.closer = '}'
	case '(':
		s.closer = ')'
	default:
		return Token{}, false
	}
	text := string(s.ch)
	s.next()
	return Token{Kind: EntryOpen, Text: text, Line: line}, true
}

// scanCommentBody reads the balanced contents of @comment{...} up to, but
// not including, the closing delimiter.
func (s *scanner) scanCommentBody() (Token, error) {
	line := s.line
	start := s.offset
	depth := 0
	for {
		switch s.ch {
		case -1:
			return Token{}, s.errorf(s.recordLine, "unterminated @comment")
		case '{':
			depth++
		case '}':
			if depth == 0 {
				if s.closer == '}' {
					s.state = stateBody
					return Token{Kind: BracedLiteral, Text: string(s.src[start:s.offset]), Line: line}, nil
				}
				return Token{}, s.errorf(s.line, "unbalanced '}' in @comment")
			}
			depth--
		case ')':
			if depth == 0 && s.closer == ')' {
				s.state = stateBody
				return Token{Kind: BracedLiteral, Text: string(s.src[start:s.offset]), Line: line}, nil
			}
		}
		s.next()
	}
}

func (s *scanner) scanBody() (Token, error) {
	s.skipWhitespace()
	line := s.line
	ch := s.ch
	switch ch {
	case -1:
		return Token{}, s.errorf(s.recordLine, "unterminated record, missing %q", s.closer)
	case s.closer:
		s.next()
		s.state = stateOutside
		return Token{Kind: EntryClose, Text: string(ch), Line: line}, nil
	case '}', ')':
		return Token{}, s.errorf(line, "mismatched delimiter %q, record opened on line %d expects %q", ch, s.recordLine, s.closer)
	case '{':
		return s.scanBraced()
	case '"':
		return s.scanQuoted()
	case ',':
		s.next()
		return Token{Kind: Comma, Line: line}, nil
	case '=':
		s.next()
		return Token{Kind: Equals, Line: line}, nil
	case '#':
		s.next()
		return Token{Kind: Concat, Line: line}, nil
	case '@':
		// a new record starts before the current one was closed
		s.next()
		s.state = stateType
		s.recordLine = line
		return Token{Kind: AT, Line: line}, nil
	}
	name := s.scanName()
	if name == "" {
		// a stray opener: hand it to the grammar, which reports it
		s.next()
		return Token{Kind: Junk, Text: string(ch), Line: line}, nil
	}
	if isNumber(name) {
		return Token{Kind: Number, Text: name, Line: line}, nil
	}
	return Token{Kind: Name, Text: name, Line: line}, nil
}

// scanBraced reads {...} tracking nested braces. The outer braces are not
// part of the token text.
func (s *scanner) scanBraced() (Token, error) {
	line := s.line
	s.next() // '{'
	start := s.offset
	depth := 1
	for {
		switch s.ch {
		case -1:
			return Token{}, s.errorf(line, "unterminated braced literal")
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				text := string(s.src[start:s.offset])
				s.next()
				return Token{Kind: BracedLiteral, Text: text, Line: line}, nil
			}
		}
		s.next()
	}
}

// scanQuoted reads "..."; a quote nested in braces does not terminate it.
func (s *scanner) scanQuoted() (Token, error) {
	line := s.line
	s.next() // '"'
	start := s.offset
	depth := 0
	for {
		switch s.ch {
		case -1:
			return Token{}, s.errorf(line, "unterminated quoted literal")
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case '"':
			if depth == 0 {
				text := string(s.src[start:s.offset])
				s.next()
				return Token{Kind: QuotedLiteral, Text: text, Line: line}, nil
			}
		}
		s.next()
	}
}

func (s *scanner) scanName() string {
	start := s.offset
	for isNameChar(s.ch) {
		s.next()
	}
	return string(s.src[start:s.offset])
}

func isNameChar(ch rune) bool {
	switch ch {
	case -1, ' ', '\t', '\n', '\r', '\f', '\v', '"', '#', '(', ')', ',', '=', '{', '}', '@':
		return false
	}
	return true
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
