package bibtex

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Options configures how a source is read.
type Options struct {
	// Strict turns grammar errors, unresolved macros and missing crossrefs
	// into failures instead of warnings.
	Strict bool
	// Name identifies the source in messages; "<string>" if empty.
	Name string
	// Encoding declares the source encoding (IANA name such as "latin1" or
	// "windows-1252"); UTF-8 if empty.
	Encoding string
	// Macros are visible to every record of the source, like the month
	// abbreviations predefined by BibTeX styles.
	Macros map[string]string
	// Logger receives warnings and scan progress; discarded if nil.
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Name == "" {
		o.Name = "<string>"
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Reader parses records lazily, one per call to Next. Grammar errors are
// skipped in lenient mode and recorded as warnings; every other error is
// sticky.
type Reader struct {
	s    *scanner
	opts Options
	log  *warnLog

	tok    Token
	tokErr error
	peeked bool

	pending []Record // remaining definitions of a multi-definition @string
	seq     int
	err     error
}

// NewReader returns a Reader over src, decoded from opts.Encoding.
func NewReader(src []byte, opts Options) (*Reader, error) {
	opts = opts.withDefaults()
	src, err := decodeSource(src, opts.Encoding)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opts.Name, err)
	}
	return &Reader{
		s:    newScanner(src, opts.Name),
		opts: opts,
		log:  newWarnLog(opts.Name, opts.Logger),
	}, nil
}

// Warnings returns the conditions recorded so far.
func (r *Reader) Warnings() []Warning {
	return r.log.all()
}

// Next returns the next record of the unfiltered stream, or io.EOF.
func (r *Reader) Next() (Record, error) {
	if len(r.pending) > 0 {
		rec := r.pending[0]
		r.pending = r.pending[1:]
		return rec, nil
	}
	if r.err != nil {
		return nil, r.err
	}
	for {
		rec, err := r.parseRecord()
		if err == nil {
			return rec, nil
		}
		var se *SyntaxError
		if !r.opts.Strict && errors.As(err, &se) && se.Kind == ErrGrammar {
			r.log.add(Warning{Kind: ErrGrammar, Line: se.Line, Msg: se.Msg + "; record skipped"})
			if err := r.skipRecord(); err != nil {
				r.err = err
				return nil, err
			}
			continue
		}
		r.err = err
		return nil, err
	}
}

func (r *Reader) peek() (Token, error) {
	if !r.peeked {
		r.tok, r.tokErr = r.s.Next()
		r.peeked = true
	}
	return r.tok, r.tokErr
}

func (r *Reader) advance() (Token, error) {
	tok, err := r.peek()
	r.peeked = false
	return tok, err
}

// expect consumes the next token if it has kind k. The offending token is
// left in place otherwise so that recovery can start from it.
func (r *Reader) expect(k TokenKind, what string) (Token, error) {
	tok, err := r.peek()
	if err != nil {
		return tok, err
	}
	if tok.Kind != k {
		return tok, r.errorf(tok.Line, "expected %s, found %s", what, describe(tok))
	}
	return r.advance()
}

func (r *Reader) errorf(line int, format string, args ...any) error {
	return &SyntaxError{Kind: ErrGrammar, Source: r.opts.Name, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// skipRecord drops tokens up to the next '@' or the end of input.
func (r *Reader) skipRecord() error {
	for {
		tok, err := r.peek()
		if err != nil {
			return err
		}
		if tok.Kind == AT || tok.Kind == EOF {
			return nil
		}
		r.advance()
	}
}

func (r *Reader) stamp() int {
	seq := r.seq
	r.seq++
	return seq
}

func (r *Reader) parseRecord() (Record, error) {
	tok, err := r.advance()
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case EOF:
		r.opts.Logger.Debug("scan finished", "source", r.opts.Name, "records", r.seq)
		return nil, io.EOF
	case Junk:
		r.stamp()
		return &Comment{Text: tok.Text, line: tok.Line}, nil
	case AT:
		return r.parseAt(tok.Line)
	}
	return nil, r.errorf(tok.Line, "unexpected %s outside a record", describe(tok))
}

func (r *Reader) parseAt(line int) (Record, error) {
	typ, err := r.expect(Name, "record type after '@'")
	if err != nil {
		return nil, err
	}
	switch typ.Text {
	case "comment":
		return r.parseComment(line)
	case "preamble":
		return r.parsePreamble(line)
	case "string":
		return r.parseString(line)
	}
	return r.parseEntry(typ.Text, line)
}

func (r *Reader) parseComment(line int) (Record, error) {
	tok, err := r.advance()
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case Junk:
		r.stamp()
		return &Comment{Text: tok.Text, line: line}, nil
	case EntryOpen:
		body, err := r.expect(BracedLiteral, "comment body")
		if err != nil {
			return nil, err
		}
		if _, err := r.expect(EntryClose, "end of @comment"); err != nil {
			return nil, err
		}
		r.stamp()
		return &Comment{Text: body.Text, line: line}, nil
	}
	return nil, r.errorf(tok.Line, "malformed @comment")
}

func (r *Reader) parsePreamble(line int) (Record, error) {
	if _, err := r.expect(EntryOpen, "'{' or '(' after @preamble"); err != nil {
		return nil, err
	}
	v, err := r.parseValue()
	if err != nil {
		return nil, err
	}
	if _, err := r.expect(EntryClose, "closing delimiter of @preamble"); err != nil {
		return nil, err
	}
	return &Preamble{Value: v, line: line, seq: r.stamp()}, nil
}

func (r *Reader) parseString(line int) (Record, error) {
	if _, err := r.expect(EntryOpen, "'{' or '(' after @string"); err != nil {
		return nil, err
	}
	var defs []*StringDef
	for {
		name, err := r.expect(Name, "macro name")
		if err != nil {
			return nil, err
		}
		if _, err := r.expect(Equals, fmt.Sprintf("'=' after macro %q", name.Text)); err != nil {
			return nil, err
		}
		v, err := r.parseValue()
		if err != nil {
			return nil, err
		}
		defs = append(defs, &StringDef{Name: strings.ToLower(name.Text), Value: v, line: name.Line})
		done, err := r.parseSeparator(fmt.Sprintf("macro %q", name.Text))
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}
	for _, d := range defs {
		d.seq = r.stamp()
		r.pending = append(r.pending, d)
	}
	first := r.pending[0]
	r.pending = r.pending[1:]
	return first, nil
}

// parseSeparator consumes the ',' or closing delimiter after a field and
// reports whether the record is complete. A trailing comma is allowed.
func (r *Reader) parseSeparator(after string) (bool, error) {
	tok, err := r.peek()
	if err != nil {
		return false, err
	}
	switch tok.Kind {
	case EntryClose:
		r.advance()
		return true, nil
	case Comma:
		r.advance()
		tok, err = r.peek()
		if err != nil {
			return false, err
		}
		if tok.Kind == EntryClose {
			r.advance()
			return true, nil
		}
		return false, nil
	}
	return false, r.errorf(tok.Line, "expected ',' or closing delimiter after %s, found %s", after, describe(tok))
}

func (r *Reader) parseEntry(typ string, line int) (Record, error) {
	if _, err := r.expect(EntryOpen, fmt.Sprintf("'{' or '(' after @%s", typ)); err != nil {
		return nil, err
	}
	e := &Entry{Type: typ, line: line}

	tok, err := r.peek()
	if err != nil {
		return nil, err
	}
	var pendingName *Token // a field name met where the key was expected
	switch tok.Kind {
	case Name, Number:
		r.advance()
		next, err := r.peek()
		if err != nil {
			return nil, err
		}
		if next.Kind == Equals && tok.Kind == Name {
			pendingName = &tok
		} else {
			e.Key = tok.Text
		}
	}
	if e.Key == "" {
		if r.opts.Strict {
			return nil, r.errorf(line, "@%s entry has no key", typ)
		}
		r.log.add(Warning{Kind: ErrGrammar, Line: line, Msg: fmt.Sprintf("@%s entry has no key", typ)})
	}

	if pendingName == nil {
		tok, err := r.peek()
		if err != nil {
			return nil, err
		}
		switch tok.Kind {
		case EntryClose:
			r.advance()
			e.seq = r.stamp()
			return e, nil
		case Comma:
			r.advance()
		default:
			return nil, r.errorf(tok.Line, "expected ',' after key %q, found %s", e.Key, describe(tok))
		}
	}

	for {
		var name Token
		if pendingName != nil {
			name, pendingName = *pendingName, nil
		} else {
			tok, err := r.peek()
			if err != nil {
				return nil, err
			}
			if tok.Kind == EntryClose {
				r.advance()
				break
			}
			if name, err = r.expect(Name, "field name"); err != nil {
				return nil, err
			}
		}
		fieldName := strings.ToLower(name.Text)
		if _, err := r.expect(Equals, fmt.Sprintf("'=' after field %q", fieldName)); err != nil {
			return nil, err
		}
		v, err := r.parseValue()
		if err != nil {
			return nil, err
		}
		if e.set(Field{Name: fieldName, Value: v, Line: name.Line}) {
			r.log.add(Warning{Kind: ErrDuplicateField, Line: name.Line,
				Msg: fmt.Sprintf("field %q repeated in entry %q, last value kept", fieldName, e.Key)})
		}
		done, err := r.parseSeparator(fmt.Sprintf("field %q", fieldName))
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}
	e.seq = r.stamp()
	return e, nil
}

// parseValue reads piece ('#' piece)*.
func (r *Reader) parseValue() (Value, error) {
	var v Value
	for {
		tok, err := r.peek()
		if err != nil {
			return nil, err
		}
		var kind PieceKind
		switch tok.Kind {
		case BracedLiteral:
			kind = BracedPiece
		case QuotedLiteral:
			kind = QuotedPiece
		case Number:
			kind = NumberPiece
		case Name:
			kind = MacroPiece
		default:
			return nil, r.errorf(tok.Line, "unexpected %s in field value", describe(tok))
		}
		r.advance()
		v = append(v, Piece{Kind: kind, Text: tok.Text})

		tok, err = r.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind != Concat {
			return v, nil
		}
		r.advance()
	}
}

func describe(tok Token) string {
	switch tok.Kind {
	case EOF:
		return "end of input"
	case AT:
		return "'@' (record not closed)"
	case Junk, Name, Number:
		return fmt.Sprintf("%s %q", tok.Kind, tok.Text)
	}
	return tok.Kind.String()
}
