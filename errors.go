package bibtex

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Conditions reported by the parser, the expansion engine and the crossref
// resolver. Test for them with errors.Is; warnings carry the same values in
// Warning.Kind.
var (
	ErrLexical         = errors.New("lexical error")
	ErrGrammar         = errors.New("grammar error")
	ErrDuplicateField  = errors.New("duplicate field")
	ErrDuplicateKey    = errors.New("duplicate key")
	ErrUnresolvedMacro = errors.New("unresolved macro")
	ErrMissingCrossref = errors.New("missing crossref")
	ErrCyclicCrossref  = errors.New("cyclic crossref")
	ErrEmptyName       = errors.New("empty name")
)

// SyntaxError is a lexical or grammar failure at a source line.
type SyntaxError struct {
	Kind   error // ErrLexical or ErrGrammar
	Source string
	Line   int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %s: %s", e.Source, e.Line, e.Kind, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return e.Kind }

// MacroError reports a macro reference with no visible definition.
type MacroError struct {
	Name string
	Line int
}

func (e *MacroError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s %q", e.Line, ErrUnresolvedMacro, e.Name)
	}
	return fmt.Sprintf("%s %q", ErrUnresolvedMacro, e.Name)
}

func (e *MacroError) Unwrap() error { return ErrUnresolvedMacro }

// CrossrefError reports a crossref that cannot be followed. Chain lists the
// keys visited before the failure, starting with the referring entry.
type CrossrefError struct {
	Kind  error // ErrMissingCrossref or ErrCyclicCrossref
	Key   string
	Ref   string
	Chain []string
}

func (e *CrossrefError) Error() string {
	if e.Kind == ErrCyclicCrossref {
		return fmt.Sprintf("entry %q: %s: %s -> %s", e.Key, e.Kind, strings.Join(e.Chain, " -> "), e.Ref)
	}
	return fmt.Sprintf("entry %q: %s %q", e.Key, e.Kind, e.Ref)
}

func (e *CrossrefError) Unwrap() error { return e.Kind }

// Warning is a non-fatal condition recorded on a Database.
type Warning struct {
	Kind error
	Line int // 0 when the condition is not tied to a source line
	Msg  string
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", w.Line, w.Kind, w.Msg)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Msg)
}

// warnLog collects the warnings of one source. It is shared by the Reader
// that scans the source and the Database built from it; expansion and
// crossref resolution may add to it after the scan.
type warnLog struct {
	source string
	logger *slog.Logger

	mu   sync.Mutex
	list []Warning
}

func newWarnLog(source string, logger *slog.Logger) *warnLog {
	return &warnLog{source: source, logger: logger}
}

func (l *warnLog) add(w Warning) {
	l.mu.Lock()
	l.list = append(l.list, w)
	l.mu.Unlock()
	l.logger.Warn(w.Msg, "source", l.source, "line", w.Line, "kind", w.Kind.Error())
}

func (l *warnLog) all() []Warning {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Warning(nil), l.list...)
}
