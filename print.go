package bibtex

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Write writes v in BibTeX notation. v may be a *Database, a Record, an
// *ExpandedEntry or a *File. Records keep their raw values, macro
// references included; expanded entries are written with braced values.
func Write(w io.Writer, v any) error {
	bw := bufio.NewWriter(w)
	if err := write(bw, v); err != nil {
		return err
	}
	return bw.Flush()
}

func write(w *bufio.Writer, v any) error {
	switch v := v.(type) {
	case *Database:
		for _, rec := range v.records {
			if err := write(w, rec); err != nil {
				return err
			}
		}
	case *File:
		for _, e := range v.Entries {
			if err := write(w, e); err != nil {
				return err
			}
		}
	case *Entry:
		fmt.Fprintf(w, "@%s{%s", v.Type, v.Key)
		for _, f := range v.Fields {
			fmt.Fprintf(w, ",\n  %s = %s", f.Name, f.Value)
		}
		w.WriteString("\n}\n\n")
	case *ExpandedEntry:
		fmt.Fprintf(w, "@%s{%s", v.Type, v.Key)
		for _, f := range v.Fields {
			fmt.Fprintf(w, ",\n  %s = %s", f.Name, Quote(f.Value))
		}
		w.WriteString("\n}\n\n")
	case *StringDef:
		fmt.Fprintf(w, "@string{%s = %s}\n\n", v.Name, v.Value)
	case *Preamble:
		fmt.Fprintf(w, "@preamble{%s}\n\n", v.Value)
	case *Comment:
		if balanced(v.Text) {
			fmt.Fprintf(w, "@comment{%s}\n\n", v.Text)
		} else {
			// free text; an '@' would start a record
			fmt.Fprintf(w, "%s\n\n", strings.ReplaceAll(v.Text, "@", " "))
		}
	default:
		return fmt.Errorf("cannot write %T as BibTeX", v)
	}
	return nil
}

// Quote returns value as a BibTeX literal: wrapped in braces when its
// braces balance, in double quotes otherwise with stray braces dropped.
func Quote(value string) string {
	if balanced(value) {
		return "{" + value + "}"
	}
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(value); i++ {
		switch c := value[i]; c {
		case '{', '}':
		case '"':
			sb.WriteString(`{"}`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// balanced reports whether no '}' closes more braces than were opened and
// every '{' is closed.
func balanced(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return false
			}
			depth--
		}
	}
	return depth == 0
}
