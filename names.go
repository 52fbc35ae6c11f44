package bibtex

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// PersonName is one name of an author or editor list, split into the four
// BibTeX parts. Words keep their original markup; Last is never empty.
type PersonName struct {
	Von   []string `json:"von,omitempty"`
	Last  []string `json:"last"`
	First []string `json:"first,omitempty"`
	Jr    []string `json:"jr,omitempty"`
}

// String renders n as "von Last, Jr, First", leaving out empty parts.
func (n PersonName) String() string {
	var sb strings.Builder
	sb.WriteString(n.LastName())
	if len(n.Jr) > 0 {
		sb.WriteString(", ")
		sb.WriteString(strings.Join(n.Jr, " "))
	}
	if len(n.First) > 0 {
		sb.WriteString(", ")
		sb.WriteString(strings.Join(n.First, " "))
	}
	return sb.String()
}

// LastName returns the von and Last parts joined by spaces.
func (n PersonName) LastName() string {
	return strings.Join(append(slices.Clip(n.Von), n.Last...), " ")
}

// span is a word of a name list: text[start:end].
type span struct{ start, end int }

// words splits s at brace depth 0 on whitespace and on the separators in
// extra; brace groups are never split.
func words(s string, extra string) []span {
	var out []span
	depth, start := 0, -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '{':
			depth++
		case c == '}':
			if depth > 0 {
				depth--
			}
		case depth == 0 && (c == ' ' || c == '\t' || c == '\n' || c == '\r' || strings.IndexByte(extra, c) >= 0):
			if start >= 0 {
				out = append(out, span{start, i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, span{start, len(s)})
	}
	return out
}

// SplitNames splits an author or editor list on the word "and" (any case)
// at brace depth 0. Empty names are dropped.
func SplitNames(text string) []string {
	var (
		names []string
		cur   []span
	)
	flush := func() {
		if len(cur) > 0 {
			names = append(names, text[cur[0].start:cur[len(cur)-1].end])
		}
		cur = cur[:0]
	}
	for _, w := range words(text, "") {
		if strings.EqualFold(text[w.start:w.end], "and") {
			flush()
			continue
		}
		cur = append(cur, w)
	}
	flush()
	return names
}

// ParseName splits one name into its parts. The form is chosen by the
// number of commas at brace depth 0: "First von Last", "von Last, First" or
// "von Last, Jr, First". It returns ErrEmptyName when raw has no words.
func ParseName(raw string) (PersonName, error) {
	var segments [][]string
	for _, seg := range splitCommas(raw) {
		var ws []string
		for _, w := range words(seg, "~") {
			ws = append(ws, seg[w.start:w.end])
		}
		if len(ws) > 0 {
			segments = append(segments, ws)
		}
	}
	if len(segments) == 0 {
		return PersonName{}, ErrEmptyName
	}

	var n PersonName
	switch len(segments) {
	case 1:
		n = splitFirstVonLast(segments[0])
	case 2:
		n.Von, n.Last = splitVonLast(segments[0])
		n.First = part(segments[1])
	default:
		n.Von, n.Last = splitVonLast(segments[0])
		n.Jr = part(segments[1])
		n.First = part(slices.Concat(segments[2:]...))
	}
	return n, nil
}

// ParseNames splits an author or editor list and parses every name.
func ParseNames(text string) []PersonName {
	var out []PersonName
	for _, raw := range SplitNames(text) {
		if n, err := ParseName(raw); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// splitFirstVonLast handles the comma-free form. Last is the longest
// trailing run of words that are not lower case, von the lower-case run
// before it (never the first word). Without a von part Last is the final
// word alone.
func splitFirstVonLast(ws []string) PersonName {
	n := len(ws)
	lastStart := n - 1
	for lastStart > 0 && !isLowerWord(ws[lastStart-1]) {
		lastStart--
	}
	vonStart := lastStart
	for vonStart > 1 && isLowerWord(ws[vonStart-1]) {
		vonStart--
	}
	if vonStart == lastStart {
		return PersonName{First: part(ws[:n-1]), Last: part(ws[n-1:])}
	}
	return PersonName{
		First: part(ws[:vonStart]),
		Von:   part(ws[vonStart:lastStart]),
		Last:  part(ws[lastStart:]),
	}
}

// splitVonLast splits the part before the first comma: leading lower-case
// words are von, at least one word is left for Last.
func splitVonLast(ws []string) (von, last []string) {
	i := 0
	for i < len(ws)-1 && isLowerWord(ws[i]) {
		i++
	}
	return part(ws[:i]), part(ws[i:])
}

// isLowerWord reports whether the first letter of the rendered word is
// lower case. Control words left by Normalize are skipped; a word without
// letters is not lower case.
func isLowerWord(w string) bool {
	s := Normalize(w)
	for i := 0; i < len(s); {
		if s[i] == '\\' {
			i++
			for i < len(s) && isASCIILetter(s[i]) {
				i++
			}
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if unicode.IsLetter(r) {
			return unicode.IsLower(r)
		}
		i += size
	}
	return false
}

// splitCommas splits s on commas at brace depth 0.
func splitCommas(s string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

func part(ws []string) []string {
	if len(ws) == 0 {
		return nil
	}
	return slices.Clone(ws)
}
