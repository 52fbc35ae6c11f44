package bibtex

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// combining marks of the accent commands that take a single letter, written
// with a symbol (\'e) or a letter (\c c).
var (
	symbolAccents = map[string]rune{
		"`":  '̀',
		"'":  '́',
		"^":  '̂',
		"~":  '̃',
		"=":  '̄',
		".":  '̇',
		"\"": '̈',
	}
	letterAccents = map[string]rune{
		"u": '̆',
		"r": '̊',
		"H": '̋',
		"v": '̌',
		"d": '̣',
		"c": '̧',
		"k": '̨',
		"b": '̱',
	}
)

// commandChars maps control words that stand for a character.
var commandChars = map[string]string{
	"ss": "ß", "SS": "SS",
	"ae": "æ", "AE": "Æ",
	"oe": "œ", "OE": "Œ",
	"o": "ø", "O": "Ø",
	"aa": "å", "AA": "Å",
	"l": "ł", "L": "Ł",
	"i": "i", "j": "j",
	"dh": "ð", "DH": "Ð",
	"th": "þ", "TH": "Þ",
	"ng": "ŋ", "NG": "Ŋ",
	"S": "§", "P": "¶",
	"dag": "†", "ddag": "‡",
	"copyright": "©", "textregistered": "®", "texttrademark": "™",
	"pounds": "£", "pound": "£", "euro": "€",
	"textquestiondown": "¿", "textexclamdown": "¡",
	"guillemotleft": "«", "guillemotright": "»",
	"flqq": "«", "frqq": "»",
	"guilsinglleft": "‹", "guilsinglright": "›",
	"textendash": "–", "textemdash": "—",
	"textbar": "|", "textless": "<", "textgreater": ">",
	"textdollar": "$", "textunderscore": "_",
	"textperiodcentered": "·", "cdotp": "·",
	"textdegree": "°", "neg": "¬",
}

// controlSymbols maps \<symbol> escapes that stand for a character. \{, \}
// and \\ are absent: they pass through unchanged.
var controlSymbols = map[string]string{
	"&": "&", "%": "%", "$": "$", "#": "#", "_": "_",
	" ": " ", ",": " ", "-": "", "/": "",
}

// Normalize rewrites TeX accent constructs such as \'e, {\"o} or \c{c} into
// composed Unicode characters and strips protecting braces. Case is never
// changed. Escapes it does not know are kept, written as \cmd{arg} or
// \cmd{} so that Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if !strings.ContainsAny(s, "{}\\") {
		return norm.NFC.String(s)
	}
	return norm.NFC.String(normalizeText(s))
}

func normalizeText(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); {
		switch s[i] {
		case '{', '}':
			i++
		case '\\':
			i = writeEscape(&sb, s, i)
		default:
			sb.WriteByte(s[i])
			i++
		}
	}
	return sb.String()
}

// writeEscape handles the escape starting at s[i] == '\\' and returns the
// offset after it.
func writeEscape(sb *strings.Builder, s string, i int) int {
	j := i + 1
	if j >= len(s) {
		sb.WriteByte('\\')
		return j
	}
	if isASCIILetter(s[j]) {
		k := j
		for k < len(s) && isASCIILetter(s[k]) {
			k++
		}
		name := s[j:k]
		if mark, ok := letterAccents[name]; ok {
			if base, end, ok := accentBase(s, k, true); ok {
				sb.WriteString(base)
				sb.WriteRune(mark)
				return end
			}
			return writeUnknown(sb, s, i, k, false)
		}
		if rep, ok := commandChars[name]; ok {
			sb.WriteString(rep)
			return skipTerminator(s, k)
		}
		return writeUnknown(sb, s, i, k, true)
	}

	_, w := utf8.DecodeRuneInString(s[j:])
	k := j + w
	sym := s[j:k]
	if mark, ok := symbolAccents[sym]; ok {
		if base, end, ok := accentBase(s, k, false); ok {
			sb.WriteString(base)
			sb.WriteRune(mark)
			return end
		}
		return writeUnknown(sb, s, i, k, false)
	}
	if rep, ok := controlSymbols[sym]; ok {
		sb.WriteString(rep)
		return k
	}
	sb.WriteString(s[i:k])
	return k
}

// writeUnknown copies the command s[i:k] with its brace argument, or with
// an empty {} when it has none. The argument of an unknown command is
// normalized; that of an accent without a valid base is kept as written.
func writeUnknown(sb *strings.Builder, s string, i, k int, normalizeArg bool) int {
	sb.WriteString(s[i:k])
	if k < len(s) && s[k] == '{' {
		if end, ok := matchBrace(s, k); ok {
			arg := s[k+1 : end-1]
			if normalizeArg {
				arg = normalizeText(arg)
			}
			sb.WriteByte('{')
			sb.WriteString(arg)
			sb.WriteByte('}')
			return end
		}
	}
	sb.WriteString("{}")
	return k
}

// accentBase reads the letter an accent applies to, starting at s[k]: a
// letter, \i, \j or a brace group holding one of those.
func accentBase(s string, k int, skipSpace bool) (string, int, bool) {
	p := k
	if skipSpace {
		for p < len(s) && (s[p] == ' ' || s[p] == '\t' || s[p] == '\n' || s[p] == '\r') {
			p++
		}
	}
	if p >= len(s) {
		return "", k, false
	}
	switch s[p] {
	case '{':
		end, ok := matchBrace(s, p)
		if !ok {
			return "", k, false
		}
		if base, ok := baseLetter(strings.TrimSpace(s[p+1 : end-1])); ok {
			return base, end, true
		}
		return "", k, false
	case '\\':
		if base, ok := dotless(s[p:]); ok {
			return base, p + 2, true
		}
		return "", k, false
	}
	r, w := utf8.DecodeRuneInString(s[p:])
	if r != utf8.RuneError && unicode.IsLetter(r) {
		return s[p : p+w], p + w, true
	}
	return "", k, false
}

func baseLetter(inner string) (string, bool) {
	inner = norm.NFC.String(inner)
	if base, ok := dotless(inner); ok && len(inner) == 2 {
		return base, true
	}
	r, w := utf8.DecodeRuneInString(inner)
	if w > 0 && w == len(inner) && r != utf8.RuneError && unicode.IsLetter(r) {
		return inner, true
	}
	return "", false
}

// dotless recognizes \i and \j, which accents put on a plain i or j.
func dotless(s string) (string, bool) {
	if len(s) < 2 || s[0] != '\\' || (s[1] != 'i' && s[1] != 'j') {
		return "", false
	}
	if len(s) > 2 && isASCIILetter(s[2]) {
		return "", false
	}
	return s[1:2], true
}

// skipTerminator skips what ends a control word: an empty {} or spaces.
func skipTerminator(s string, k int) int {
	if strings.HasPrefix(s[k:], "{}") {
		return k + 2
	}
	for k < len(s) && (s[k] == ' ' || s[k] == '\t' || s[k] == '\n' || s[k] == '\r') {
		k++
	}
	return k
}

// matchBrace returns the offset after the '}' matching the '{' at s[k].
// Escaped braces do not count.
func matchBrace(s string, k int) (int, bool) {
	depth := 0
	for p := k; p < len(s); p++ {
		switch s[p] {
		case '\\':
			p++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return p + 1, true
			}
		}
	}
	return 0, false
}

func isASCIILetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}
