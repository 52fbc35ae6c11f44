package bibtex

import (
	"io"
	"os"
	"unicode"
	"unsafe"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

func lower(ch rune) rune {
	if 'A' <= ch && ch <= 'Z' {
		return ch + 'a' - 'A'
	}
	return ch
}

func ByteSlice2String(bs []byte) string {
	if len(bs) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(bs), len(bs))
}

func isASCIIAlphaNumeric(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || '0' <= ch && ch <= '9'
}

func onlyASCIIAlphaNumeric(s string) string {
	b := make([]byte, len(s))
	i := 0
	for _, ch := range s {
		ch := lower(ch)
		if isASCIIAlphaNumeric(ch) {
			b[i] = byte(ch)
			i++
		}
	}
	return ByteSlice2String(b[:i])
}

// foldASCII renders the TeX markup of s, strips diacritics and keeps lower
// case ASCII letters and digits: "{\"U}ber-Bl{\aa}" becomes "uberbl".
func foldASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, Normalize(s))
	if err != nil {
		folded = s
	}
	return onlyASCIIAlphaNumeric(folded)
}

func saveWith(filename string, w func(io.Writer) error) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		ferr := f.Close()
		if err == nil {
			err = ferr
		}
	}()
	return w(f)
}
