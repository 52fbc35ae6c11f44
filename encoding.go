package bibtex

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// decodeSource converts src from the named 8-bit encoding to UTF-8.
func decodeSource(src []byte, name string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return src, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	out, err := enc.NewDecoder().Bytes(src)
	if err != nil {
		return nil, fmt.Errorf("decoding %s source: %w", name, err)
	}
	return out, nil
}
