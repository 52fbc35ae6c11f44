package bibtex

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type sortKey struct {
	field string
	desc  bool
}

func parseSortSpec(spec string) ([]sortKey, error) {
	var keys []sortKey
	for _, s := range strings.Split(spec, ",") {
		s = strings.ToLower(strings.TrimSpace(s))
		k := sortKey{field: strings.TrimPrefix(s, "-"), desc: strings.HasPrefix(s, "-")}
		if k.field == "" {
			return nil, fmt.Errorf("invalid sort spec %q", spec)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Sort orders the entries of f by the comma-separated fields of spec, such
// as "type,-year". A leading '-' sorts that field in descending order;
// "type" and "key" name the entry type and citation key. Values that are
// both integers compare numerically, others by Unicode collation ignoring
// case and accents. Entries missing a field sort after those that have it.
// The sort is stable.
func Sort(f *File, spec string) error {
	keys, err := parseSortSpec(spec)
	if err != nil {
		return err
	}
	col := collate.New(language.Und, collate.IgnoreCase, collate.IgnoreDiacritics)
	slices.SortStableFunc(f.Entries, func(a, b *ExpandedEntry) int {
		for _, k := range keys {
			va, oka := sortValue(a, k.field)
			vb, okb := sortValue(b, k.field)
			switch {
			case !oka && !okb:
				continue
			case !oka:
				return 1
			case !okb:
				return -1
			}
			c := compareValues(col, va, vb)
			if k.desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	return nil
}

func sortValue(e *ExpandedEntry, field string) (string, bool) {
	switch field {
	case "type":
		return e.Type, true
	case "key", "citekey":
		return e.Key, e.Key != ""
	}
	v, ok := e.Lookup(field)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return Normalize(v), true
}

func compareValues(col *collate.Collator, a, b string) int {
	ia, erra := strconv.Atoi(strings.TrimSpace(a))
	ib, errb := strconv.Atoi(strings.TrimSpace(b))
	if erra == nil && errb == nil {
		switch {
		case ia < ib:
			return -1
		case ia > ib:
			return 1
		}
		return 0
	}
	return col.CompareString(a, b)
}
