package bibtex

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileOf parses src and resolves all its entries.
func fileOf(t *testing.T, name, src string) *File {
	t.Helper()
	db := mustParse(t, src, Options{Name: name, Macros: MonthMacros()})
	f, err := db.File()
	require.NoError(t, err)
	return f
}

func keysOf(f *File) []string {
	keys := make([]string, f.Len())
	for i, e := range f.Entries {
		keys[i] = e.Key
	}
	return keys
}

const (
	setA = `
@article{a1, title = {Deep Learning}, year = 2015}
@article{a2, title = {Attention Is All You Need}, year = 2017}
@book{a3, title = {The {\TeX}book}, year = 1984}
`
	setB = `
@article{b1, title = {deep learning}, year = {2015}}
@misc{b2, title = {Something Else}, year = 2020}
@book{b3, title = {The \TeX book}, year = 1984}
`
)

func TestDeduplicate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		action   SetActionType
		name     string
		expected []string
	}{
		{SetIntersect, "intersection.bib", []string{"a1", "a3"}},
		{SetUnion, "union.bib", []string{"a1", "a2", "a3", "b2"}},
		{SetConcat, "concat.bib", []string{"a1", "a2", "a3", "b1", "b2", "b3"}},
	}

	for _, tc := range testCases {
		t.Run(tc.action.String(), func(t *testing.T) {
			t.Parallel()
			files := []*File{fileOf(t, "a.bib", setA), fileOf(t, "b.bib", setB)}
			res, dr, err := Deduplicate(files, []string{"year", "title"}, tc.action)
			require.NoError(t, err)
			assert.Equal(t, tc.name, res.Name())
			assert.Equal(t, tc.expected, keysOf(res))
			assert.Equal(t, 2, dr.DuplicateSetCount)
			assert.Equal(t, len(tc.expected), dr.ResultSetCount)
		})
	}
}

func TestDeduplicateReport(t *testing.T) {
	t.Parallel()

	files := []*File{fileOf(t, "a.bib", setA), fileOf(t, "b.bib", setB)}
	res, dr, err := Deduplicate(files, []string{"title", "year"}, SetNoAction)
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, 2, dr.DuplicateSetCount)

	report := dr.String()
	assert.Contains(t, report, "2 duplicate sets found")
	assert.Contains(t, report, "[deeplearning2015] has 2 occurrences")
	assert.Contains(t, report, "a.bib:2")
	assert.Contains(t, report, "b.bib:2")
	assert.Less(t, strings.Index(report, "deeplearning"), strings.Index(report, "thetexbook"))
}

func TestDeduplicateByKey(t *testing.T) {
	t.Parallel()

	files := []*File{
		fileOf(t, "a.bib", "@misc{Knuth84, title = {A}}\n@misc{other}"),
		fileOf(t, "b.bib", "@misc{knuth84, title = {B}}"),
	}
	res, dr, err := Deduplicate(files, nil, SetUnion)
	require.NoError(t, err)
	assert.Equal(t, []string{"Knuth84", "other"}, keysOf(res))
	assert.Equal(t, 1, dr.DuplicateSetCount)

	// citekey combined with a field
	res, _, err = Deduplicate(files, []string{"title", "citekey"}, SetUnion)
	require.NoError(t, err)
	assert.Equal(t, []string{"Knuth84", "other", "knuth84"}, keysOf(res))
}

func TestDeduplicateErrors(t *testing.T) {
	t.Parallel()

	_, _, err := Deduplicate([]*File{NewFile("empty.bib")}, nil, SetUnion)
	assert.EqualError(t, err, "nothing to deduplicate")

	f := fileOf(t, "a.bib", setA)
	_, _, err = Deduplicate([]*File{f}, []string{"title"}, SetIntersect)
	assert.EqualError(t, err, "no common entries")

	_, _, err = Deduplicate([]*File{f}, nil, SetActionType(9))
	assert.Error(t, err)
}

func TestParseSetAction(t *testing.T) {
	t.Parallel()

	for _, a := range []SetActionType{SetNoAction, SetIntersect, SetUnion, SetConcat} {
		got, err := ParseSetAction(strings.ToUpper(a.String()))
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
	got, err := ParseSetAction("")
	require.NoError(t, err)
	assert.Equal(t, SetNoAction, got)

	_, err = ParseSetAction("merge")
	assert.Error(t, err)
	assert.Equal(t, "SetActionType(9)", SetActionType(9).String())
}

func TestValidKeys(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidKeys(fileOf(t, "a.bib", setA)))
	assert.True(t, ValidKeys(NewFile("empty.bib")))
	assert.False(t, ValidKeys(fileOf(t, "d.bib", "@misc{k}\n@misc{K}")))
	assert.False(t, ValidKeys(fileOf(t, "e.bib", "@misc{title = {no key}}")))
}

func TestNewCiteKey(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		entry    *ExpandedEntry
		expected string
	}{
		{
			name: "full entry",
			entry: &ExpandedEntry{Type: "article", Fields: []ExpandedField{
				{Name: "author", Value: `Kurt G{\"o}del and Alan Turing`},
				{Name: "year", Value: "1931"},
				{Name: "title", Value: "{\\\"U}ber formal unentscheidbare S{\\\"a}tze"},
				{Name: "pages", Value: "173--198"},
				{Name: "volume", Value: "38"},
			}},
			expected: "godel1931ubera17319838",
		},
		{
			name: "von part and editor",
			entry: &ExpandedEntry{Type: "book", Fields: []ExpandedField{
				{Name: "editor", Value: "Ludwig van Beethoven"},
				{Name: "year", Value: "1800"},
				{Name: "title", Value: "Symphonies"},
			}},
			expected: "vanbeethoven1800symphoniesb",
		},
		{
			name:     "nothing to go on",
			entry:    &ExpandedEntry{},
			expected: "x",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, NewCiteKey(tc.entry))
		})
	}
}

func TestFixKeys(t *testing.T) {
	t.Parallel()

	f := fileOf(t, "keys.bib", `
@misc{dup, title = {One}}
@misc{dup, title = {Two}}
@misc{DUP, title = {Three}}
@misc{dupB, title = {Taken}}
@misc{title = {No Key}, year = 1999}
`)
	dr, err := FixKeys(f, []string{"title", "year"}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"dup", "dupA", "DUPC", "dupB", "nokey1999"}, keysOf(f))
	assert.Equal(t, 1, dr.DuplicateSetCount)
	assert.True(t, ValidKeys(f))

	dr, err = FixKeys(f, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 0, dr.DuplicateSetCount)
}

func TestFixKeysAll(t *testing.T) {
	t.Parallel()

	f := fileOf(t, "all.bib", `
@article{x, author = {Donald E. Knuth}, year = 1984, title = {Literate Programming}}
@article{y, author = {Donald E. Knuth}, year = 1984, title = {Literate programming}}
`)
	_, err := FixKeys(f, nil, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"knuth1984literatea", "knuth1984literateaA"}, keysOf(f))
}

func TestSuffix(t *testing.T) {
	t.Parallel()

	for n, expected := range map[int]string{1: "A", 2: "B", 26: "Z", 27: "AA", 28: "AB", 52: "AZ", 53: "BA", 703: "AAA"} {
		assert.Equal(t, expected, suffix(n), "suffix(%d)", n)
	}
}

func TestSplit(t *testing.T) {
	t.Parallel()

	parts := Split(fileOf(t, "a.bib", setA))
	require.Len(t, parts, 2)
	assert.Equal(t, []string{"a1", "a2"}, keysOf(parts["article"]))
	assert.Equal(t, []string{"a3"}, keysOf(parts["book"]))
	assert.Equal(t, "book", parts["book"].Name())
}

func TestExportSplit(t *testing.T) {
	t.Parallel()

	f := fileOf(t, "a.bib", setA+setB)
	dir := filepath.Join(t.TempDir(), "out")
	written, err := ExportSplit(f, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "article.bib"),
		filepath.Join(dir, "book.bib"),
		filepath.Join(dir, "misc.bib"),
	}, written)

	db, err := OpenFile(filepath.Join(dir, "article.bib"), Options{Strict: true})
	require.NoError(t, err)
	var keys []string
	for _, e := range db.Entries() {
		keys = append(keys, e.Key)
	}
	// b1 duplicates a1 on year and title
	assert.Equal(t, []string{"a1", "a2"}, keys)

	// an existing directory is reused
	_, err = ExportSplit(f, dir)
	require.NoError(t, err)

	_, err = ExportSplit(NewFile("empty.bib"), dir)
	assert.Error(t, err)
}

func TestEnsureDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	assert.Error(t, EnsureDir(file))
	assert.NoError(t, EnsureDir(filepath.Join(dir, "new")))
	assert.NoError(t, EnsureDir(filepath.Join(dir, "new")))
}

func TestFileSave(t *testing.T) {
	t.Parallel()

	f := fileOf(t, "a.bib", setA)
	name := filepath.Join(t.TempDir(), "saved.bib")
	require.NoError(t, f.Save(name))

	db, err := OpenFile(name, Options{Strict: true})
	require.NoError(t, err)
	assert.Equal(t, 3, db.Len())
	assert.Equal(t, "The {\\TeX}book", fieldOf(t, db, "a3", "title"))
}
