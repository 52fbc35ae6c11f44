package bibtex

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRoundTrip(t *testing.T) {
	t.Parallel()

	db := mustParse(t, sample, Options{Macros: MonthMacros()})
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, db))

	again := mustParse(t, buf.String(), Options{Macros: MonthMacros()})
	recs, againRecs := db.Records(), again.Records()
	require.Len(t, againRecs, len(recs))
	for i, rec := range recs {
		switch rec := rec.(type) {
		case *Entry:
			got := entryOf(t, againRecs[i])
			assert.Equal(t, rec.Type, got.Type)
			assert.Equal(t, rec.Key, got.Key)
			if diff := cmp.Diff(rec.Fields, got.Fields, cmpopts.IgnoreFields(Field{}, "Line")); diff != "" {
				t.Errorf("fields of %s mismatch (-want +got):\n%s", rec.Key, diff)
			}
		case *StringDef:
			got, ok := againRecs[i].(*StringDef)
			require.True(t, ok)
			assert.Equal(t, rec.Name, got.Name)
			assert.Equal(t, rec.Value, got.Value)
		case *Preamble:
			got, ok := againRecs[i].(*Preamble)
			require.True(t, ok)
			assert.Equal(t, rec.Value, got.Value)
		case *Comment:
			got, ok := againRecs[i].(*Comment)
			require.True(t, ok)
			assert.Equal(t, rec.Text, got.Text)
		}
	}

	x, err := db.Resolve(db.Entries()[1])
	require.NoError(t, err)
	y, err := again.Resolve(again.Entries()[1])
	require.NoError(t, err)
	assert.Equal(t, x.Fields, y.Fields)
}

func TestWriteExpandedEntry(t *testing.T) {
	t.Parallel()

	e := &ExpandedEntry{Type: "article", Key: "k", Fields: []ExpandedField{
		{Name: "title", Value: "A {B} C"},
		{Name: "note", Value: `say "hi" }`},
	}}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, e))
	assert.Equal(t, "@article{k,\n  title = {A {B} C},\n  note = \"say {\"}hi{\"} \"\n}\n\n", buf.String())

	db := mustParse(t, buf.String(), Options{Strict: true})
	assert.Equal(t, `say {"}hi{"} `, fieldOf(t, db, "k", "note"))
}

func TestWriteComment(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, &Comment{Text: "mail me @ home }"}))
	assert.Equal(t, "mail me   home }\n\n", buf.String())

	db := mustParse(t, buf.String(), Options{Strict: true})
	assert.Equal(t, 0, db.Len())
}

func TestWriteUnsupported(t *testing.T) {
	t.Parallel()

	assert.Error(t, Write(&bytes.Buffer{}, 42))
}

func TestQuote(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in       string
		expected string
	}{
		{"plain", "{plain}"},
		{"", "{}"},
		{"{LLC} Inc", "{{LLC} Inc}"},
		{"a } b", `"a  b"`},
		{"{open", `"open"`},
		{`x "y" }`, `"x {"}y{"} "`},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Quote(tc.in), "Quote(%q)", tc.in)
	}
}
