package bibtex

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitNames(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		text     string
		expected []string
	}{
		{"two names", "Donald E. Knuth and Leslie Lamport", []string{"Donald E. Knuth", "Leslie Lamport"}},
		{"upper case separator", "A. Smith AND B. Jones", []string{"A. Smith", "B. Jones"}},
		{"and inside words", "Sandy Anderson and Brandon Band", []string{"Sandy Anderson", "Brandon Band"}},
		{"braced and", "{Barnes and Noble} and Jones", []string{"{Barnes and Noble}", "Jones"}},
		{"line breaks", "Knuth,\n  Donald\tand\nLamport", []string{"Knuth,\n  Donald", "Lamport"}},
		{"empty names dropped", "and A and and B and", []string{"A", "B"}},
		{"no names", "   ", nil},
		{"single name", "Aristotle", []string{"Aristotle"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, SplitNames(tc.text))
		})
	}
}

func TestParseName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		raw      string
		expected PersonName
	}{
		{"Donald E. Knuth", PersonName{First: []string{"Donald", "E."}, Last: []string{"Knuth"}}},
		{"Knuth", PersonName{Last: []string{"Knuth"}}},
		{"aristotle", PersonName{Last: []string{"aristotle"}}},
		{"Ludwig van Beethoven", PersonName{First: []string{"Ludwig"}, Von: []string{"van"}, Last: []string{"Beethoven"}}},
		{"Jean de la Fontaine", PersonName{First: []string{"Jean"}, Von: []string{"de", "la"}, Last: []string{"Fontaine"}}},
		{"Jean de La Fontaine", PersonName{First: []string{"Jean"}, Von: []string{"de"}, Last: []string{"La", "Fontaine"}}},
		{"von Neumann, John", PersonName{Von: []string{"von"}, Last: []string{"Neumann"}, First: []string{"John"}}},
		{"King, Jr, Martin Luther", PersonName{Last: []string{"King"}, Jr: []string{"Jr"}, First: []string{"Martin", "Luther"}}},
		{"jean de la fontaine", PersonName{First: []string{"jean"}, Von: []string{"de", "la"}, Last: []string{"fontaine"}}},
		{
			"Charles Louis Xavier Joseph de la Vallee Poussin",
			PersonName{
				First: []string{"Charles", "Louis", "Xavier", "Joseph"},
				Von:   []string{"de", "la"},
				Last:  []string{"Vallee", "Poussin"},
			},
		},
		{"Per {Brinch Hansen}", PersonName{First: []string{"Per"}, Last: []string{"{Brinch Hansen}"}}},
		{"Charles {de} Gaulle", PersonName{First: []string{"Charles"}, Von: []string{"{de}"}, Last: []string{"Gaulle"}}},
		{`{\'E}mile Zola`, PersonName{First: []string{`{\'E}mile`}, Last: []string{"Zola"}}},
		{"Donald~E.~Knuth", PersonName{First: []string{"Donald", "E."}, Last: []string{"Knuth"}}},
		{"{Barnes and Noble}", PersonName{Last: []string{"{Barnes and Noble}"}}},
		{"van Beethoven, Ludwig", PersonName{Von: []string{"van"}, Last: []string{"Beethoven"}, First: []string{"Ludwig"}}},
		{"de la Fontaine, Jean", PersonName{Von: []string{"de", "la"}, Last: []string{"Fontaine"}, First: []string{"Jean"}}},
		{"von, Hans", PersonName{Last: []string{"von"}, First: []string{"Hans"}}},
		{"Ford, Jr., Henry", PersonName{Last: []string{"Ford"}, Jr: []string{"Jr."}, First: []string{"Henry"}}},
		{"Doe,, John", PersonName{Last: []string{"Doe"}, First: []string{"John"}}},
		{"Knuth, Donald {E.}", PersonName{Last: []string{"Knuth"}, First: []string{"Donald", "{E.}"}}},
		{"{Smith, Jones}", PersonName{Last: []string{"{Smith, Jones}"}}},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			t.Parallel()
			got, err := ParseName(tc.raw)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.expected, got); diff != "" {
				t.Errorf("ParseName(%q) mismatch (-want +got):\n%s", tc.raw, diff)
			}
			assert.NotEmpty(t, got.Last)
		})
	}
}

func TestParseNameEmpty(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "   ", ",", " , , "} {
		_, err := ParseName(raw)
		assert.ErrorIs(t, err, ErrEmptyName, "ParseName(%q)", raw)
	}
}

func TestPersonNameString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		raw      string
		expected string
		last     string
	}{
		{"Ludwig van Beethoven", "van Beethoven, Ludwig", "van Beethoven"},
		{"Ford, Jr., Henry", "Ford, Jr., Henry", "Ford"},
		{"Knuth", "Knuth", "Knuth"},
		{"Per {Brinch Hansen}", "{Brinch Hansen}, Per", "{Brinch Hansen}"},
	}
	for _, tc := range testCases {
		n, err := ParseName(tc.raw)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, n.String())
		assert.Equal(t, tc.last, n.LastName())
	}
}

func TestParseNames(t *testing.T) {
	t.Parallel()

	got := ParseNames("Knuth, Donald and and Leslie Lamport and ,")
	require.Len(t, got, 2)
	assert.Equal(t, "Knuth, Donald", got[0].String())
	assert.Equal(t, "Lamport, Leslie", got[1].String())
	assert.Nil(t, ParseNames(""))
}
