// Package normalize derives canonical matching keys from bridge names.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type replacement struct {
	from string
	to   string
}

var footnote = regexp.MustCompile(`\[\s*\d+\s*\]`)

var dashes = strings.NewReplacer("–", "-", "—", "-")

// abbreviations is applied in order to a lowercased copy. Replacements are
// already in key form so a second application never re-matches them.
// "tbw." must precede "bw.".
var abbreviations = []replacement{
	{"str.", "strasse"},
	{"brk.", "bruecke"},
	{"br.", "bruecke"},
	{"tbw.", "teilbauwerk"},
	{"bw.", "bauwerk"},
	{"übf.", "ueberfuehrung"},
	{"üb.", "ueberbau"},
	{"s-bahn-brücke", "s-bahnbruecke"},
	{"cöpenick", "koepenick"},
	{"coepenick", "koepenick"},
	{"cottbusser", "kottbusser"},
}

// directions expands whole-token directional abbreviations.
var directions = map[string]string{
	"nw":  "nordwest",
	"sw":  "suedwest",
	"no":  "nordost",
	"so":  "suedost",
	"nö":  "nordost",
	"sö":  "suedost",
	"noe": "nordost",
	"soe": "suedost",
	"n.":  "nord",
	"s.":  "sued",
	"o.":  "ost",
	"w.":  "west",
}

var letters = strings.NewReplacer(
	"ß", "ss",
	"ä", "ae", "ö", "oe", "ü", "ue",
	"Ä", "Ae", "Ö", "Oe", "Ü", "Ue",
	"æ", "ae", "œ", "oe", "Æ", "Ae", "Œ", "Oe",
)

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// Key maps raw text to its matching key: lowercase ASCII letters, digits,
// single spaces and hyphens. Key(Key(s)) == Key(s). An empty result is a
// valid key but must never be treated as a hit.
func Key(s string) string {
	s = norm.NFC.String(s)
	s = footnote.ReplaceAllString(s, "")
	s = dashes.Replace(s)
	s = expand(s)
	s = letters.Replace(s)
	s = collapse(strings.ToLower(s))

	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}

	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '-':
			return r
		}
		return -1
	}, s)

	// Dropping punctuation can expose tokens like "(NW)" as "nw".
	return expand(s)
}

// expand lowercases s, applies the abbreviation table and the directional
// token map, and collapses whitespace.
func expand(s string) string {
	s = strings.ToLower(s)
	for _, r := range abbreviations {
		s = strings.ReplaceAll(s, r.from, r.to)
	}
	fields := strings.Fields(s)
	for i, f := range fields {
		if full, ok := directions[f]; ok {
			fields[i] = full
		}
	}
	return strings.Join(fields, " ")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
