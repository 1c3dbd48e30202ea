package match

import (
	"regexp"
	"strings"
)

// suffixPattern matches a trailing directional or structural qualifier.
var suffixPattern = regexp.MustCompile(`(?i)\s+(?:` +
	`nordost|nordwest|südost|südwest|suedost|suedwest|nord|süd|sued|ost|west|` +
	`(?:überbau|ueberbau|überführung|ueberfuehrung|teilbauwerk|bauwerk)\s*\d+[a-z]?|` +
	`(?:gewölbe|gewoelbe|galerie).*` +
	`)$`)

// mainNameToken matches the first directional or structural word after the
// main name. The trailing group keeps "Ostkreuz" from matching "ost".
var mainNameToken = regexp.MustCompile(`(?i)[\s-](?:` +
	`nordost|nordwest|südost|südwest|suedost|suedwest|nord|süd|sued|ost|west|` +
	`(?:nordöst|nordoest|nordwest|südöst|suedoest|südwest|suedwest|nörd|noerd|süd|sued|öst|oest|west)lich(?:e[rsnm]?)?|` +
	`mittlere[rsnm]?|` +
	`überbau|ueberbau|überführung|ueberfuehrung|teilbauwerk|bauwerk|gewölbe|gewoelbe|galerie|` +
	`gewässerquerung|gewaesserquerung|wasserquerung|` +
	`vorlandbrücke|vorlandbruecke|uferbrücke|uferbruecke` +
	`)(?:[\s,;()\-]|\d|$)`)

var (
	bridgeSuffix     = regexp.MustCompile(`(?i)[\s-]+(?:brücke|bruecke)$`)
	streetSuffix     = regexp.MustCompile(`(?i)(?:[\s-]+stra(?:ß|ss)e|str\.?)$`)
	pedestrianPrefix = regexp.MustCompile(`(?i)^(?:fußgänger|fussgänger|fußgaenger|fussgaenger)(?:brücke|bruecke|steg)\s+`)
	overpassReverse  = regexp.MustCompile(`(?i)\s+(nördlicher|noerdlicher|südlicher|suedlicher|mittlerer)\s+(?:überbau|ueberbau)$`)
)

type directionalPart struct {
	pattern *regexp.Regexp
	abbr    string
}

// directionalParts rewrites "<direction>licher Teil" into the "ÜB <abbr>"
// notation used by the reference lists.
var directionalParts = []directionalPart{
	{regexp.MustCompile(`(?i)\s+(?:nördlich|noerdlich)(?:e[rsn]?)?\s+teil$`), "N"},
	{regexp.MustCompile(`(?i)\s+(?:nordöstlich|nordoestlich)(?:e[rsn]?)?\s+teil$`), "NO"},
	{regexp.MustCompile(`(?i)\s+(?:östlich|oestlich)(?:e[rsn]?)?\s+teil$`), "O"},
	{regexp.MustCompile(`(?i)\s+(?:südöstlich|suedoestlich)(?:e[rsn]?)?\s+teil$`), "SO"},
	{regexp.MustCompile(`(?i)\s+(?:südlich|suedlich)(?:e[rsn]?)?\s+teil$`), "S"},
	{regexp.MustCompile(`(?i)\s+(?:südwestlich|suedwestlich)(?:e[rsn]?)?\s+teil$`), "SW"},
	{regexp.MustCompile(`(?i)\s+westlich(?:e[rsn]?)?\s+teil$`), "W"},
	{regexp.MustCompile(`(?i)\s+nordwestlich(?:e[rsn]?)?\s+teil$`), "NW"},
}

// StripSuffix removes one trailing directional or structural qualifier.
func StripSuffix(name string) string {
	return suffixPattern.ReplaceAllString(name, "")
}

// MainPart returns the part of name before the first directional or
// structural word, or name itself when there is none.
func MainPart(name string) string {
	loc := mainNameToken.FindStringIndex(name)
	if loc == nil || loc[0] == 0 {
		return name
	}
	return strings.TrimSpace(name[:loc[0]])
}

// Variants returns the textual variants of name tried by the variant
// strategy, in order. Variants equal to name or to an earlier variant are
// omitted.
func Variants(name string) []string {
	candidates := []string{
		strings.ReplaceAll(name, "-", " "),
		strings.ReplaceAll(name, " ", "-"),
		bridgeSuffix.ReplaceAllString(name, "brücke"),
		streetSuffix.ReplaceAllString(name, "straße"),
		pedestrianPrefix.ReplaceAllString(name, ""),
	}
	for _, d := range directionalParts {
		candidates = append(candidates, d.pattern.ReplaceAllString(name, " ÜB "+d.abbr))
	}
	candidates = append(candidates, overpassReverse.ReplaceAllStringFunc(name, reverseOverpass))

	seen := map[string]bool{name: true}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func reverseOverpass(m string) string {
	sub := overpassReverse.FindStringSubmatch(m)
	if sub == nil {
		return m
	}
	switch strings.ToLower(sub[1]) {
	case "nördlicher", "noerdlicher":
		return " Überbau Nord"
	case "südlicher", "suedlicher":
		return " Überbau Süd"
	default:
		return " Überbau Mitte"
	}
}
