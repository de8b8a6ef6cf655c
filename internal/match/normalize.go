// Package match resolves free-text company and plant names across
// independently curated datasets. Tracker plant IDs are not stable between
// vintages, so all cross-dataset correspondence is re-derived from
// name + country on every run.
package match

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

var (
	punctRe      = regexp.MustCompile("[’'`\"“”.,()&-]")
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
	siteSuffixRe = regexp.MustCompile(`\s+(steel|iron|works|plant|mill|steelworks|ironworks)\s*$`)
)

// genericTokens are words that identify nothing about a specific site; they
// are ignored when comparing names token-wise.
var genericTokens = map[string]bool{
	"steel":      true,
	"iron":       true,
	"plant":      true,
	"works":      true,
	"mill":       true,
	"steelworks": true,
	"ironworks":  true,
	"new":        true,
	"old":        true,
	"integrated": true,
	"facility":   true,
	"complex":    true,
	"base":       true,
}

// NormalizeName standardizes a name for matching: Unicode case fold, strip
// punctuation, collapse whitespace.
func NormalizeName(name string) string {
	s := folder.String(strings.TrimSpace(name))
	s = punctRe.ReplaceAllString(s, " ")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizePlantName normalizes like NormalizeName and additionally strips
// trailing generic site words ("X steel plant" and "X steelworks" refer to
// the same site across tracker vintages).
func NormalizePlantName(name string) string {
	s := NormalizeName(name)
	for {
		stripped := siteSuffixRe.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = strings.TrimSpace(stripped)
	}
	return s
}

// KeyTokens returns the normalized tokens of a name minus generic site
// words. These are the "key location words" used by the loosest match tier.
func KeyTokens(name string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(NormalizePlantName(name)) {
		if !genericTokens[tok] {
			tokens[tok] = true
		}
	}
	return tokens
}
