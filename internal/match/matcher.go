package match

import "strings"

// Tier identifies which matching rule produced a result. Lower tiers are
// stricter; the first tier that yields any match wins.
type Tier int

const (
	TierNone Tier = iota
	// TierExact: exact normalized-name match plus exact country match.
	TierExact
	// TierContains: one normalized name contains the other, same country.
	TierContains
	// TierTokens: overlap of key location words, same country.
	TierTokens
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierContains:
		return "contains"
	case TierTokens:
		return "tokens"
	default:
		return "none"
	}
}

// Candidate is one entry of the dataset being matched against.
type Candidate struct {
	Name    string
	Country string
}

// Result is the outcome of matching one name against a candidate set.
// Ambiguous results (two or more candidates at a loose tier) must be
// surfaced for human review, never silently resolved.
type Result struct {
	Index     int // winning candidate index, -1 if none
	Tier      Tier
	Ambiguous bool
	Matches   []int // all candidate indices at the winning tier
}

// tierFunc reports whether a normalized target matches one candidate.
// The chain is composed left-to-right with short-circuit on first tier
// that produces any match.
type tierFunc func(norm, country string, cand candidate) bool

type candidate struct {
	norm    string
	country string
	tokens  map[string]bool
}

var tiers = []struct {
	tier Tier
	fn   tierFunc
}{
	{TierExact, func(norm, country string, c candidate) bool {
		return c.country == country && c.norm == norm
	}},
	{TierContains, func(norm, country string, c candidate) bool {
		if c.country != country || norm == "" || c.norm == "" {
			return false
		}
		return strings.Contains(c.norm, norm) || strings.Contains(norm, c.norm)
	}},
	{TierTokens, nil}, // token overlap needs the precomputed token sets
}

// Match finds the candidate corresponding to (name, country) using the
// three-tier fallback. A single match at any tier wins; multiple matches at
// TierContains or TierTokens come back Ambiguous with all indices listed.
func Match(name, country string, cands []Candidate) Result {
	norm := NormalizePlantName(name)
	countryNorm := NormalizeName(country)
	tokens := KeyTokens(name)

	prepared := make([]candidate, len(cands))
	for i, c := range cands {
		prepared[i] = candidate{
			norm:    NormalizePlantName(c.Name),
			country: NormalizeName(c.Country),
			tokens:  KeyTokens(c.Name),
		}
	}

	for _, t := range tiers {
		var matches []int
		for i, c := range prepared {
			var ok bool
			if t.tier == TierTokens {
				ok = c.country == countryNorm && overlaps(tokens, c.tokens)
			} else {
				ok = t.fn(norm, countryNorm, c)
			}
			if ok {
				matches = append(matches, i)
			}
		}

		switch {
		case len(matches) == 1:
			return Result{Index: matches[0], Tier: t.tier, Matches: matches}
		case len(matches) > 1 && t.tier == TierExact:
			// Exact duplicates are the same entity recorded twice; the
			// first occurrence stands in for all of them.
			return Result{Index: matches[0], Tier: t.tier, Matches: matches}
		case len(matches) > 1:
			return Result{Index: -1, Tier: t.tier, Ambiguous: true, Matches: matches}
		}
	}

	return Result{Index: -1, Tier: TierNone}
}

func overlaps(a, b map[string]bool) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	for tok := range a {
		if b[tok] {
			return true
		}
	}
	return false
}
