// Package ownership parses equity stakes out of raw tracker parent fields
// and cross-validates plant attribution against an independent reference
// ownership list.
package ownership

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// stakeRe matches a share annotation in either bracket style:
// "Name [52.0%]" or "Name (40%)".
var stakeRe = regexp.MustCompile(`\s*[\[(](\d+(?:\.\d+)?)\s*%[\])]`)

// placeholders are owner names that identify nobody; they are dropped and
// their implied share stays unclaimed.
var placeholders = map[string]bool{
	"other":   true,
	"others":  true,
	"unknown": true,
}

// Stake is one owner parsed from a parent field. Shares are fractions of 1.
type Stake struct {
	Entity string
	Share  float64
	// Derived marks a share assigned by equal-split of the unclaimed
	// remainder rather than read from an explicit annotation.
	Derived bool
}

// ParseStakes parses a semicolon-separated owner list such as
// "ArcelorMittal SA [60.0%]; Nippon Steel Corp (40%)". Owners named without
// a percentage split the unclaimed remainder equally among themselves.
// Explicit shares summing past 100% are a data error, not something to
// clamp: the row needs a human.
func ParseStakes(parent string) ([]Stake, error) {
	var (
		stakes   []Stake
		noShare  []int
		explicit float64
	)

	for _, part := range strings.Split(parent, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		m := stakeRe.FindStringSubmatch(part)
		entity := strings.TrimSpace(stakeRe.ReplaceAllString(part, ""))
		if entity == "" || placeholders[strings.ToLower(entity)] {
			continue
		}

		if m == nil {
			noShare = append(noShare, len(stakes))
			stakes = append(stakes, Stake{Entity: entity, Derived: true})
			continue
		}

		pct, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "ownership: parse share in %q", part)
		}
		explicit += pct / 100
		stakes = append(stakes, Stake{Entity: entity, Share: pct / 100})
	}

	if explicit > 1+1e-6 {
		return nil, eris.Errorf("ownership: shares in %q sum to %.1f%%", parent, explicit*100)
	}

	if len(noShare) > 0 {
		each := (1 - explicit) / float64(len(noShare))
		for _, i := range noShare {
			stakes[i].Share = each
		}
	}

	return stakes, nil
}

// EquityShare finds the stake of the owner matching companyRe. The boolean
// is false when no owner in the field matches.
func EquityShare(parent string, companyRe *regexp.Regexp) (Stake, bool, error) {
	stakes, err := ParseStakes(parent)
	if err != nil {
		return Stake{}, false, err
	}
	for _, s := range stakes {
		if companyRe.MatchString(s.Entity) {
			return s, true, nil
		}
	}
	return Stake{}, false, nil
}
