package match

import (
	"regexp"

	"github.com/rotisserie/eris"

	"github.com/open-asset-data/asset-pipeline/internal/model"
)

// Match source labels recorded on ownership mapping rows.
const (
	SourceParentPattern     = "parent_pattern"
	SourcePlantNameFallback = "plant_name_fallback"
)

// Claimer attributes tracker plants to tracked companies using the pattern
// registry and the ownership-transfer table.
type Claimer struct {
	companies []companyPatterns
	byName    map[string]int
	transfers []compiledTransfer
}

type companyPatterns struct {
	name     string
	parentRe *regexp.Regexp
	plantRe  *regexp.Regexp // nil when no plant-name fallback exists
}

type compiledTransfer struct {
	model.OwnershipTransfer
	plantRe *regexp.Regexp
}

// NewClaimer compiles the company patterns and transfer table. Patterns are
// matched case-insensitively against the raw tracker fields.
func NewClaimer(patterns []model.CompanyPattern, transfers []model.OwnershipTransfer) (*Claimer, error) {
	c := &Claimer{byName: make(map[string]int, len(patterns))}

	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p.ParentPattern)
		if err != nil {
			return nil, eris.Wrapf(err, "match: compile parent pattern for %s", p.Name)
		}
		cp := companyPatterns{name: p.Name, parentRe: re}
		if p.PlantNamePattern != "" {
			cp.plantRe, err = regexp.Compile("(?i)" + p.PlantNamePattern)
			if err != nil {
				return nil, eris.Wrapf(err, "match: compile plant pattern for %s", p.Name)
			}
		}
		c.byName[p.Name] = len(c.companies)
		c.companies = append(c.companies, cp)
	}

	for _, t := range transfers {
		re, err := regexp.Compile("(?i)" + t.TargetPlantPattern)
		if err != nil {
			return nil, eris.Wrapf(err, "match: compile transfer pattern for %s", t.Acquirer)
		}
		c.transfers = append(c.transfers, compiledTransfer{OwnershipTransfer: t, plantRe: re})
	}

	return c, nil
}

// Companies returns the canonical company names in registry order.
func (c *Claimer) Companies() []string {
	names := make([]string, len(c.companies))
	for i, cp := range c.companies {
		names[i] = cp.name
	}
	return names
}

// ParentPattern returns the compiled parent pattern for a company, or nil
// when the company is not in the registry.
func (c *Claimer) ParentPattern(company string) *regexp.Regexp {
	i, ok := c.byName[company]
	if !ok {
		return nil
	}
	return c.companies[i].parentRe
}

// Claim returns the plants attributed to a company for a given year, along
// with the match-source label. A plant matching no company is simply not
// claimed; that is expected, not an error.
//
// Transfer handling: when the company acquired another's plants effective a
// later year, those plants are excluded for pre-acquisition years even if
// the current tracker vintage already names the acquirer as parent. The
// prior owner reclaims them through its plant-name fallback pattern.
func (c *Claimer) Claim(company string, plants []model.Plant, year int) ([]model.Plant, string) {
	i, ok := c.byName[company]
	if !ok {
		return nil, ""
	}
	cp := c.companies[i]

	var claimed []model.Plant
	for _, p := range plants {
		if cp.parentRe.MatchString(p.Parent) {
			claimed = append(claimed, p)
		}
	}

	for _, t := range c.transfers {
		if t.Acquirer != company || year >= t.YearAcquired {
			continue
		}
		kept := claimed[:0]
		for _, p := range claimed {
			if !t.plantRe.MatchString(p.Name) {
				kept = append(kept, p)
			}
		}
		claimed = kept
	}

	if len(claimed) > 0 {
		return claimed, SourceParentPattern
	}

	if cp.plantRe != nil {
		for _, p := range plants {
			if cp.plantRe.MatchString(p.Name) {
				claimed = append(claimed, p)
			}
		}
		if len(claimed) > 0 {
			return claimed, SourcePlantNameFallback
		}
	}

	return nil, ""
}
