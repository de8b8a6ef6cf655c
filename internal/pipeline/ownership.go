package pipeline

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/open-asset-data/asset-pipeline/internal/fetcher"
	"github.com/open-asset-data/asset-pipeline/internal/match"
	"github.com/open-asset-data/asset-pipeline/internal/model"
	"github.com/open-asset-data/asset-pipeline/internal/ownership"
	"github.com/open-asset-data/asset-pipeline/internal/registry"
)

var mappingHeader = []string{
	"company", "year", "plant_id", "plant_name", "country", "status",
	"start_year", "technology", "capacity_ttpa", "equity_share",
	"equity_derived", "match_source", "in_reference", "reference_equity",
	"flags",
}

var mismatchHeader = []string{
	"company", "year", "plant_id", "plant_name", "country", "capacity_ttpa",
	"kind", "detail", "current_equity", "reference_equity", "action",
}

// ownership claims plants for each tracked company per analysis year,
// parses equity shares, cross-validates against the reference list, and
// writes the mapping and mismatch outputs.
func (r *Runner) ownership(ctx context.Context) (int, error) {
	plants, err := readPlants(r.outPath(PlantsFile))
	if err != nil {
		return 0, err
	}
	refs, err := readReference(r.cfg.Data.ReferenceOwnership)
	if err != nil {
		return 0, err
	}

	patterns, err := registry.Companies()
	if err != nil {
		return 0, err
	}
	transfers, err := registry.Transfers()
	if err != nil {
		return 0, err
	}
	claimer, err := match.NewClaimer(patterns, transfers)
	if err != nil {
		return 0, err
	}
	validator := ownership.NewValidator(refs)

	var mappingRows, mismatchRows [][]string
	for _, company := range claimer.Companies() {
		for _, year := range r.years() {
			if err := ctx.Err(); err != nil {
				return 0, err
			}

			claimed, matchSource := claimer.Claim(company, plants, year)
			if len(claimed) == 0 {
				continue
			}

			entries := make([]model.OwnershipEntry, 0, len(claimed))
			for _, p := range claimed {
				// Fallback-claimed plants name another parent; the
				// company's actual share is unknowable from this field.
				stake := ownership.Stake{Share: 1, Derived: true}
				if matchSource == match.SourceParentPattern {
					s, found, err := ownership.EquityShare(p.Parent, claimer.ParentPattern(company))
					if err != nil {
						return 0, eris.Wrapf(err, "ownership: %s plant %s", company, p.ID)
					}
					if found {
						stake = s
					}
				}
				entries = append(entries, model.OwnershipEntry{
					Company:       company,
					Year:          year,
					Plant:         p,
					EquityShare:   stake.Share,
					EquityDerived: stake.Derived,
					MatchSource:   matchSource,
				})
			}

			entries, mismatches := validator.Validate(company, year, entries)
			for _, e := range entries {
				mappingRows = append(mappingRows, mappingRow(e))
			}
			for _, m := range mismatches {
				mismatchRows = append(mismatchRows, mismatchRow(m))
			}
		}
	}
	if len(mappingRows) == 0 {
		return 0, eris.New("ownership: no plants claimed by any tracked company")
	}

	if err := fetcher.WriteCSV(r.outPath(MappingFile), mappingHeader, mappingRows); err != nil {
		return 0, err
	}
	if err := fetcher.WriteCSV(r.outPath(MismatchesFile), mismatchHeader, mismatchRows); err != nil {
		return 0, err
	}
	return len(mappingRows), nil
}

func mappingRow(e model.OwnershipEntry) []string {
	return []string{
		e.Company, strconv.Itoa(e.Year), e.Plant.ID, e.Plant.Name,
		e.Plant.Country, string(e.Plant.Status), strconv.Itoa(e.Plant.StartYear),
		string(e.Plant.Technology), formatFloat(e.Plant.CapacityTTPA),
		formatFloat(e.EquityShare), strconv.FormatBool(e.EquityDerived),
		e.MatchSource, strconv.FormatBool(e.InReference),
		formatOptFloat(e.ReferenceEquity), strings.Join(e.Flags, "|"),
	}
}

func mismatchRow(m model.OwnershipMismatch) []string {
	return []string{
		m.Company, strconv.Itoa(m.Year), m.PlantID, m.PlantName, m.Country,
		formatFloat(m.CapacityTTPA), string(m.Kind), m.Detail,
		formatOptFloat(m.CurrentEquity), formatOptFloat(m.ReferenceEquity),
		m.Action,
	}
}
