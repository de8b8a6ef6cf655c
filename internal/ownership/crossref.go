package ownership

import (
	"fmt"
	"math"
	"strings"

	"github.com/open-asset-data/asset-pipeline/internal/match"
	"github.com/open-asset-data/asset-pipeline/internal/model"
)

const (
	// EquityTolerance is the allowed absolute difference between current and
	// reference shares before an equity mismatch is flagged.
	EquityTolerance = 0.02

	// ReferenceBaseYear is the only year the reference-side completeness
	// check runs at. In other years the two lists legitimately diverge
	// through lifecycle filtering, so a reverse check there would flood the
	// review queue with false positives.
	ReferenceBaseYear = 2020
)

// Validator cross-checks claimed plants against the reference ownership
// list. The reference predates the current tracker vintage and plant IDs
// are not comparable between the two, so all matching is by name + country.
type Validator struct {
	byCompany map[string][]model.ReferencePlant
}

func NewValidator(refs []model.ReferencePlant) *Validator {
	v := &Validator{byCompany: make(map[string][]model.ReferencePlant)}
	for _, r := range refs {
		v.byCompany[r.Company] = append(v.byCompany[r.Company], r)
	}
	return v
}

// Covers reports whether the reference list tracks the company at all.
// Companies outside the reference get no NOT_IN_REFERENCE flags: absence of
// evidence there is not a discrepancy.
func (v *Validator) Covers(company string) bool {
	return len(v.byCompany[company]) > 0
}

// Validate annotates one company-year's claimed entries with reference
// equity data and review flags, and returns the mismatch rows. At
// ReferenceBaseYear it also runs the reverse check for reference plants
// missing from the current vintage.
func (v *Validator) Validate(company string, year int, entries []model.OwnershipEntry) ([]model.OwnershipEntry, []model.OwnershipMismatch) {
	refs := v.byCompany[company]
	cands := make([]match.Candidate, len(refs))
	for i, r := range refs {
		cands[i] = match.Candidate{Name: r.PlantName, Country: r.Country}
	}

	var mismatches []model.OwnershipMismatch
	refMatched := make(map[int]bool, len(refs))

	for i := range entries {
		e := &entries[i]
		e.ReferenceEquity = math.NaN()

		refIdx := -1
		if len(refs) > 0 {
			r := match.Match(e.Plant.Name, e.Plant.Country, cands)
			switch {
			case r.Index >= 0:
				refIdx = r.Index
			case r.Ambiguous:
				// Several reference rows share the location words; the
				// first is the best stand-in for the equity comparison.
				refIdx = r.Matches[0]
			}
		}

		if refIdx >= 0 {
			ref := refs[refIdx]
			refMatched[refIdx] = true
			e.InReference = true
			e.ReferenceEquity = ref.OwnershipShare

			if !e.EquityDerived && !math.IsNaN(ref.OwnershipShare) &&
				math.Abs(e.EquityShare-ref.OwnershipShare) > EquityTolerance {
				detail := fmt.Sprintf("EQUITY_MISMATCH ref=%.0f%% current=%.0f%%",
					ref.OwnershipShare*100, e.EquityShare*100)
				e.Flags = append(e.Flags, detail)
				mismatches = append(mismatches, v.mismatch(e, model.MismatchEquity, detail,
					"Verify equity share from the annual report. The two vintages may use different reporting dates."))
			}
		} else if v.Covers(company) {
			detail := string(model.MismatchNotInReference)
			e.Flags = append(e.Flags, detail)
			mismatches = append(mismatches, v.mismatch(e, model.MismatchNotInReference, detail,
				fmt.Sprintf("Check whether %q is consolidated in %s's annual report. May be a vintage difference or a plant added since the reference.", e.Plant.Name, company)))
		}

		if e.EquityDerived {
			detail := string(model.MismatchEquityUnknown)
			e.Flags = append(e.Flags, detail)
			mismatches = append(mismatches, v.mismatch(e, model.MismatchEquityUnknown, detail,
				"Parent field carries no percentage for this company. Check the annual report for the actual share."))
		}

		if !e.EquityDerived && e.EquityShare < 0.5 {
			detail := fmt.Sprintf("MINORITY_STAKE %.0f%%", e.EquityShare*100)
			e.Flags = append(e.Flags, detail)
			mismatches = append(mismatches, v.mismatch(e, model.MismatchMinorityStake, detail,
				fmt.Sprintf("Stake below 50%%. Check whether %s fully consolidates this plant or reports equity-share production only.", company)))
		}
	}

	if year == ReferenceBaseYear {
		for i, ref := range refs {
			if refMatched[i] {
				continue
			}
			status := strings.ToLower(ref.Status)
			if status == "cancelled" || status == "announced" {
				continue
			}
			mismatches = append(mismatches, model.OwnershipMismatch{
				Company:         company,
				Year:            year,
				PlantID:         ref.PlantID,
				PlantName:       ref.PlantName,
				Country:         ref.Country,
				CapacityTTPA:    ref.CapacityTTPA,
				Kind:            model.MismatchNotInCurrent,
				Detail:          fmt.Sprintf("reference plant %q (%s) not matched in the current vintage", ref.PlantName, ref.Status),
				CurrentEquity:   math.NaN(),
				ReferenceEquity: ref.OwnershipShare,
				Action:          "Check whether this plant exists in the current vintage under a different name or parent; the pattern registry may need a manual mapping.",
			})
		}
	}

	return entries, mismatches
}

func (v *Validator) mismatch(e *model.OwnershipEntry, kind model.MismatchKind, detail, action string) model.OwnershipMismatch {
	current := e.EquityShare
	if e.EquityDerived {
		current = math.NaN()
	}
	return model.OwnershipMismatch{
		Company:         e.Company,
		Year:            e.Year,
		PlantID:         e.Plant.ID,
		PlantName:       e.Plant.Name,
		Country:         e.Plant.Country,
		CapacityTTPA:    e.Plant.CapacityTTPA,
		Kind:            kind,
		Detail:          detail,
		CurrentEquity:   current,
		ReferenceEquity: e.ReferenceEquity,
		Action:          action,
	}
}
