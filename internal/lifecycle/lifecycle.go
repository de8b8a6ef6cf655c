// Package lifecycle decides whether a plant counts as active in a given
// year from its status and commissioning year.
package lifecycle

import "github.com/open-asset-data/asset-pipeline/internal/model"

// Active reports whether a plant is counted in a target year.
//
// Announced and cancelled plants never count. Operating, pre-retirement and
// construction plants count from their commissioning year; an unknown
// (zero) commissioning year counts for all years, because the data is
// incomplete rather than the plant absent. Retired and mothballed plants
// count for all historical years: the source records no decommission date,
// so conservative inclusion is the documented behavior even though it
// overcounts long-retired capacity.
func Active(p model.Plant, year int) bool {
	switch p.Status {
	case model.StatusAnnounced, model.StatusCancelled:
		return false
	case model.StatusOperating, model.StatusPreRetirement, model.StatusConstruction:
		return p.StartYear == 0 || p.StartYear <= year
	case model.StatusRetired, model.StatusMothballed:
		return true
	default:
		return false
	}
}
