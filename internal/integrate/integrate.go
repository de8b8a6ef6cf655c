// Package integrate merges asset-based estimates with independently
// sourced emissions and production figures into per-company-year records
// carrying one default value plus all sources as comparison columns.
package integrate

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/open-asset-data/asset-pipeline/internal/certainty"
	"github.com/open-asset-data/asset-pipeline/internal/model"
)

// Suspicious-magnitude ceilings for a single company. Values beyond these
// are almost always a unit or scope misparse.
const (
	maxPlausibleProductionMt = 100.0
	maxPlausibleEmissionsMt  = 200.0
)

// DiscrepancyThreshold is the relative difference between the default and
// any comparison source beyond which the pair is marked for human review.
const DiscrepancyThreshold = 0.30

// defaultPriority orders sources for default selection. Comparability
// outranks reliability here: the asset-based series uses one methodology
// for every company, self-reported figures do not.
var defaultPriority = map[string]int{
	certainty.SourceAssetCalc:    0,
	certainty.SourceSatellite:    1,
	certainty.SourceAnnualReport: 2,
}

// Row is one long-format integrated record.
type Row struct {
	model.SourceRecord
	Certainty   float64
	IsDefault   bool
	QualityFlag string
	NeedsReview bool
}

// Comparison is one wide-format row per (company, year, metric).
type Comparison struct {
	Company          string
	Year             int
	Metric           model.Metric
	Values           map[string]float64 // source → value, unflagged rows only
	DefaultValue     float64
	DefaultSource    string
	DefaultCertainty float64
	NSources         int
	SourceSpreadPct  float64 // NaN below two sources
	NeedsReview      bool
}

// Integrator applies quality filters, scores certainty, selects defaults
// and builds the comparison view.
type Integrator struct {
	exclusions  []model.ExclusionRule
	currentYear int
	log         *zap.Logger
}

func New(exclusions []model.ExclusionRule, currentYear int) *Integrator {
	return &Integrator{
		exclusions:  exclusions,
		currentYear: currentYear,
		log:         zap.L().With(zap.String("component", "integrate")),
	}
}

type key struct {
	company string
	year    int
	metric  model.Metric
}

// Integrate produces the long-format rows and the wide comparison from all
// source records. Flagged records stay in the long output for auditability
// but never become defaults or comparison values.
func (it *Integrator) Integrate(records []model.SourceRecord) ([]Row, []Comparison) {
	rows := make([]Row, len(records))
	for i, rec := range records {
		rows[i] = Row{SourceRecord: rec, QualityFlag: it.qualityFlag(rec)}
	}

	groups := make(map[key][]int)
	for i, r := range rows {
		if r.QualityFlag == "" {
			k := key{r.Company, r.Year, r.Metric}
			groups[k] = append(groups[k], i)
		}
	}

	for i := range rows {
		r := &rows[i]
		r.Certainty = certainty.Score(certainty.Point{
			Source:             r.Source,
			Extraction:         certainty.Extraction(r.ExtractionMethod),
			Year:               r.Year,
			CurrentYear:        it.currentYear,
			Value:              r.Value,
			NearestIndependent: it.nearest(rows, groups, i),
		})
	}

	for _, idxs := range groups {
		best := idxs[0]
		for _, i := range idxs[1:] {
			if it.rank(rows[i]) < it.rank(rows[best]) ||
				(it.rank(rows[i]) == it.rank(rows[best]) && rows[i].Certainty > rows[best].Certainty) {
				best = i
			}
		}
		rows[best].IsDefault = true

		for _, i := range idxs {
			if i == best || rows[best].Value == 0 {
				continue
			}
			if math.Abs(rows[i].Value-rows[best].Value)/math.Abs(rows[best].Value) > DiscrepancyThreshold {
				rows[best].NeedsReview = true
				rows[i].NeedsReview = true
			}
		}
	}

	return rows, it.comparisons(rows, groups)
}

// Defaults filters the long output down to the platform's default view.
func Defaults(rows []Row) []Row {
	var out []Row
	for _, r := range rows {
		if r.IsDefault && r.QualityFlag == "" {
			out = append(out, r)
		}
	}
	return out
}

func (it *Integrator) qualityFlag(rec model.SourceRecord) string {
	for _, rule := range it.exclusions {
		if rule.Company == rec.Company && rule.Year == rec.Year &&
			rule.Metric == rec.Metric && rule.Source == rec.Source {
			it.log.Debug("excluding known bad extraction",
				zap.String("company", rec.Company),
				zap.Int("year", rec.Year),
				zap.String("metric", string(rec.Metric)))
			return "excluded: known extraction error"
		}
	}
	if rec.Metric == model.MetricProductionMt && rec.Value > maxPlausibleProductionMt {
		return "suspicious: production > 100 Mt"
	}
	if rec.Metric == model.MetricEmissionsMtCO2 && rec.Value > maxPlausibleEmissionsMt {
		return "suspicious: emissions > 200 Mt"
	}
	return ""
}

// nearest returns the closest unflagged value for the same company-year
// metric from a different source, NaN when none exists.
func (it *Integrator) nearest(rows []Row, groups map[key][]int, i int) float64 {
	r := rows[i]
	nearest := math.NaN()
	for _, j := range groups[key{r.Company, r.Year, r.Metric}] {
		if j == i || rows[j].Source == r.Source {
			continue
		}
		if math.IsNaN(nearest) || math.Abs(rows[j].Value-r.Value) < math.Abs(nearest-r.Value) {
			nearest = rows[j].Value
		}
	}
	return nearest
}

func (it *Integrator) rank(r Row) int {
	if p, ok := defaultPriority[r.Source]; ok {
		return p
	}
	return 99
}

func (it *Integrator) comparisons(rows []Row, groups map[key][]int) []Comparison {
	out := make([]Comparison, 0, len(groups))
	for k, idxs := range groups {
		c := Comparison{
			Company:         k.company,
			Year:            k.year,
			Metric:          k.metric,
			Values:          make(map[string]float64, len(idxs)),
			SourceSpreadPct: math.NaN(),
		}

		var vals []float64
		for _, i := range idxs {
			r := rows[i]
			if _, dup := c.Values[r.Source]; !dup {
				c.Values[r.Source] = r.Value
				vals = append(vals, r.Value)
			}
			if r.IsDefault {
				c.DefaultValue = r.Value
				c.DefaultSource = r.Source
				c.DefaultCertainty = r.Certainty
				c.NeedsReview = r.NeedsReview
			}
		}

		c.NSources = len(vals)
		if len(vals) >= 2 {
			if med := median(vals); med > 0 {
				lo, hi := vals[0], vals[0]
				for _, v := range vals[1:] {
					lo = math.Min(lo, v)
					hi = math.Max(hi, v)
				}
				c.SourceSpreadPct = (hi - lo) / med * 100
			}
		}
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Company != out[j].Company {
			return out[i].Company < out[j].Company
		}
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Metric < out[j].Metric
	})
	return out
}

func median(vals []float64) float64 {
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
