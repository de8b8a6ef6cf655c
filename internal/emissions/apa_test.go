package emissions

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-asset-data/asset-pipeline/internal/model"
)

func holding(id, country string, capTTPA float64, tech model.Technology, equity float64) model.OwnershipEntry {
	return model.OwnershipEntry{
		Plant: model.Plant{
			ID:           id,
			Country:      country,
			Status:       model.StatusOperating,
			CapacityTTPA: capTTPA,
			Technology:   tech,
		},
		EquityShare: equity,
	}
}

func TestCompute_IndiaBFBOF(t *testing.T) {
	c := NewCalculator(testTable(t))
	rec := model.ProductionRecord{
		Company: "JSW Steel", Year: 2023, ProductionMt: 8.0,
		Source: model.SourceAnnualReport,
	}

	out, ok := c.Compute(rec, []model.OwnershipEntry{
		holding("P1", "India", 10000, model.TechBFBOF, 1.0),
	}, nil)
	require.True(t, ok)

	ef := 3.72 * math.Pow(0.995, 3)
	assert.InDelta(t, 8.0*ef, out.EmissionsMt, 1e-6)
	assert.InDelta(t, ef, out.WeightedEF, 1e-6)
	assert.InDelta(t, 0.8, out.UtilizationRate, 1e-9)
	assert.Equal(t, 1, out.NPlants)
	assert.Equal(t, model.SourceAnnualReport, out.ProductionSource)
}

func TestCompute_WeightedEFAcrossRoutes(t *testing.T) {
	c := NewCalculator(testTable(t))
	rec := model.ProductionRecord{Company: "X", Year: 2020, ProductionMt: 10.0}

	// 10 Mt capacity split evenly; uniform UR allocates 5 Mt to each route.
	out, ok := c.Compute(rec, []model.OwnershipEntry{
		holding("P1", "United States", 5000, model.TechBFBOF, 1.0),
		holding("P2", "United States", 5000, model.TechEAF, 1.0),
	}, nil)
	require.True(t, ok)

	want := 5.0*1.94 + 5.0*0.04
	assert.InDelta(t, want, out.EmissionsMt, 1e-9)
	assert.InDelta(t, want/10.0, out.WeightedEF, 1e-9)
}

func TestCompute_EquityWeighting(t *testing.T) {
	c := NewCalculator(testTable(t))
	rec := model.ProductionRecord{Company: "X", Year: 2020, ProductionMt: 5.0}

	full, ok := c.Compute(rec, []model.OwnershipEntry{
		holding("P1", "China", 10000, model.TechBFBOF, 1.0),
	}, nil)
	require.True(t, ok)

	half, ok := c.Compute(rec, []model.OwnershipEntry{
		holding("P1", "China", 10000, model.TechBFBOF, 0.5),
	}, nil)
	require.True(t, ok)

	assert.InDelta(t, full.EmissionsMt/2, half.EmissionsMt, 1e-9)
}

func TestCompute_LifecycleFilterApplied(t *testing.T) {
	c := NewCalculator(testTable(t))
	rec := model.ProductionRecord{Company: "X", Year: 2015, ProductionMt: 4.0}

	notYetBuilt := holding("P2", "India", 5000, model.TechBFBOF, 1.0)
	notYetBuilt.Plant.StartYear = 2021

	out, ok := c.Compute(rec, []model.OwnershipEntry{
		holding("P1", "India", 5000, model.TechBFBOF, 1.0),
		notYetBuilt,
	}, nil)
	require.True(t, ok)

	assert.Equal(t, 1, out.NPlants)
	assert.InDelta(t, 5.0, out.TotalCapacityMt, 1e-9)
}

func TestCompute_DegenerateCasesOmitted(t *testing.T) {
	c := NewCalculator(testTable(t))
	rec := model.ProductionRecord{Company: "X", Year: 2020, ProductionMt: 4.0}

	_, ok := c.Compute(rec, nil, nil)
	assert.False(t, ok)

	zeroCap := holding("P1", "India", 0, model.TechBFBOF, 1.0)
	_, ok = c.Compute(rec, []model.OwnershipEntry{zeroCap}, nil)
	assert.False(t, ok)
}

func TestCompute_UtilizationCeilingSkips(t *testing.T) {
	c := NewCalculator(testTable(t))
	rec := model.ProductionRecord{Company: "X", Year: 2020, ProductionMt: 20.0}

	_, ok := c.Compute(rec, []model.OwnershipEntry{
		holding("P1", "India", 10000, model.TechBFBOF, 1.0),
	}, nil)
	assert.False(t, ok)
}

func TestCompute_CountryAllocation(t *testing.T) {
	c := NewCalculator(testTable(t))
	rec := model.ProductionRecord{Company: "ArcelorMittal", Year: 2020, ProductionMt: 10.0}

	// India reported 6 Mt against 10 Mt of capacity; the remaining 4 Mt
	// falls to the German plant.
	out, ok := c.Compute(rec, []model.OwnershipEntry{
		holding("P1", "India", 10000, model.TechBFBOF, 1.0),
		holding("P2", "Germany", 5000, model.TechBFBOF, 1.0),
	}, map[string]float64{"India": 6.0})
	require.True(t, ok)

	want := 6.0*3.72 + 4.0*1.77
	assert.InDelta(t, want, out.EmissionsMt, 1e-9)
}

func TestComputeAll_SortedAndComplete(t *testing.T) {
	c := NewCalculator(testTable(t))

	inputs := []CompanyInput{
		{
			Company: "SSAB",
			Production: []model.ProductionRecord{
				{Company: "SSAB", Year: 2021, ProductionMt: 2.0, Source: model.SourceAnnualReport},
				{Company: "SSAB", Year: 2020, ProductionMt: 2.0, Source: model.SourceAnnualReport},
			},
			Holdings: func(year int) []model.OwnershipEntry {
				return []model.OwnershipEntry{holding("P1", "Finland", 2600, model.TechBFBOF, 1.0)}
			},
		},
		{
			Company: "Gerdau",
			Production: []model.ProductionRecord{
				{Company: "Gerdau", Year: 2020, ProductionMt: 10.0, Source: model.SourceAnnualReport},
			},
			Holdings: func(year int) []model.OwnershipEntry {
				return []model.OwnershipEntry{holding("P2", "Brazil", 12000, model.TechEAF, 1.0)}
			},
		},
	}

	out, err := c.ComputeAll(context.Background(), inputs)
	require.NoError(t, err)

	require.Len(t, out, 3)
	assert.Equal(t, "Gerdau", out[0].Company)
	assert.Equal(t, "SSAB", out[1].Company)
	assert.Equal(t, 2020, out[1].Year)
	assert.Equal(t, 2021, out[2].Year)
}
