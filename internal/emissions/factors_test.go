package emissions

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-asset-data/asset-pipeline/internal/model"
	"github.com/open-asset-data/asset-pipeline/internal/registry"
)

func testTable(t *testing.T) *Table {
	t.Helper()
	ef, err := registry.EmissionFactors()
	require.NoError(t, err)
	return NewTable(ef)
}

func TestRegion_DirectEUAndFallback(t *testing.T) {
	tb := testTable(t)

	assert.Equal(t, "India", tb.Region("India"))
	assert.Equal(t, "EU", tb.Region("Germany"))
	assert.Equal(t, "Turkey", tb.Region("Iran"))
	assert.Equal(t, "Global", tb.Region("Atlantis"))
}

func TestFactor_BFBOFDeclinesFromReferenceYear(t *testing.T) {
	tb := testTable(t)

	at2020 := tb.Factor("India", model.TechBFBOF, 2020)
	at2023 := tb.Factor("India", model.TechBFBOF, 2023)
	at2015 := tb.Factor("India", model.TechBFBOF, 2015)

	assert.InDelta(t, 3.72, at2020, 1e-9)
	assert.InDelta(t, 3.72*math.Pow(0.995, 3), at2023, 1e-9)
	// years before the reference come out strictly higher
	assert.Greater(t, at2015, at2020)
}

func TestFactor_BFBOFZeroYearSkipsAdjustment(t *testing.T) {
	tb := testTable(t)
	assert.InDelta(t, 1.76, tb.Factor("China", model.TechBFBOF, 0), 1e-9)
}

func TestFactor_EAFStatic(t *testing.T) {
	tb := testTable(t)

	assert.InDelta(t, 0.07, tb.Factor("India", model.TechEAF, 2015), 1e-9)
	assert.InDelta(t, 0.07, tb.Factor("India", model.TechEAF, 2024), 1e-9)
	assert.InDelta(t, 0.051, tb.Factor("Atlantis", model.TechEAF, 2020), 1e-9)
}

func TestFactor_DRISubtypeByCountry(t *testing.T) {
	tb := testTable(t)

	assert.InDelta(t, 3.10, tb.Factor("India", model.TechDRI, 2020), 1e-9)
	assert.InDelta(t, 3.10, tb.Factor("New Zealand", model.TechDRI, 2020), 1e-9)
	assert.InDelta(t, 1.05, tb.Factor("Iran", model.TechDRI, 2020), 1e-9)
	assert.InDelta(t, 0.04, tb.Factor("Sweden", model.TechH2DRI, 2030), 1e-9)
}

func TestFactor_UnknownCountryUsesGlobal(t *testing.T) {
	tb := testTable(t)
	assert.InDelta(t, 2.314, tb.Factor("Atlantis", model.TechBFBOF, 2020), 1e-9)
}
