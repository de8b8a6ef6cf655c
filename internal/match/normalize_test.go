package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName_CaseAndPunctuation(t *testing.T) {
	assert.Equal(t, "arcelormittal s a", NormalizeName("  ArcelorMittal S.A. "))
	assert.Equal(t, "baoshan iron steel", NormalizeName("Baoshan Iron & Steel"))
}

func TestNormalizeName_CollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "tata steel ijmuiden", NormalizeName("Tata  Steel   IJmuiden"))
}

func TestNormalizePlantName_StripsSiteSuffixes(t *testing.T) {
	assert.Equal(t, "glenbrook", NormalizePlantName("Glenbrook steelworks"))
	assert.Equal(t, "port kembla", NormalizePlantName("Port Kembla steel works"))
	assert.Equal(t, "raahe", NormalizePlantName("Raahe steel plant"))
}

func TestNormalizePlantName_StripsStackedSuffixes(t *testing.T) {
	// "X iron works" loses both trailing generic words.
	assert.Equal(t, "yawata", NormalizePlantName("Yawata iron works"))
}

func TestKeyTokens_DropsGenericWords(t *testing.T) {
	tokens := KeyTokens("Gary Integrated Steel Works")
	assert.True(t, tokens["gary"])
	assert.False(t, tokens["integrated"])
	assert.False(t, tokens["steel"])
	assert.False(t, tokens["works"])
}

func TestKeyTokens_EmptyForGenericOnlyName(t *testing.T) {
	assert.Empty(t, KeyTokens("Steel Plant"))
}
