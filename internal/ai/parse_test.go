package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"plain", `{"riskLevel":"LOW"}`},
		{"fenced", "```json\n{\"riskLevel\":\"LOW\"}\n```"},
		{"think", "<think>hmm</think>{\"riskLevel\":\"LOW\"}"},
		{"prose", "Here you go: {\"riskLevel\":\"LOW\"} hope it helps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out PreMortem
			require.NoError(t, DecodeJSON(tt.in, &out))
			assert.Equal(t, "LOW", out.RiskLevel)
		})
	}
}

func TestDecodeJSONRejectsGarbage(t *testing.T) {
	var out PreMortem
	assert.Error(t, DecodeJSON("no json here", &out))
}

func TestNormalizeRiskLevel(t *testing.T) {
	assert.Equal(t, "LOW", NormalizeRiskLevel(" low "))
	assert.Equal(t, "MEDIUM", NormalizeRiskLevel("extreme"))
	assert.Equal(t, "MEDIUM", NormalizeRiskLevel(""))
}
