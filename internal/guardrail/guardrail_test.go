package guardrail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/ldf/internal/spec"
)

func ids(gs []spec.GuardrailDefinition) []int {
	out := make([]int, len(gs))
	for i, g := range gs {
		out[i] = g.ID
	}
	return out
}

func TestCore(t *testing.T) {
	core := Core()
	require.Len(t, core, 8)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, ids(core))
	assert.Equal(t, "Testing Coverage", core[0].Name)
	assert.Equal(t, spec.GuardrailCritical, core[0].Severity)
	assert.Equal(t, "Security Basics", core[1].Name)
	for _, g := range core {
		assert.True(t, g.Enabled, g.Name)
		assert.True(t, g.Severity.Valid(), g.Name)
		assert.Equal(t, spec.OriginCore, g.Origin)
		assert.NotEmpty(t, g.Description)
	}
}

func TestPresets(t *testing.T) {
	assert.Equal(t, []string{"api-only", "fintech", "healthcare", "saas"}, Presets())

	saas, err := Preset("saas")
	require.NoError(t, err)
	require.NotEmpty(t, saas)
	assert.Equal(t, "Multi-Tenancy", saas[0].Name)
	assert.Equal(t, spec.OriginPreset, saas[0].Origin)

	none, err := Preset(PresetCustom)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = Preset("nonexistent")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestResolve_CoreOnly(t *testing.T) {
	res, err := Resolve(Options{})
	require.NoError(t, err)
	assert.Len(t, res.Guardrails, 8)
	assert.Empty(t, res.Unmatched)
}

func TestResolve_DisableByIDOrNameIsEquivalent(t *testing.T) {
	byID, err := Resolve(Options{Disabled: []string{"8"}})
	require.NoError(t, err)
	byName, err := Resolve(Options{Disabled: []string{"Documentation"}})
	require.NoError(t, err)

	assert.Equal(t, byID.Guardrails, byName.Guardrails)
	assert.Len(t, byID.Guardrails, 7)
	assert.NotContains(t, ids(byID.Guardrails), 8)
	assert.Len(t, byID.All, 8, "disabled guardrails stay listed")
}

func TestResolve_NamesMatchExactly(t *testing.T) {
	off := false
	res, err := Resolve(Options{
		Disabled:  []string{"documentation"},
		Overrides: map[string]Override{"database migrations": {Enabled: &off}},
	})
	require.NoError(t, err)

	assert.Len(t, res.Guardrails, 8)
	assert.ElementsMatch(t, []string{"documentation", "database migrations"}, res.Unmatched)
}

func TestResolve_OverrideDisableMatchesDisabled(t *testing.T) {
	off := false
	viaOverride, err := Resolve(Options{Overrides: map[string]Override{"Database Migrations": {Enabled: &off}}})
	require.NoError(t, err)
	viaDisabled, err := Resolve(Options{Disabled: []string{"7"}})
	require.NoError(t, err)
	assert.Equal(t, viaDisabled.Guardrails, viaOverride.Guardrails)
}

func TestResolve_PresetCustomAndOverrides(t *testing.T) {
	low := spec.GuardrailLow
	res, err := Resolve(Options{
		Preset: "fintech",
		Custom: []spec.GuardrailDefinition{
			{ID: 20, Name: "Accessibility", Severity: spec.GuardrailMedium, Enabled: true},
			{ID: 10, Name: "Immutable Audit Log", Severity: spec.GuardrailCritical, Enabled: true},
		},
		Overrides: map[string]Override{"4": {Severity: &low}, "Nope": {}},
		Disabled:  []string{"Idempotency", "99"},
	})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 12, 20}, ids(res.Guardrails))
	assert.Equal(t, []string{"Nope", "99"}, res.Unmatched)

	for _, g := range res.Guardrails {
		switch g.ID {
		case 4:
			assert.Equal(t, spec.GuardrailLow, g.Severity)
		case 9:
			assert.Equal(t, spec.OriginPreset, g.Origin)
		case 10:
			assert.Equal(t, "Immutable Audit Log", g.Name, "custom replaces the preset entry with the same id")
			assert.Equal(t, spec.OriginCustom, g.Origin)
		}
	}
}

func TestResolve_Errors(t *testing.T) {
	_, err := Resolve(Options{Preset: "bogus"})
	assert.ErrorIs(t, err, ErrUnknownPreset)

	_, err = Resolve(Options{Custom: []spec.GuardrailDefinition{{ID: 0, Name: "x", Severity: spec.GuardrailLow}}})
	assert.ErrorIs(t, err, ErrInvalidGuardrail)

	_, err = Resolve(Options{Custom: []spec.GuardrailDefinition{{ID: 30, Name: "x", Severity: "severe"}}})
	assert.ErrorIs(t, err, ErrInvalidGuardrail)

	bad := spec.GuardrailSeverity("extreme")
	_, err = Resolve(Options{Overrides: map[string]Override{"1": {Severity: &bad}}})
	assert.ErrorIs(t, err, ErrInvalidGuardrail)
}
