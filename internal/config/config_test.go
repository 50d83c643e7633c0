package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/ldf/internal/guardrail"
	"github.com/dusk-indust/ldf/internal/spec"
)

func writeLDF(t *testing.T, root, name, content string) {
	t.Helper()
	dir := filepath.Join(root, Dir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	root := t.TempDir()
	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, DefaultSpecsDir), cfg.SpecsDir)
	assert.Equal(t, filepath.Base(root), cfg.Name)
	assert.False(t, cfg.Strict)
	assert.Empty(t, cfg.IgnorePatterns)
	assert.Empty(t, cfg.Preset)
}

func TestLoad_File(t *testing.T) {
	root := t.TempDir()
	writeLDF(t, root, ConfigFile, `project:
  name: shop
  specs_dir: docs/specs
guardrails:
  preset: saas
lint:
  strict: true
  ignore_patterns:
    - missing_owner
    - "legacy-*"
  rules: [sections, tasks]
`)
	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, "shop", cfg.Name)
	assert.Equal(t, filepath.Join(root, "docs/specs"), cfg.SpecsDir)
	assert.Equal(t, "saas", cfg.Preset)
	assert.True(t, cfg.Strict)
	assert.Equal(t, []string{"missing_owner", "legacy-*"}, cfg.IgnorePatterns)
	assert.Equal(t, []string{"sections", "tasks"}, cfg.Rules)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	root := t.TempDir()
	writeLDF(t, root, ConfigFile, "lint:\n  strict: false\n")
	t.Setenv("LDF_LINT_STRICT", "true")

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.True(t, cfg.Strict)
}

func TestLoad_InvalidYAML(t *testing.T) {
	root := t.TempDir()
	writeLDF(t, root, ConfigFile, "lint: [unclosed\n")
	_, err := Load(root)
	assert.Error(t, err)
}

func TestLoadGuardrails_Missing(t *testing.T) {
	g, err := LoadGuardrails(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, g.Disabled)
}

func TestLoadGuardrails_MixedReferences(t *testing.T) {
	root := t.TempDir()
	writeLDF(t, root, GuardrailsFile, `version: "1.0"
extends: core
preset: fintech
disabled:
  - 8  # Documentation
  - Database Migrations
custom:
  - id: 20
    name: Accessibility
    severity: high
  - id: 21
    name: Localization
    enabled: false
overrides:
  "2":
    severity: high
  Error Handling:
    description: Errors carry request ids.
`)
	g, err := LoadGuardrails(root)
	require.NoError(t, err)
	assert.Equal(t, []Ref{"8", "Database Migrations"}, g.Disabled)

	opts := g.Options("saas")
	assert.Equal(t, "fintech", opts.Preset)
	require.Len(t, opts.Custom, 2)
	assert.True(t, opts.Custom[0].Enabled)
	assert.False(t, opts.Custom[1].Enabled)
	assert.Equal(t, spec.GuardrailMedium, opts.Custom[1].Severity)

	res, err := guardrail.Resolve(opts)
	require.NoError(t, err)
	var names []string
	for _, gr := range res.Guardrails {
		names = append(names, gr.Name)
		if gr.ID == 2 {
			assert.Equal(t, spec.GuardrailHigh, gr.Severity)
		}
		if gr.ID == 3 {
			assert.Equal(t, "Errors carry request ids.", gr.Description)
		}
	}
	assert.Contains(t, names, "Accessibility")
	assert.NotContains(t, names, "Localization")
	assert.NotContains(t, names, "Documentation")
	assert.NotContains(t, names, "Database Migrations")
	assert.Empty(t, res.Unmatched)
}

func TestLoadGuardrails_BadExtends(t *testing.T) {
	root := t.TempDir()
	writeLDF(t, root, GuardrailsFile, "extends: enterprise\n")
	_, err := LoadGuardrails(root)
	assert.ErrorContains(t, err, "extends")
}

func TestLoadProject(t *testing.T) {
	root := t.TempDir()
	writeLDF(t, root, ConfigFile, "lint:\n  strict: true\n  ignore_patterns: [rule_skipped]\n")
	writeLDF(t, root, GuardrailsFile, "disabled: [1]\n")

	p, err := LoadProject(root)
	require.NoError(t, err)
	assert.True(t, p.Lint.Strict)
	assert.Equal(t, []string{"rule_skipped"}, p.Lint.IgnorePatterns)
	assert.Len(t, p.Lint.Guardrails, 7)
	assert.Len(t, p.Guardrails.All, 8)
}

func TestLoadProject_UnknownPreset(t *testing.T) {
	root := t.TempDir()
	writeLDF(t, root, ConfigFile, "guardrails:\n  preset: retail\n")
	_, err := LoadProject(root)
	assert.ErrorIs(t, err, guardrail.ErrUnknownPreset)
}
