// Package guardrail holds the built-in guardrail catalogs and merges core,
// preset and custom definitions into the active set handed to the linter.
package guardrail

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/ldf/internal/spec"
)

// catalogFS contains core.yaml and one file per preset.
//
//go:embed data/*.yaml
var catalogFS embed.FS

var (
	ErrUnknownPreset    = errors.New("unknown guardrail preset")
	ErrInvalidGuardrail = errors.New("invalid guardrail definition")
)

// PresetCustom selects no preset guardrails.
const PresetCustom = "custom"

type catalog struct {
	Version    string                     `yaml:"version"`
	Preset     string                     `yaml:"preset"`
	Guardrails []spec.GuardrailDefinition `yaml:"guardrails"`
}

func loadCatalog(name string, origin spec.Origin) ([]spec.GuardrailDefinition, error) {
	data, err := catalogFS.ReadFile("data/" + name + ".yaml")
	if err != nil {
		return nil, err
	}
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse %s catalog: %w", name, err)
	}
	for i := range c.Guardrails {
		c.Guardrails[i].Origin = origin
	}
	return c.Guardrails, nil
}

// Core returns the eight core guardrails, ids 1 through 8.
func Core() []spec.GuardrailDefinition {
	gs, err := loadCatalog("core", spec.OriginCore)
	if err != nil {
		// The catalog is compiled in; failing to read it is a build defect.
		panic(err)
	}
	return gs
}

// Presets returns the names of the built-in presets in sorted order.
func Presets() []string {
	entries, _ := fs.ReadDir(catalogFS, "data")
	var names []string
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".yaml")
		if name != "core" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Preset returns the guardrails a preset adds. The empty name and "custom"
// add nothing.
func Preset(name string) ([]spec.GuardrailDefinition, error) {
	if name == "" || name == PresetCustom {
		return nil, nil
	}
	for _, p := range Presets() {
		if p == name {
			return loadCatalog(name, spec.OriginPreset)
		}
	}
	return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownPreset, name, strings.Join(Presets(), ", "))
}

// Override changes fields of one guardrail. Nil fields are left alone.
type Override struct {
	Name        *string                 `yaml:"name"`
	Description *string                 `yaml:"description"`
	Severity    *spec.GuardrailSeverity `yaml:"severity"`
	Enabled     *bool                   `yaml:"enabled"`
}

// Options describes how to assemble the active guardrail set.
type Options struct {
	Preset string
	Custom []spec.GuardrailDefinition
	// Disabled lists guardrails to drop, each by id or by exact name.
	Disabled []string
	// Overrides are keyed by id or by exact name.
	Overrides map[string]Override
}

// Resolution is the merged guardrail set.
type Resolution struct {
	// Guardrails holds the enabled guardrails ordered by id.
	Guardrails []spec.GuardrailDefinition
	// All includes disabled guardrails.
	All []spec.GuardrailDefinition
	// Unmatched lists disabled entries and override keys that named no guardrail.
	Unmatched []string
}

// Resolve merges core, preset and custom guardrails by id (later sources
// replace earlier ones), applies overrides, then removes disabled entries.
func Resolve(opts Options) (*Resolution, error) {
	merged := make(map[int]spec.GuardrailDefinition)
	for _, g := range Core() {
		merged[g.ID] = g
	}

	preset, err := Preset(opts.Preset)
	if err != nil {
		return nil, err
	}
	for _, g := range preset {
		merged[g.ID] = g
	}

	for _, g := range opts.Custom {
		if err := validate(g); err != nil {
			return nil, err
		}
		g.Origin = spec.OriginCustom
		merged[g.ID] = g
	}

	all := make([]spec.GuardrailDefinition, 0, len(merged))
	for _, g := range merged {
		all = append(all, g)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	res := &Resolution{}

	keys := make([]string, 0, len(opts.Overrides))
	for k := range opts.Overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		i := lookup(all, key)
		if i < 0 {
			res.Unmatched = append(res.Unmatched, key)
			continue
		}
		o := opts.Overrides[key]
		if o.Severity != nil && !o.Severity.Valid() {
			return nil, fmt.Errorf("%w: override %q has severity %q", ErrInvalidGuardrail, key, *o.Severity)
		}
		applyOverride(&all[i], o)
	}

	for _, ref := range opts.Disabled {
		i := lookup(all, ref)
		if i < 0 {
			res.Unmatched = append(res.Unmatched, ref)
			continue
		}
		all[i].Enabled = false
	}

	res.All = all
	for _, g := range all {
		if g.Enabled {
			res.Guardrails = append(res.Guardrails, g)
		}
	}
	return res, nil
}

func validate(g spec.GuardrailDefinition) error {
	switch {
	case g.ID <= 0:
		return fmt.Errorf("%w: id %d must be positive", ErrInvalidGuardrail, g.ID)
	case strings.TrimSpace(g.Name) == "":
		return fmt.Errorf("%w: guardrail %d has no name", ErrInvalidGuardrail, g.ID)
	case !g.Severity.Valid():
		return fmt.Errorf("%w: guardrail %d has severity %q", ErrInvalidGuardrail, g.ID, g.Severity)
	}
	return nil
}

// lookup finds a guardrail by numeric id or by exact name.
func lookup(gs []spec.GuardrailDefinition, ref string) int {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.Atoi(ref); err == nil {
		for i, g := range gs {
			if g.ID == id {
				return i
			}
		}
		return -1
	}
	for i, g := range gs {
		if g.Name == ref {
			return i
		}
	}
	return -1
}

func applyOverride(g *spec.GuardrailDefinition, o Override) {
	if o.Name != nil {
		g.Name = *o.Name
	}
	if o.Description != nil {
		g.Description = *o.Description
	}
	if o.Severity != nil {
		g.Severity = *o.Severity
	}
	if o.Enabled != nil {
		g.Enabled = *o.Enabled
	}
}
