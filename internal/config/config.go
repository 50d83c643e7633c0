// Package config loads project settings from .ldf/config.yaml and the
// guardrail selection from .ldf/guardrails.yaml, and turns them into the
// resolved lint configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/ldf/internal/guardrail"
	"github.com/dusk-indust/ldf/internal/spec"
)

const (
	Dir             = ".ldf"
	ConfigFile      = "config.yaml"
	GuardrailsFile  = "guardrails.yaml"
	DefaultSpecsDir = ".ldf/specs"
	EnvPrefix       = "LDF"
)

// ProjectConfig holds project-level settings. Every field may be set from the
// environment, e.g. LDF_LINT_STRICT=true.
type ProjectConfig struct {
	Root           string
	Name           string
	SpecsDir       string
	Preset         string
	Strict         bool
	IgnorePatterns []string
	Rules          []string
	Concurrency    int
}

// Load reads .ldf/config.yaml under root. A missing file yields the defaults,
// not an error.
func Load(root string) (*ProjectConfig, error) {
	v := viper.New()
	v.SetDefault("project.name", filepath.Base(root))
	v.SetDefault("project.specs_dir", DefaultSpecsDir)
	v.SetDefault("guardrails.preset", "")
	v.SetDefault("lint.strict", false)
	v.SetDefault("lint.ignore_patterns", []string{})
	v.SetDefault("lint.rules", []string{})
	v.SetDefault("lint.concurrency", 0)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := filepath.Join(root, Dir, ConfigFile)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	specsDir := v.GetString("project.specs_dir")
	if !filepath.IsAbs(specsDir) {
		specsDir = filepath.Join(root, specsDir)
	}
	return &ProjectConfig{
		Root:           root,
		Name:           v.GetString("project.name"),
		SpecsDir:       specsDir,
		Preset:         v.GetString("guardrails.preset"),
		Strict:         v.GetBool("lint.strict"),
		IgnorePatterns: v.GetStringSlice("lint.ignore_patterns"),
		Rules:          v.GetStringSlice("lint.rules"),
		Concurrency:    v.GetInt("lint.concurrency"),
	}, nil
}

// Ref names a guardrail by id or by name. YAML may write either form.
type Ref string

func (r *Ref) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: guardrail reference must be an id or a name", node.Line)
	}
	*r = Ref(strings.TrimSpace(node.Value))
	return nil
}

// CustomGuardrail is a project-defined guardrail. Enabled defaults to true.
type CustomGuardrail struct {
	ID          int                    `yaml:"id"`
	Name        string                 `yaml:"name"`
	Description string                 `yaml:"description"`
	Severity    spec.GuardrailSeverity `yaml:"severity"`
	Enabled     *bool                  `yaml:"enabled"`
}

// Guardrails is the content of .ldf/guardrails.yaml.
type Guardrails struct {
	Version   string                        `yaml:"version"`
	Extends   string                        `yaml:"extends"`
	Preset    string                        `yaml:"preset"`
	Disabled  []Ref                         `yaml:"disabled"`
	Custom    []CustomGuardrail             `yaml:"custom"`
	Overrides map[string]guardrail.Override `yaml:"overrides"`
}

// LoadGuardrails reads .ldf/guardrails.yaml under root. A missing file yields
// an empty selection (core guardrails only).
func LoadGuardrails(root string) (*Guardrails, error) {
	path := filepath.Join(root, Dir, GuardrailsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Guardrails{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var g Guardrails
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if g.Extends != "" && g.Extends != "core" {
		return nil, fmt.Errorf("parse %s: extends %q is not supported (only \"core\")", path, g.Extends)
	}
	return &g, nil
}

// Options converts the file into guardrail resolution options. A preset in
// guardrails.yaml wins over guardrails.preset in config.yaml.
func (g *Guardrails) Options(fallbackPreset string) guardrail.Options {
	opts := guardrail.Options{Preset: fallbackPreset, Overrides: g.Overrides}
	if g.Preset != "" {
		opts.Preset = g.Preset
	}
	for _, ref := range g.Disabled {
		opts.Disabled = append(opts.Disabled, string(ref))
	}
	for _, c := range g.Custom {
		enabled := true
		if c.Enabled != nil {
			enabled = *c.Enabled
		}
		severity := c.Severity
		if severity == "" {
			severity = spec.GuardrailMedium
		}
		opts.Custom = append(opts.Custom, spec.GuardrailDefinition{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Severity:    severity,
			Enabled:     enabled,
		})
	}
	return opts
}

// Project is everything the CLI and MCP server need to lint a project.
type Project struct {
	Config     *ProjectConfig
	Guardrails *guardrail.Resolution
	Lint       spec.LintConfig
}

// LoadProject reads both configuration files under root and resolves the
// active guardrail set.
func LoadProject(root string) (*Project, error) {
	cfg, err := Load(root)
	if err != nil {
		return nil, err
	}
	gf, err := LoadGuardrails(root)
	if err != nil {
		return nil, err
	}
	res, err := guardrail.Resolve(gf.Options(cfg.Preset))
	if err != nil {
		return nil, fmt.Errorf("resolve guardrails: %w", err)
	}
	return &Project{
		Config:     cfg,
		Guardrails: res,
		Lint: spec.LintConfig{
			Guardrails:     res.Guardrails,
			Strict:         cfg.Strict,
			IgnorePatterns: cfg.IgnorePatterns,
			Rules:          cfg.Rules,
		},
	}, nil
}
