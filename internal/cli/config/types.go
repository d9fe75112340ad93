// Package config provides configuration management for the leapmodel CLI.
//
// Values are layered with koanf: built-in defaults, then leapmodel.yaml,
// then LEAPMODEL_ environment variables, then explicitly set flags.
package config

import (
	"github.com/leapstack-labs/leapmodel/internal/generator"
	"github.com/leapstack-labs/leapmodel/internal/rename"
)

// Config holds all CLI configuration options.
type Config struct {
	ModelPath    string         `koanf:"model"`
	StatePath    string         `koanf:"state_path"`
	OutputFormat string         `koanf:"output"`
	Verbose      bool           `koanf:"verbose"`
	NoHistory    bool           `koanf:"no_history"`
	Generate     GenerateConfig `koanf:"generate"`
	Rename       RenameConfig   `koanf:"rename"`
	Check        CheckConfig    `koanf:"check"`

	// ProjectRoot is the directory relative paths resolve against.
	ProjectRoot string `koanf:"-"`
}

// GenerateConfig configures the generate command.
type GenerateConfig struct {
	CalculationGroup     string   `koanf:"calculation_group" yaml:"calculation_group"`
	CalculationColumn    string   `koanf:"calculation_column" yaml:"calculation_column"`
	BaseFolder           string   `koanf:"base_folder" yaml:"base_folder"`
	TargetFolder         string   `koanf:"target_folder" yaml:"target_folder"`
	FolderMode           string   `koanf:"folder_mode" yaml:"folder_mode"`
	Overwrite            bool     `koanf:"overwrite" yaml:"overwrite"`
	OverwriteMode        string   `koanf:"overwrite_mode" yaml:"overwrite_mode"`
	IncludeTables        []string `koanf:"include_tables" yaml:"include_tables"`
	ExcludeTables        []string `koanf:"exclude_tables" yaml:"exclude_tables"`
	ExcludeNameContains  []string `koanf:"exclude_name_contains" yaml:"exclude_name_contains"`
	Items                []string `koanf:"items" yaml:"items"`
	PercentageIndicators []string `koanf:"percentage_indicators" yaml:"percentage_indicators"`
	PercentageFormat     string   `koanf:"percentage_format" yaml:"percentage_format"`
	EscapeItemQuotes     bool     `koanf:"escape_item_quotes" yaml:"escape_item_quotes"`
}

// Options converts the configuration into generator options.
func (g GenerateConfig) Options() generator.Options {
	return generator.Options{
		CalculationGroup:     g.CalculationGroup,
		CalculationColumn:    g.CalculationColumn,
		BaseFolder:           g.BaseFolder,
		TargetFolder:         g.TargetFolder,
		FolderMode:           generator.FolderMode(g.FolderMode),
		Overwrite:            g.Overwrite,
		OverwriteMode:        generator.OverwriteMode(g.OverwriteMode),
		IncludeTables:        g.IncludeTables,
		ExcludeTables:        g.ExcludeTables,
		ExcludeNameContains:  g.ExcludeNameContains,
		Items:                g.Items,
		PercentageIndicators: g.PercentageIndicators,
		PercentageFormat:     g.PercentageFormat,
		EscapeItemQuotes:     g.EscapeItemQuotes,
	}
}

// RenameConfig configures the rename command.
type RenameConfig struct {
	Pairs            []rename.Pair `koanf:"pairs" yaml:"pairs"`
	PairsFile        string        `koanf:"pairs_file" yaml:"pairs_file,omitempty"`
	IncludeTables    []string      `koanf:"include_tables" yaml:"include_tables"`
	IncludeHidden    bool          `koanf:"include_hidden" yaml:"include_hidden"`
	CalculationItems bool          `koanf:"calculation_items" yaml:"calculation_items"`
}

// Options converts the configuration into propagator options.
func (r RenameConfig) Options() rename.Options {
	return rename.Options{
		Pairs:            r.Pairs,
		IncludeTables:    r.IncludeTables,
		IncludeHidden:    r.IncludeHidden,
		CalculationItems: r.CalculationItems,
	}
}

// CheckConfig configures the check command.
type CheckConfig struct {
	Disabled []string `koanf:"disabled" yaml:"disabled"`
}

// Default configuration values.
const (
	DefaultModelFile = "model.bim"
	DefaultStateFile = ".leapmodel/state.db"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	EnvPrefix        = "LEAPMODEL_"
)

// ConfigFileNames are searched in order in the project root.
var ConfigFileNames = []string{"leapmodel.yaml", "leapmodel.yml"}

// defaults returns the flattened default values loaded first.
func defaults() map[string]any {
	gen := generator.DefaultOptions()
	return map[string]any{
		"model":      DefaultModelFile,
		"state_path": DefaultStateFile,
		"output":     DefaultOutput,
		"verbose":    false,
		"no_history": false,

		"generate.calculation_group":     gen.CalculationGroup,
		"generate.calculation_column":    gen.CalculationColumn,
		"generate.base_folder":           gen.BaseFolder,
		"generate.target_folder":         gen.TargetFolder,
		"generate.folder_mode":           string(gen.FolderMode),
		"generate.overwrite":             gen.Overwrite,
		"generate.overwrite_mode":        string(gen.OverwriteMode),
		"generate.include_tables":        []string{},
		"generate.exclude_tables":        gen.ExcludeTables,
		"generate.exclude_name_contains": gen.ExcludeNameContains,
		"generate.items":                 []string{},
		"generate.percentage_indicators": gen.PercentageIndicators,
		"generate.percentage_format":     gen.PercentageFormat,
		"generate.escape_item_quotes":    gen.EscapeItemQuotes,

		"rename.include_hidden":    false,
		"rename.calculation_items": true,
	}
}
