package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/leapstack-labs/leapmodel/internal/cli/output"
	"github.com/leapstack-labs/leapmodel/internal/generator"
)

// Validate checks values that koanf cannot type-check.
func (c *Config) Validate() error {
	if c.ModelPath == "" {
		return fmt.Errorf("model is required")
	}
	if !slices.Contains(output.ValidModes, c.OutputFormat) {
		return fmt.Errorf("invalid output format %q: expected one of %v", c.OutputFormat, output.ValidModes)
	}

	switch generator.FolderMode(c.Generate.FolderMode) {
	case generator.FolderByMeasure, generator.FolderByItem:
	default:
		return fmt.Errorf("invalid generate.folder_mode %q: expected measure or item", c.Generate.FolderMode)
	}

	switch generator.OverwriteMode(c.Generate.OverwriteMode) {
	case generator.OverwriteUpdate, generator.OverwriteRecreate:
	default:
		return fmt.Errorf("invalid generate.overwrite_mode %q: expected update or recreate", c.Generate.OverwriteMode)
	}

	return nil
}

// ValidateModelFile checks that the model file exists.
func (c *Config) ValidateModelFile() error {
	if _, err := os.Stat(c.ModelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file does not exist: %s\nHint: use --model to point at a model.bim file", c.ModelPath)
	}
	return nil
}
