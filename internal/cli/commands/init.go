package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapmodel/internal/cli/config"
	"github.com/leapstack-labs/leapmodel/internal/cli/output"
	"github.com/leapstack-labs/leapmodel/internal/generator"
	"github.com/leapstack-labs/leapmodel/internal/rename"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const configHeader = `# leapmodel configuration.
# Every key can be overridden with LEAPMODEL_<KEY> environment variables
# (use __ for nesting, e.g. LEAPMODEL_GENERATE__OVERWRITE=true) or flags.
`

// starterConfig is the layout written by init.
type starterConfig struct {
	Model     string                `yaml:"model"`
	StatePath string                `yaml:"state_path"`
	Generate  config.GenerateConfig `yaml:"generate"`
	Rename    config.RenameConfig   `yaml:"rename"`
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var (
		force     bool
		modelFile string
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a starter leapmodel.yaml",
		Long: `Write a leapmodel.yaml with the default generate and rename settings.

The generated file documents every option with its default value so it
can be edited in place.`,
		Example: `  # Initialize in current directory
  leapmodel init

  # Point at a model file in another folder
  leapmodel init --model-file semantic/model.bim

  # Force overwrite existing config
  leapmodel init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ModeAuto)
			return runInit(r, dir, modelFile, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().StringVar(&modelFile, "model-file", config.DefaultModelFile, "Model file path written to the config")

	return cmd
}

func starter(modelFile string) starterConfig {
	gen := generator.DefaultOptions()
	return starterConfig{
		Model:     modelFile,
		StatePath: config.DefaultStateFile,
		Generate: config.GenerateConfig{
			CalculationGroup:     gen.CalculationGroup,
			CalculationColumn:    gen.CalculationColumn,
			BaseFolder:           gen.BaseFolder,
			TargetFolder:         gen.TargetFolder,
			FolderMode:           string(gen.FolderMode),
			OverwriteMode:        string(gen.OverwriteMode),
			IncludeTables:        []string{},
			ExcludeTables:        gen.ExcludeTables,
			ExcludeNameContains:  gen.ExcludeNameContains,
			Items:                []string{},
			PercentageIndicators: gen.PercentageIndicators,
			PercentageFormat:     gen.PercentageFormat,
		},
		Rename: config.RenameConfig{
			Pairs:            []rename.Pair{},
			IncludeTables:    []string{},
			CalculationItems: true,
		},
	}
}

func runInit(r *output.Renderer, dir, modelFile string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, config.ConfigFileNames[0])
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", configPath)
	}

	data, err := yaml.Marshal(starter(modelFile))
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(configPath, append([]byte(configHeader), data...), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}

	r.Success("Created " + configPath)
	return nil
}
