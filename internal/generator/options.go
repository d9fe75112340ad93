package generator

import "github.com/leapstack-labs/leapmodel/pkg/dax"

// FolderMode selects how generated measures are grouped in display folders.
type FolderMode string

// Folder modes.
const (
	// FolderByMeasure places generated measures under <target>\<base measure>.
	FolderByMeasure FolderMode = "measure"
	// FolderByItem places generated measures under <target>\<calculation item>.
	FolderByItem FolderMode = "item"
)

// OverwriteMode selects how an existing generated measure is refreshed.
type OverwriteMode string

// Overwrite modes.
const (
	// OverwriteUpdate edits the existing measure in place and keeps its lineage tag.
	OverwriteUpdate OverwriteMode = "update"
	// OverwriteRecreate deletes the existing measure and creates a new one.
	OverwriteRecreate OverwriteMode = "recreate"
)

// Options configures a generator run.
type Options struct {
	// CalculationGroup is the name of the calculation-group table.
	CalculationGroup string
	// CalculationColumn is the identifying column compared against item names.
	CalculationColumn string

	// BaseFolder restricts base measures to display folders starting with it.
	// Empty disables the filter.
	BaseFolder string
	// TargetFolder replaces BaseFolder in the display folder of generated measures.
	TargetFolder string
	FolderMode   FolderMode

	// Overwrite refreshes generated measures that already exist.
	Overwrite     bool
	OverwriteMode OverwriteMode

	// IncludeTables keeps only tables whose name starts with one of the
	// prefixes. Empty includes every table.
	IncludeTables []string
	// ExcludeTables drops tables whose name starts with one of the prefixes.
	ExcludeTables []string
	// ExcludeNameContains drops measures whose name contains any substring.
	ExcludeNameContains []string
	// Items limits generation to the named calculation items. Empty uses all.
	Items []string

	// PercentageIndicators select PercentageFormat when found in an item name.
	PercentageIndicators []string
	PercentageFormat     string

	// EscapeItemQuotes doubles double quotes in item names inside generated
	// expressions. Off by default so existing expressions stay byte-identical.
	EscapeItemQuotes bool

	// DryRun computes the report without touching the model.
	DryRun bool
}

// DefaultOptions returns the options of a standard time-intelligence run.
func DefaultOptions() Options {
	return Options{
		CalculationGroup:     "Time Intelligence",
		CalculationColumn:    "Time Calculation",
		BaseFolder:           "Base Measures",
		TargetFolder:         "Time Intelligence",
		FolderMode:           FolderByMeasure,
		OverwriteMode:        OverwriteUpdate,
		ExcludeTables:        []string{"Parameter", "Calendar"},
		ExcludeNameContains:  []string{"Growth", "Latest"},
		PercentageIndicators: []string{"%", "Percent", "Pct"},
		PercentageFormat:     dax.PercentFormat,
	}
}

func (o *Options) applyDefaults() {
	if o.FolderMode == "" {
		o.FolderMode = FolderByMeasure
	}
	if o.OverwriteMode == "" {
		o.OverwriteMode = OverwriteUpdate
	}
	if o.PercentageFormat == "" {
		o.PercentageFormat = dax.PercentFormat
	}
}
