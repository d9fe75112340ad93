package generator

import (
	"strings"

	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/leapstack-labs/leapmodel/pkg/dax"
)

// MeasureName returns the name of the measure derived from base and item.
func MeasureName(base *core.Measure, item *core.CalculationItem) string {
	return base.Name + " " + item.Name
}

// Expression returns the CALCULATE wrapper of base filtered to item.
func Expression(base *core.Measure, item *core.CalculationItem, opts Options) string {
	return dax.CalculateFilter(dax.CalculateFilterParams{
		BaseReference: dax.FullReference(base.Table, base.Name),
		Group:         opts.CalculationGroup,
		Column:        opts.CalculationColumn,
		Item:          item.Name,
		EscapeQuotes:  opts.EscapeItemQuotes,
	})
}

// DisplayFolder returns the display folder of the measure derived from base
// and item. The base folder prefix is replaced by the target folder as a
// plain substring, then the measure or item name is appended.
func DisplayFolder(base *core.Measure, item *core.CalculationItem, opts Options) string {
	folder := opts.TargetFolder
	if opts.BaseFolder != "" {
		folder = strings.ReplaceAll(base.DisplayFolder, opts.BaseFolder, opts.TargetFolder)
	}

	leaf := base.Name
	if opts.FolderMode == FolderByItem {
		leaf = item.Name
	}
	return joinFolder(folder, leaf)
}

// FormatString returns the percentage format for percentage items and the
// base measure's own format string otherwise.
func FormatString(base *core.Measure, item *core.CalculationItem, opts Options) string {
	if dax.ContainsAny(item.Name, opts.PercentageIndicators) {
		if opts.PercentageFormat == "" {
			return dax.PercentFormat
		}
		return opts.PercentageFormat
	}
	return base.FormatString
}

func joinFolder(folder, leaf string) string {
	folder = strings.TrimRight(folder, `\`)
	if folder == "" {
		return leaf
	}
	return folder + `\` + leaf
}
