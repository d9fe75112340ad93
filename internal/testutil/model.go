package testutil

import (
	"fmt"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// TimeIntelligenceModel returns a small model with a Sales fact table, a
// parameter table, a calendar table and a "Time Intelligence" calculation
// group with PY, YTD and YOY % items.
func TimeIntelligenceModel() *core.Model {
	return &core.Model{
		Name: "Fixture",
		Tables: []*core.Table{
			{
				Name:    "Sales",
				Columns: []*core.Column{{Name: "Amount", DataType: "decimal", SourceColumn: "Amount"}},
				Measures: []*core.Measure{
					{Name: "Sales", Expression: "SUM(Sales[Amount])", DisplayFolder: "Base Measures", FormatString: "#,##0", LineageTag: "tag-sales"},
					{Name: "Cost", Expression: "SUM(Sales[Cost])", DisplayFolder: `Base Measures\Costs`, FormatString: "#,##0.00", LineageTag: "tag-cost"},
					{Name: "Sales Growth", Expression: "[Sales] - [Sales PY]", DisplayFolder: "Base Measures", LineageTag: "tag-growth"},
					{Name: "Internal", Expression: "1", DisplayFolder: "Base Measures", IsHidden: true, LineageTag: "tag-internal"},
					{Name: "Report Title", Expression: `"Sales Report"`, DisplayFolder: "Labels", LineageTag: "tag-title"},
				},
			},
			{
				Name: "Parameter Dates",
				Measures: []*core.Measure{
					{Name: "Selected Date", Expression: "MAX('Parameter Dates'[Date])", DisplayFolder: "Base Measures", LineageTag: "tag-param"},
				},
			},
			{
				Name: "Calendar",
				Measures: []*core.Measure{
					{Name: "Days", Expression: "COUNTROWS(Calendar)", DisplayFolder: "Base Measures", LineageTag: "tag-days"},
				},
			},
			{
				Name: "Time Intelligence",
				Columns: []*core.Column{
					{Name: "Time Calculation", DataType: "string", SourceColumn: "Name"},
					{Name: "Ordinal", DataType: "int64", SourceColumn: "Ordinal"},
				},
				CalculationGroup: &core.CalculationGroup{
					Precedence: 10,
					Items: []*core.CalculationItem{
						{Name: "PY", Expression: "CALCULATE(SELECTEDMEASURE(), SAMEPERIODLASTYEAR('Calendar'[Date]))", Ordinal: 0},
						{Name: "YTD", Expression: "CALCULATE(SELECTEDMEASURE(), DATESYTD('Calendar'[Date]))", Ordinal: 1},
						{
							Name:                   "YOY %",
							Expression:             "DIVIDE(SELECTEDMEASURE() - CALCULATE(SELECTEDMEASURE(), 'Time Intelligence'[Time Calculation] = \"PY\"), SELECTEDMEASURE())",
							FormatStringExpression: `"0.00 %"`,
							Ordinal:                2,
						},
					},
				},
			},
		},
	}
}

// SequentialTags returns a lineage tag generator producing "gen-1", "gen-2", ...
func SequentialTags() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	}
}
