package dax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateFilter(t *testing.T) {
	tests := []struct {
		name   string
		params CalculateFilterParams
		want   string
	}{
		{
			name: "time intelligence item",
			params: CalculateFilterParams{
				BaseReference: "Sales[Sales]",
				Group:         "Time Intelligence",
				Column:        "Time Calculation",
				Item:          "YTD",
			},
			want: `CALCULATE( Sales[Sales], 'Time Intelligence'[Time Calculation]= "YTD" )`,
		},
		{
			name: "percentage item",
			params: CalculateFilterParams{
				BaseReference: "'Sales Facts'[Net Amount]",
				Group:         "Time Intelligence",
				Column:        "Time Calculation",
				Item:          "YOY %",
			},
			want: `CALCULATE( 'Sales Facts'[Net Amount], 'Time Intelligence'[Time Calculation]= "YOY %" )`,
		},
		{
			name: "embedded quote kept verbatim",
			params: CalculateFilterParams{
				BaseReference: "Sales[Sales]",
				Group:         "TI",
				Column:        "Calc",
				Item:          `The "Best"`,
			},
			want: `CALCULATE( Sales[Sales], 'TI'[Calc]= "The "Best"" )`,
		},
		{
			name: "embedded quote escaped",
			params: CalculateFilterParams{
				BaseReference: "Sales[Sales]",
				Group:         "TI",
				Column:        "Calc",
				Item:          `The "Best"`,
				EscapeQuotes:  true,
			},
			want: `CALCULATE( Sales[Sales], 'TI'[Calc]= "The ""Best""" )`,
		},
		{
			name: "group with apostrophe",
			params: CalculateFilterParams{
				BaseReference: "Sales[Sales]",
				Group:         "Year's Calcs",
				Column:        "Calc",
				Item:          "PY",
			},
			want: `CALCULATE( Sales[Sales], 'Year''s Calcs'[Calc]= "PY" )`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateFilter(tt.params))
		})
	}
}

func TestFullReference(t *testing.T) {
	tests := []struct {
		table, measure string
		want           string
	}{
		{"Sales", "Sales", "Sales[Sales]"},
		{"Sales_2024", "Amount", "Sales_2024[Amount]"},
		{"Parameter Dates", "Amount", "'Parameter Dates'[Amount]"},
		{"2024Sales", "Amount", "'2024Sales'[Amount]"},
		{"Sales", "Margin [Net]", "Sales[Margin [Net]]]"},
		{"Ventes Été", "Total", "'Ventes Été'[Total]"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FullReference(tt.table, tt.measure))
		})
	}
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"Sales YTD"`, Quote("Sales YTD"))
	assert.Equal(t, `"a ""b"""`, Quote(`a "b"`))
	assert.Equal(t, "[Sales YTD]", Bracket("Sales YTD"))
}

func TestContainsAny(t *testing.T) {
	indicators := []string{"%", "Percent", "Pct"}

	assert.True(t, ContainsAny("YOY %", indicators))
	assert.True(t, ContainsAny("Growth Pct", indicators))
	assert.False(t, ContainsAny("PY", indicators))
	assert.False(t, ContainsAny("YTD", nil))
	assert.False(t, ContainsAny("YTD", []string{""}))
}
