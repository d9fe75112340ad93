package generator

import (
	"testing"

	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestNamingHelpers(t *testing.T) {
	base := &core.Measure{Name: "Sales", Table: "Sales", DisplayFolder: `Base Measures\Revenue`, FormatString: "$#,##0"}
	py := &core.CalculationItem{Name: "PY"}
	yoy := &core.CalculationItem{Name: "YOY %"}
	opts := DefaultOptions()

	assert.Equal(t, "Sales PY", MeasureName(base, py))
	assert.Equal(t, "Sales YOY %", MeasureName(base, yoy))

	assert.Equal(t, "$#,##0", FormatString(base, py, opts))
	assert.Equal(t, "#,##0.00 %;(#,##0.00 %)", FormatString(base, yoy, opts))

	assert.Equal(t, `Time Intelligence\Revenue\Sales`, DisplayFolder(base, py, opts))
	opts.FolderMode = FolderByItem
	assert.Equal(t, `Time Intelligence\Revenue\PY`, DisplayFolder(base, py, opts))
	opts.BaseFolder = ""
	assert.Equal(t, `Time Intelligence\PY`, DisplayFolder(base, py, opts))
	opts.TargetFolder = ""
	assert.Equal(t, "PY", DisplayFolder(base, py, opts))
}

func TestExpression(t *testing.T) {
	opts := DefaultOptions()
	base := &core.Measure{Name: "Sales", Table: "Sales"}

	tests := []struct {
		name   string
		base   *core.Measure
		item   string
		escape bool
		want   string
	}{
		{"bare table", base, "PY", false, `CALCULATE( Sales[Sales], 'Time Intelligence'[Time Calculation]= "PY" )`},
		{"quoted table", &core.Measure{Name: "Qty", Table: "Order Lines"}, "PY", false, `CALCULATE( 'Order Lines'[Qty], 'Time Intelligence'[Time Calculation]= "PY" )`},
		{"quotes kept", base, `Say "Hi"`, false, `CALCULATE( Sales[Sales], 'Time Intelligence'[Time Calculation]= "Say "Hi"" )`},
		{"quotes escaped", base, `Say "Hi"`, true, `CALCULATE( Sales[Sales], 'Time Intelligence'[Time Calculation]= "Say ""Hi""" )`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := opts
			o.EscapeItemQuotes = tt.escape
			assert.Equal(t, tt.want, Expression(tt.base, &core.CalculationItem{Name: tt.item}, o))
		})
	}
}
