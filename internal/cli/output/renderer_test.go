package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		isTTY bool
		want  Mode
	}{
		{"auto on terminal", ModeAuto, true, ModeText},
		{"auto piped", ModeAuto, false, ModeMarkdown},
		{"empty defaults to auto", "", false, ModeMarkdown},
		{"explicit text piped", ModeText, false, ModeText},
		{"explicit json", ModeJSON, true, ModeJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRendererWithTTY(&bytes.Buffer{}, &bytes.Buffer{}, tt.isTTY, tt.mode)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestNewRenderer_BufferIsNotTTY(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.False(t, r.IsTTY())
}

func TestTable(t *testing.T) {
	headers := []string{"table", "display_folder"}
	rows := [][]string{{"Sales", `Time Intelligence\Sales`}}

	t.Run("markdown", func(t *testing.T) {
		var out bytes.Buffer
		r := NewRendererWithTTY(&out, &bytes.Buffer{}, false, ModeMarkdown)
		r.Table(headers, rows)
		assert.Contains(t, out.String(), "| Table | Display Folder |")
		assert.Contains(t, out.String(), "| Sales |")
	})

	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		r := NewRendererWithTTY(&out, &bytes.Buffer{}, false, ModeText)
		r.Table(headers, rows)
		assert.Contains(t, out.String(), "DISPLAY FOLDER")
		assert.Contains(t, out.String(), "┌")
	})
}

func TestHeaderAndStatus(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRendererWithTTY(&out, &errOut, false, ModeMarkdown)

	r.Header(2, "Summary")
	r.StatusLine("Created", 3)
	r.Success("done")
	r.Error("broken")

	assert.Equal(t, "## Summary\n\n- **Created:** 3\n> done\n", out.String())
	assert.Equal(t, "✗ broken\n", errOut.String())
}

func TestJSON_NoHTMLEscape(t *testing.T) {
	var out bytes.Buffer
	r := NewRendererWithTTY(&out, &bytes.Buffer{}, false, ModeJSON)

	require.NoError(t, r.JSON(map[string]string{"expr": "[A] <> [B]"}))
	assert.Contains(t, out.String(), "[A] <> [B]")

	var got map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "# Title", FormatHeader(0, "Title"))
	assert.Equal(t, "### Sub", FormatHeader(3, "Sub"))
	assert.Equal(t, "- **Key:** value", FormatKeyValue("Key", "value"))
	assert.Equal(t, "```dax\nSUM(x)\n```", FormatCodeBlock("dax", "SUM(x)\n"))
}
