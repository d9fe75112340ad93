package tabular

import (
	"bytes"
	"encoding/json"
	"strings"
)

// text is a formula property. Model files store multi-line expressions
// either as a single string or as an array of lines; the shape found on
// load is kept on save.
type text struct {
	value string
	lines bool
}

func (t *text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var lines []string
		if err := json.Unmarshal(data, &lines); err != nil {
			return err
		}
		t.value = strings.Join(lines, "\n")
		t.lines = true
		return nil
	}
	t.lines = false
	return json.Unmarshal(data, &t.value)
}

func (t text) MarshalJSON() ([]byte, error) {
	if t.lines {
		return marshal(strings.Split(t.value, "\n"))
	}
	return marshal(t.value)
}
