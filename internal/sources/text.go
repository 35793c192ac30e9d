package sources

import (
	"bytes"
	"encoding/json"
	"strings"
)

// scalar accepts a JSON string, number or boolean and keeps its text form.
// Exports disagree on whether fields like storyPoints are quoted.
type scalar string

func (s *scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = scalar(str)
		return nil
	}
	*s = scalar(data)
	return nil
}

func (s scalar) String() string {
	return oneLine(string(s))
}

// oneLine collapses all whitespace runs, including newlines, into single spaces.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// fieldList joins "label: value" pairs, skipping empty values.
type fieldList []string

func (f *fieldList) add(label, value string) {
	if value == "" {
		return
	}
	*f = append(*f, label+": "+value)
}
