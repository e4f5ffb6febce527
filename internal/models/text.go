package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Text holds a JSON scalar the course API sends either as a string or as a
// number ("Juz 5", "12", 12). Null decodes to the empty value.
type Text string

// UnmarshalJSON accepts strings, numbers and null.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("text: unsupported value %s", data)
	}
	*t = Text(n.String())
	return nil
}

// String returns the raw text.
func (t Text) String() string {
	return string(t)
}

// Int64 parses the text as a base-10 integer.
func (t Text) Int64() (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(string(t)), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Float parses the text as a decimal number.
func (t Text) Float() (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
