package models

import (
	"strconv"
	"strings"
)

// Row is a UI-ready record rendered by the table collaborator.
type Row interface {
	// RowKey identifies the row within its filter scope.
	RowKey() string
	// ServerID is the record id used for update/delete, zero when unknown.
	ServerID() int64
	// SearchFields are the display values matched by the search box.
	SearchFields() []string
	// Cells renders the row for export, keyed by column name.
	Cells() map[string]string
}

// Option is one selectable value offered to a form or filter.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
