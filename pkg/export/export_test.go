package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Columns: []Column{{Key: "student_name", Label: "Student"}, {Key: "current_juz", Label: "Juz"}, {Key: "notes"}},
		Rows: []map[string]string{
			{"student_name": "Aisha", "current_juz": "29", "notes": "fluent, calm"},
			{"student_name": "Omar", "current_juz": "30"},
		},
	}
}

func TestCSVExporterUsesLabelsAndKeys(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Student,Juz,notes\nAisha,29,\"fluent, calm\"\nOmar,30,\n", string(out))
}

func TestExportersRequireColumns(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{}, "x")
	assert.Error(t, err)
}

func TestPDFExporterRendersDocument(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "Recitation")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
