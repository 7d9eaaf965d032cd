package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()
	out, err := exporter.Render(Dataset{
		Headers: []string{"id", "amount"},
		Rows: []map[string]string{
			{"id": "64f6c5d7e8f9a0b1c2d3e4f5", "amount": "49.99"},
			{"id": "64f6c5d7e8f9a0b1c2d3e4f6"},
		},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,amount", lines[0])
	assert.Equal(t, "64f6c5d7e8f9a0b1c2d3e4f5,49.99", lines[1])
	assert.Equal(t, "64f6c5d7e8f9a0b1c2d3e4f6,", lines[2], "missing cells render blank")
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRenderReceipt(t *testing.T) {
	exporter := NewPDFExporter()
	out, err := exporter.RenderReceipt("Payment Receipt", []Field{
		{Label: "Payment ID", Value: "64f6c5d7e8f9a0b1c2d3e4f5"},
		{Label: "Amount", Value: "49.99 usd"},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}

func TestPDFExporterRenderReceiptRequiresFields(t *testing.T) {
	_, err := NewPDFExporter().RenderReceipt("Payment Receipt", nil)
	require.Error(t, err)
}

func TestPDFExporterRenderTable(t *testing.T) {
	out, err := NewPDFExporter().Render(Dataset{
		Headers: []string{"id", "status"},
		Rows:    []map[string]string{{"id": "64f6c5d7e8f9a0b1c2d3e4f5", "status": "COMPLETED"}},
	}, "Ledger")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}
