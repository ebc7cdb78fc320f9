package exporter

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revlens/pkg/contracts/domain"
)

func testDataset() *domain.Dataset {
	return &domain.Dataset{
		ID:       "abc123",
		Filename: "revenue.xlsx",
		Records: []domain.CustomerRecord{
			{Name: "Alice", Sales: domain.Float(100), SalesWithTax: domain.Float(120.5)},
			{Name: "Bob", Sales: domain.Float(50.4), SalesWithTax: domain.NullFloat{}},
		},
	}
}

func TestWriteDataset(t *testing.T) {
	var buf bytes.Buffer
	err := NewCSVExporter(nil).WriteDataset(&buf, testDataset(), WriteOptions{})
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Customer Name", "Sales", "Sales With Tax"}, rows[0])
	assert.Equal(t, []string{"Alice", "100.00", "120.50"}, rows[1])
	// Missing values export as empty cells, and there is no index column.
	assert.Equal(t, []string{"Bob", "50.40", ""}, rows[2])
}

func TestWriteDataset_BOMPrefix(t *testing.T) {
	var buf bytes.Buffer
	err := NewCSVExporter(nil).WriteDataset(&buf, testDataset(), WriteOptions{BOMPrefix: true})
	require.NoError(t, err)

	out := buf.Bytes()
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, out[:3])
	assert.True(t, strings.HasPrefix(string(out[3:]), "Customer Name,Sales,Sales With Tax"))
}

func TestWriteDataset_Empty(t *testing.T) {
	var buf bytes.Buffer
	err := NewCSVExporter(nil).WriteDataset(&buf, &domain.Dataset{ID: "empty"}, WriteOptions{})
	require.NoError(t, err)

	assert.Equal(t, "Customer Name,Sales,Sales With Tax\n", buf.String())
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "13.40", formatFloat(13.4))
	assert.Equal(t, "0.00", formatFloat(0))
	assert.Equal(t, "1200.50", formatFloat(1200.5))
}
