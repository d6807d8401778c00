package parser

import (
	"fmt"
	"testing"

	"github.com/research-explorer/backend/internal/models"
	"github.com/stretchr/testify/require"
)

var grantHeader = []string{"BIDANG FOKUS", "PROGRAM HIBAH", "TAHUN USULAN KEGIATAN", "TAHUN PELAKSANAAN KEGIATAN", "DANA DISETUJUI"}

// grantTable builds a table with the header on the first row.
func grantTable(t *testing.T, rows ...[]string) *models.Table {
	t.Helper()
	schema := models.DefaultSchema()
	schema.HeaderRow = 1
	table, err := buildTable(append([][]string{grantHeader}, rows...), schema)
	require.NoError(t, err)
	return table
}

func grant(focus, program, proposal, execution string, funds int64) []string {
	return []string{focus, program, proposal, execution, fmt.Sprintf("Rp. %d", funds)}
}

// mergedFixture is a merged table over two files with varied categories.
func mergedFixture(t *testing.T) *models.Table {
	t.Helper()
	a := grantTable(t,
		grant("Kesehatan", "Dasar", "2022", "2023", 10000000),
		grant("Pangan", "Terapan", "2022", "2022", 25000000),
		grant("Energi", "Dasar", "2023", "2024", 5000000),
	)
	b := grantTable(t,
		grant("Kesehatan", "Terapan", "2023", "2023", 15000000),
		grant("Pangan", "Dasar", "2024", "2025", 7500000),
	)
	merged, err := MergeTables([]*models.Table{a, b}, []string{"a.xlsx", "b.xlsx"}, models.DefaultSchema())
	require.NoError(t, err)
	return merged
}
