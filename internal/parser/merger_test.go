package parser

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/research-explorer/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeTables_RowCountsAndSourceTags(t *testing.T) {
	rowsA := make([][]string, 100)
	for i := range rowsA {
		rowsA[i] = grant("Energi", "Dasar", "2022", "2022", int64(i))
	}
	rowsB := make([][]string, 50)
	for i := range rowsB {
		rowsB[i] = grant("Pangan", "Terapan", "2023", "2023", int64(1000+i))
	}
	a := grantTable(t, rowsA...)
	b := grantTable(t, rowsB...)

	merged, err := MergeTables([]*models.Table{a, b}, []string{"A.xlsx", "B.xlsx"}, models.DefaultSchema())
	require.NoError(t, err)
	require.Equal(t, 150, merged.Len())

	for i, row := range merged.Rows {
		want := "A.xlsx"
		if i >= 100 {
			want = "B.xlsx"
		}
		assert.Equal(t, want, row.Record.SourceFile)
		assert.Equal(t, want, merged.Value(i, "FILE_SUMBER").Text)
	}

	// Order within each source is preserved
	assert.Equal(t, int64(0), merged.Rows[0].Record.ApprovedFunds)
	assert.Equal(t, int64(99), merged.Rows[99].Record.ApprovedFunds)
	assert.Equal(t, int64(1000), merged.Rows[100].Record.ApprovedFunds)
	assert.Equal(t, int64(1049), merged.Rows[149].Record.ApprovedFunds)
}

func TestMergeTables_Empty(t *testing.T) {
	merged, err := MergeTables(nil, nil, models.DefaultSchema())
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Nil(t, merged)
}

func TestMergeTables_ColumnUnionFillsMissing(t *testing.T) {
	schema := models.DefaultSchema()
	schema.HeaderRow = 1
	schema.RequiredColumns = nil

	a, err := buildTable([][]string{{"BIDANG FOKUS", "DANA DISETUJUI"}, {"Energi", "Rp. 10"}}, schema)
	require.NoError(t, err)
	b, err := buildTable([][]string{{"BIDANG FOKUS", "CATATAN"}, {"Pangan", "revisi"}}, schema)
	require.NoError(t, err)

	merged, err := MergeTables([]*models.Table{a, b}, []string{"a.xlsx", "b.xlsx"}, schema)
	require.NoError(t, err)

	assert.Equal(t, []string{"BIDANG FOKUS", "DANA DISETUJUI", "DANA_DISETUJUI_NUM", "FILE_SUMBER", "CATATAN"}, merged.Columns)
	require.Equal(t, 2, merged.Len())

	assert.False(t, merged.Value(0, "CATATAN").Valid)
	assert.False(t, merged.Value(1, "DANA DISETUJUI").Valid)
	assert.Equal(t, "0", merged.Value(1, "DANA_DISETUJUI_NUM").Text)
	assert.Equal(t, "revisi", merged.Value(1, "CATATAN").Text)
	assert.Equal(t, "b.xlsx", merged.Value(1, "FILE_SUMBER").Text)
}

func TestMergeTables_DoesNotMutateInputs(t *testing.T) {
	a := grantTable(t, grant("Energi", "Dasar", "2022", "2022", 1))
	before := fmt.Sprint(a.Columns, a.Rows)

	_, err := MergeTables([]*models.Table{a}, []string{"a.xlsx"}, models.DefaultSchema())
	require.NoError(t, err)

	assert.Equal(t, before, fmt.Sprint(a.Columns, a.Rows))
	assert.Equal(t, "", a.Rows[0].Record.SourceFile)
}

func TestMergeTables_MismatchedNames(t *testing.T) {
	a := grantTable(t, grant("Energi", "Dasar", "2022", "2022", 1))
	_, err := MergeTables([]*models.Table{a}, nil, models.DefaultSchema())
	assert.Error(t, err)
}

func TestMergeTables_BoundsAgreeWithNormalizedColumn(t *testing.T) {
	schema := models.DefaultSchema()
	schema.HeaderRow = 1
	schema.RequiredColumns = nil

	a, err := buildTable([][]string{{"BIDANG FOKUS", "DANA DISETUJUI"}, {"Energi", "Rp. 5.000.000"}, {"Pangan", "Rp. 10.000.000"}}, schema)
	require.NoError(t, err)
	b, err := buildTable([][]string{{"BIDANG FOKUS"}, {"Kesehatan"}}, schema)
	require.NoError(t, err)

	merged, err := MergeTables([]*models.Table{a, b}, []string{"a.xlsx", "b.xlsx"}, schema)
	require.NoError(t, err)

	lo, hi := FundsBounds(merged)
	assert.Equal(t, int64(0), lo)
	assert.Equal(t, int64(10000000), hi)

	for i, row := range merged.Rows {
		cell := merged.Value(i, "DANA_DISETUJUI_NUM")
		require.True(t, cell.Valid, "row %d", i)
		assert.Equal(t, strconv.FormatInt(row.Record.ApprovedFunds, 10), cell.Text)
	}
}
