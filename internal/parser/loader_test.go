package parser

import (
	"errors"
	"testing"

	"github.com/research-explorer/backend/internal/models"
	"github.com/research-explorer/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadBytes(t *testing.T, name string, data []byte, schema *models.Schema) (*models.Table, error) {
	t.Helper()
	return NewRegistry().Load(Input{Name: name, Data: data}, schema)
}

func TestXLSXLoader_HeaderAtRowFive(t *testing.T) {
	data := testutil.MustReportWorkbook(t, testutil.ReportHeader, [][]interface{}{
		testutil.GrantRow(1, "Kesehatan", "Penelitian Dasar", 2022, 2023, "Rp. 77.107.000"),
		testutil.GrantRow(2, "Pangan", "Penelitian Terapan", 2023, 2024, "Rp. 5.000.000"),
	})

	table, err := loadBytes(t, "laporan.xlsx", data, models.DefaultSchema())
	require.NoError(t, err)

	assert.Equal(t, append(append([]string{}, testutil.ReportHeader...), "DANA_DISETUJUI_NUM"), table.Columns)
	require.Equal(t, 2, table.Len())

	assert.Equal(t, "Rp. 77.107.000", table.Value(0, "DANA DISETUJUI").Text)
	assert.Equal(t, "77107000", table.Value(0, "DANA_DISETUJUI_NUM").Text)
	assert.Equal(t, int64(77107000), table.Rows[0].Record.ApprovedFunds)
	assert.Equal(t, "2022", table.Rows[0].Record.ProposalYear.Text)
	assert.Equal(t, "2023", table.Rows[0].Record.ExecutionYear.Text)
	assert.Equal(t, "Kesehatan", table.Rows[0].Record.FocusArea.Text)
	assert.Equal(t, "Penelitian Dasar", table.Rows[0].Record.GrantProgram.Text)

	for _, d := range models.Dimensions {
		assert.True(t, table.HasDimension(d), "dimension %s", d)
	}
}

func TestXLSXLoader_DropsUnlabeledColumns(t *testing.T) {
	header := []string{"BIDANG FOKUS", "", "DANA DISETUJUI", "  "}
	data := testutil.MustReportWorkbook(t, header, [][]interface{}{
		{"Energi", "catatan", "Rp. 1.000", "x"},
		{"Pangan", nil, "Rp. 2.000", nil, "beyond header"},
	})

	table, err := loadBytes(t, "a.xlsx", data, models.DefaultSchema())
	require.NoError(t, err)

	assert.Equal(t, []string{"BIDANG FOKUS", "DANA DISETUJUI", "DANA_DISETUJUI_NUM"}, table.Columns)
	require.Equal(t, 2, table.Len())
	for _, row := range table.Rows {
		assert.Len(t, row.Cells, 3)
	}
	assert.False(t, table.HasDimension(models.DimensionProposalYear))
}

func TestXLSXLoader_SkipsBlankRowsAndMarksMissingCells(t *testing.T) {
	data := testutil.MustReportWorkbook(t, testutil.ReportHeader, [][]interface{}{
		testutil.GrantRow(1, "Energi", "Dasar", 2022, 2022, "Rp. 1.000"),
		{},
		{3, "Tanpa bidang", nil, "Dasar", 2022, 2022, nil},
	})

	table, err := loadBytes(t, "a.xlsx", data, models.DefaultSchema())
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	second := table.Rows[1]
	assert.False(t, second.Record.FocusArea.Valid)
	assert.False(t, table.Value(1, "DANA DISETUJUI").Valid)
	assert.Equal(t, int64(0), second.Record.ApprovedFunds)
	assert.Equal(t, "0", table.Value(1, "DANA_DISETUJUI_NUM").Text)
}

func TestXLSXLoader_DuplicateLabels(t *testing.T) {
	header := []string{"DANA DISETUJUI", "KET", "KET"}
	data := testutil.MustReportWorkbook(t, header, [][]interface{}{
		{"Rp. 1", "a", "b"},
	})

	table, err := loadBytes(t, "dup.xlsx", data, models.DefaultSchema())
	require.NoError(t, err)
	assert.Equal(t, []string{"DANA DISETUJUI", "KET", "KET.1", "DANA_DISETUJUI_NUM"}, table.Columns)
	assert.Equal(t, "b", table.Value(0, "KET.1").Text)
}

func TestBuildTable_DuplicateLabelsNeverCollide(t *testing.T) {
	schema := models.DefaultSchema()
	schema.HeaderRow = 1

	tests := []struct {
		name   string
		header []string
		want   []string
	}{
		{"suffix already taken later", []string{"A", "A", "A.1", "DANA DISETUJUI"}, []string{"A", "A.1", "A.1.1", "DANA DISETUJUI"}},
		{"suffix already taken earlier", []string{"A.1", "A", "A", "DANA DISETUJUI"}, []string{"A.1", "A", "A.2", "DANA DISETUJUI"}},
		{"three copies", []string{"A", "A", "A", "DANA DISETUJUI"}, []string{"A", "A.1", "A.2", "DANA DISETUJUI"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := []string{"v0", "v1", "v2", "Rp. 1"}
			table, err := buildTable([][]string{tt.header, row}, schema)
			require.NoError(t, err)

			assert.Equal(t, append(tt.want, "DANA_DISETUJUI_NUM"), table.Columns)
			for i, label := range tt.want[:3] {
				idx, ok := table.ColumnIndex(label)
				require.True(t, ok, label)
				assert.Equal(t, i, idx, label)
				assert.Equal(t, row[i], table.Value(0, label).Text)
			}
		})
	}
}

func TestLoad_Failures(t *testing.T) {
	withoutFunds := testutil.MustReportWorkbook(t, []string{"BIDANG FOKUS"}, [][]interface{}{{"Energi"}})

	tests := []struct {
		name    string
		file    string
		data    []byte
		wantErr error
	}{
		{"garbage named xlsx", "broken.xlsx", []byte("this is not a workbook"), nil},
		{"truncated zip", "broken.xlsx", []byte("PK\x03\x04garbage"), nil},
		{"legacy xls", "old.xls", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, ErrUnsupportedFormat},
		{"unknown extension", "notes.txt", []byte("hello"), ErrUnsupportedFormat},
		{"missing required column", "nofunds.xlsx", withoutFunds, ErrMissingColumn},
		{"too short for header", "short.csv", []byte("a,b\n1,2\n"), ErrHeaderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := loadBytes(t, tt.file, tt.data, models.DefaultSchema())
			require.Error(t, err)
			assert.Nil(t, table, "a failed load must not return a partial table")

			var le *LoadError
			require.True(t, errors.As(err, &le), "expected *LoadError, got %T", err)
			assert.Equal(t, tt.file, le.File)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestLoad_OptionalCurrencyColumn(t *testing.T) {
	schema := models.DefaultSchema()
	schema.RequiredColumns = nil

	data := testutil.MustReportWorkbook(t, []string{"BIDANG FOKUS"}, [][]interface{}{{"Energi"}})
	table, err := loadBytes(t, "nofunds.xlsx", data, schema)
	require.NoError(t, err)

	assert.Equal(t, []string{"BIDANG FOKUS", "DANA_DISETUJUI_NUM"}, table.Columns)
	assert.Equal(t, "0", table.Value(0, "DANA_DISETUJUI_NUM").Text)
	assert.Equal(t, int64(0), table.Rows[0].Record.ApprovedFunds)
}

func TestLoad_NormalizedColumnWithoutCurrency(t *testing.T) {
	schema := models.DefaultSchema()
	schema.HeaderRow = 1
	schema.RequiredColumns = nil

	// A re-loaded export that lost its currency column keeps its normalized values
	table, err := buildTable([][]string{{"BIDANG FOKUS", "DANA_DISETUJUI_NUM"}, {"Energi", "2500000"}}, schema)
	require.NoError(t, err)

	assert.Equal(t, []string{"BIDANG FOKUS", "DANA_DISETUJUI_NUM"}, table.Columns)
	assert.Equal(t, int64(2500000), table.Rows[0].Record.ApprovedFunds)
	assert.Equal(t, "2500000", table.Value(0, "DANA_DISETUJUI_NUM").Text)
}

func TestCSVLoader(t *testing.T) {
	content := "LAPORAN,,,\n,,,\n,,,\n,,,\nBIDANG FOKUS,,DANA DISETUJUI,TAHUN USULAN KEGIATAN\n" +
		"Energi,x,\"Rp. 10.000.000\",2022\n" +
		",,,\n" +
		"Pangan,,Rp. 5.000.000,2023\n"

	table, err := loadBytes(t, "laporan.csv", []byte(content), models.DefaultSchema())
	require.NoError(t, err)

	assert.Equal(t, []string{"BIDANG FOKUS", "DANA DISETUJUI", "TAHUN USULAN KEGIATAN", "DANA_DISETUJUI_NUM"}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, int64(10000000), table.Rows[0].Record.ApprovedFunds)
	assert.Equal(t, "2023", table.Rows[1].Record.ProposalYear.Text)
}

func TestRegistry_FindLoader(t *testing.T) {
	r := NewRegistry()

	l, err := r.FindLoader("upload.bin", []byte("PK\x03\x04rest"))
	require.NoError(t, err)
	assert.Equal(t, "xlsx", l.Name())

	l, err = r.FindLoader("DATA.CSV", []byte("a,b"))
	require.NoError(t, err)
	assert.Equal(t, "csv", l.Name())

	_, err = r.FindLoader("data.xls", []byte{0xD0, 0xCF, 0x11, 0xE0})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	l, err = r.GetLoaderByName("XLSX")
	require.NoError(t, err)
	assert.Equal(t, "xlsx", l.Name())

	_, err = r.GetLoaderByName("ods")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestRegistry_LoadWithFormat(t *testing.T) {
	r := NewRegistry()
	schema := models.DefaultSchema()
	schema.HeaderRow = 1
	content := []byte("BIDANG FOKUS,DANA DISETUJUI\nEnergi,Rp. 7.000.000\n")

	// Detection rejects the extension; naming the format loads it
	_, err := r.Load(Input{Name: "rekap.txt", Data: content}, schema)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	table, err := r.Load(Input{Name: "rekap.txt", Data: content, Format: "csv"}, schema)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, int64(7000000), table.Rows[0].Record.ApprovedFunds)

	_, err = r.Load(Input{Name: "rekap.txt", Data: content, Format: "ods"}, schema)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
