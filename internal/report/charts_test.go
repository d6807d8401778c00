package report

import (
	"encoding/json"
	"testing"

	"github.com/research-explorer/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordTable builds a table holding only typed records.
func recordTable(records ...models.Record) *models.Table {
	t := models.NewTable([]string{"DANA_DISETUJUI_NUM"})
	for _, d := range models.Dimensions {
		t.Dimensions[d] = true
	}
	for _, r := range records {
		t.Rows = append(t.Rows, models.Row{Cells: []models.Cell{models.Missing}, Record: r})
	}
	return t
}

func rec(year, focus, program string, funds int64) models.Record {
	cell := func(s string) models.Cell {
		if s == "" {
			return models.Missing
		}
		return models.TextCell(s)
	}
	return models.Record{
		ProposalYear:  cell(year),
		ExecutionYear: cell(year),
		FocusArea:     cell(focus),
		GrantProgram:  cell(program),
		ApprovedFunds: funds,
	}
}

func labels(points []models.ChartPoint) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.Label
	}
	return out
}

func TestAggregate(t *testing.T) {
	table := recordTable(
		rec("2023", "Pangan", "Dasar", 5),
		rec("2022", "Energi", "Dasar", 10),
		rec("2023", "", "Terapan", 7),
		rec("", "Energi", "Dasar", 1),
	)

	points := Aggregate(table, models.DimensionProposalYear)
	assert.Equal(t, []models.ChartPoint{
		{Label: "2023", Value: 12, Rows: 2},
		{Label: "2022", Value: 10, Rows: 1},
	}, points)

	focus := Aggregate(table, models.DimensionFocusArea)
	assert.Equal(t, []models.ChartPoint{
		{Label: "Pangan", Value: 5, Rows: 1},
		{Label: "Energi", Value: 11, Rows: 2},
	}, focus)
}

func TestAggregate_AbsentDimension(t *testing.T) {
	table := recordTable(rec("2022", "Energi", "Dasar", 10))
	delete(table.Dimensions, models.DimensionGrantProgram)
	assert.Empty(t, Aggregate(table, models.DimensionGrantProgram))
}

func TestBuildCharts(t *testing.T) {
	table := recordTable(
		rec("2024", "Pangan", "Terapan", 3),
		rec("2022", "Energi", "Dasar", 10),
		rec("2023", "Kesehatan", "Dasar", 3),
		rec("2022", "Sosial", "Lanjutan", 8),
		rec("2023", "Energi", "Terapan", 1),
	)
	charts := BuildCharts(table, models.DefaultSchema())
	require.Len(t, charts, 4)

	bar, line, focus, program := charts[0], charts[1], charts[2], charts[3]

	assert.Equal(t, models.ChartMarkBar, bar.Mark)
	assert.True(t, bar.Ordinal)
	assert.Equal(t, []string{"2022", "2023", "2024"}, labels(bar.Points))
	assert.Equal(t, []int64{18, 4, 3}, []int64{bar.Points[0].Value, bar.Points[1].Value, bar.Points[2].Value})
	assert.Equal(t, int64(25), bar.Total)

	assert.Equal(t, models.ChartMarkLine, line.Mark)
	assert.True(t, line.PointMarker)
	assert.Equal(t, bar.Points, line.Points)

	// Pangan and Kesehatan tie at 3 and keep first-seen order
	assert.True(t, focus.Horizontal)
	assert.Equal(t, "BIDANG FOKUS", focus.Field)
	assert.Equal(t, []string{"Energi", "Sosial", "Pangan", "Kesehatan"}, labels(focus.Points))

	assert.Equal(t, "PROGRAM HIBAH", program.Field)
	assert.Equal(t, []string{"Dasar", "Lanjutan", "Terapan"}, labels(program.Points))
	for i := 1; i < len(program.Points); i++ {
		assert.GreaterOrEqual(t, program.Points[i-1].Value, program.Points[i].Value)
	}
}

func TestBuildCharts_Empty(t *testing.T) {
	charts := BuildCharts(recordTable(), models.DefaultSchema())
	require.Len(t, charts, 4)
	for _, c := range charts {
		assert.Empty(t, c.Points)
		assert.Zero(t, c.Total)
	}
}

func TestVegaLite(t *testing.T) {
	table := recordTable(
		rec("2022", "Energi", "Dasar", 10),
		rec("2023", "Pangan", "Dasar", 20),
	)
	charts := BuildCharts(table, models.DefaultSchema())

	spec := VegaLite(charts[1])
	_, err := json.Marshal(spec)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"type": "line", "point": true}, spec["mark"])

	enc := spec["encoding"].(map[string]interface{})
	x := enc["x"].(map[string]interface{})
	assert.Equal(t, "TAHUN USULAN KEGIATAN", x["field"])
	assert.Equal(t, "ordinal", x["type"])

	horizontal := VegaLite(charts[2])
	enc = horizontal["encoding"].(map[string]interface{})
	y := enc["y"].(map[string]interface{})
	assert.Equal(t, "BIDANG FOKUS", y["field"])
	assert.Equal(t, []string{"Pangan", "Energi"}, y["sort"])
	assert.Equal(t, "bar", horizontal["mark"])
}
