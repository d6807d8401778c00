package parser

import (
	"testing"

	"github.com/research-explorer/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fundsOf(t *models.Table) []int64 {
	out := make([]int64, 0, t.Len())
	for _, r := range t.Rows {
		out = append(out, r.Record.ApprovedFunds)
	}
	return out
}

func TestApplyFilter_NoOp(t *testing.T) {
	merged := mergedFixture(t)

	filtered := ApplyFilter(merged, DefaultCriteria(merged))
	assert.Equal(t, merged.Rows, filtered.Rows)
	assert.Equal(t, merged.Columns, filtered.Columns)

	// Nil range and nil selections also select everything
	assert.Equal(t, merged.Rows, ApplyFilter(merged, models.Criteria{}).Rows)
}

func TestApplyFilter_CategoricalAnd(t *testing.T) {
	merged := mergedFixture(t)

	c := models.Criteria{Selections: map[models.Dimension][]string{
		models.DimensionFocusArea:    {"Kesehatan", "Pangan"},
		models.DimensionGrantProgram: {"Dasar"},
	}}
	filtered := ApplyFilter(merged, c)

	assert.Equal(t, []int64{10000000, 7500000}, fundsOf(filtered))
}

func TestApplyFilter_RangeBoundaries(t *testing.T) {
	merged := mergedFixture(t)

	c := models.Criteria{Funds: &models.FundsRange{Min: 7500000, Max: 15000000}}
	assert.Equal(t, []int64{10000000, 15000000, 7500000}, fundsOf(ApplyFilter(merged, c)))

	c.Funds = &models.FundsRange{Min: 7500001, Max: 14999999}
	assert.Equal(t, []int64{10000000}, fundsOf(ApplyFilter(merged, c)))
}

func TestApplyFilter_Idempotent(t *testing.T) {
	merged := mergedFixture(t)
	c := models.Criteria{
		Selections: map[models.Dimension][]string{models.DimensionProposalYear: {"2022", "2023"}},
		Funds:      &models.FundsRange{Min: 6000000, Max: 30000000},
	}

	once := ApplyFilter(merged, c)
	twice := ApplyFilter(once, c)
	assert.Equal(t, once.Rows, twice.Rows)
	assert.Equal(t, []int64{10000000, 25000000, 15000000}, fundsOf(once))
}

func TestApplyFilter_DoesNotMutateInput(t *testing.T) {
	merged := mergedFixture(t)
	n := merged.Len()
	first := merged.Rows[0]

	_ = ApplyFilter(merged, models.Criteria{Funds: &models.FundsRange{Min: 0, Max: 0}})

	assert.Equal(t, n, merged.Len())
	assert.Equal(t, first, merged.Rows[0])
}

func TestApplyFilter_AbsentColumnIsInert(t *testing.T) {
	schema := models.DefaultSchema()
	schema.HeaderRow = 1
	table, err := buildTable([][]string{{"DANA DISETUJUI"}, {"Rp. 1"}, {"Rp. 2"}}, schema)
	require.NoError(t, err)

	c := models.Criteria{Selections: map[models.Dimension][]string{
		models.DimensionFocusArea: {"Energi"},
	}}
	assert.Equal(t, 2, ApplyFilter(table, c).Len())
	assert.Empty(t, DistinctValues(table, models.DimensionFocusArea))
}

func TestApplyFilter_MissingValueNeverMatches(t *testing.T) {
	table := grantTable(t,
		[]string{"", "Dasar", "2022", "2022", "Rp. 1"},
		grant("Energi", "Dasar", "2022", "2022", 2),
	)
	c := models.Criteria{Selections: map[models.Dimension][]string{
		models.DimensionFocusArea: {"Energi", ""},
	}}
	assert.Equal(t, []int64{2}, fundsOf(ApplyFilter(table, c)))
}

func TestBuildOptions(t *testing.T) {
	merged := mergedFixture(t)
	opts := BuildOptions(merged, models.DefaultSchema())

	assert.Equal(t, []string{"2022", "2023", "2024"}, opts.Values[models.DimensionProposalYear])
	assert.Equal(t, []string{"2022", "2023", "2024", "2025"}, opts.Values[models.DimensionExecutionYear])
	assert.Equal(t, []string{"Energi", "Kesehatan", "Pangan"}, opts.Values[models.DimensionFocusArea])
	assert.Equal(t, []string{"Dasar", "Terapan"}, opts.Values[models.DimensionGrantProgram])

	assert.Equal(t, models.FundsBounds{Min: 5000000, Max: 25000000, Step: 1000000}, opts.Funds)
}

func TestBuildOptions_CollapsedRange(t *testing.T) {
	table := grantTable(t,
		grant("Energi", "Dasar", "2022", "2022", 3000000),
		grant("Pangan", "Dasar", "2023", "2022", 3000000),
	)
	opts := BuildOptions(table, models.DefaultSchema())
	assert.True(t, opts.Funds.Fixed)
	assert.Equal(t, int64(3000000), opts.Funds.Min)
	assert.Equal(t, int64(3000000), opts.Funds.Max)

	// A collapsed range matches every row holding exactly that value
	assert.Equal(t, 2, ApplyFilter(table, DefaultCriteria(table)).Len())
}

func TestBuildOptions_EmptyTable(t *testing.T) {
	table := grantTable(t)
	opts := BuildOptions(table, models.DefaultSchema())
	assert.Equal(t, models.FundsBounds{Step: 1000000, Fixed: true}, opts.Funds)
	assert.Empty(t, opts.Values[models.DimensionFocusArea])
}

func TestSortNatural(t *testing.T) {
	values := []string{"2023", "Lainnya", "10", "2022", "9", "Alpha"}
	SortNatural(values)
	assert.Equal(t, []string{"9", "10", "2022", "2023", "Alpha", "Lainnya"}, values)
}
