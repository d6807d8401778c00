package report

import (
	"sort"

	"github.com/research-explorer/backend/internal/models"
	"github.com/research-explorer/backend/internal/parser"
)

// Aggregate sums approved funds per value of a dimension. Groups appear in the order
// their value is first seen; rows with a missing value are not grouped.
func Aggregate(t *models.Table, d models.Dimension) []models.ChartPoint {
	points := make([]models.ChartPoint, 0)
	if !t.HasDimension(d) {
		return points
	}

	index := make(map[string]int)
	for _, row := range t.Rows {
		key := row.Record.Dimension(d)
		if !key.Valid {
			continue
		}
		i, ok := index[key.Text]
		if !ok {
			i = len(points)
			index[key.Text] = i
			points = append(points, models.ChartPoint{Label: key.Text})
		}
		points[i].Value += row.Record.ApprovedFunds
		points[i].Rows++
	}
	return points
}

// sortOrdinal orders points by label, numbers numerically.
func sortOrdinal(points []models.ChartPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		return parser.CompareNatural(points[i].Label, points[j].Label) < 0
	})
}

// sortDescending orders points by value, largest first. Ties keep first-seen order.
func sortDescending(points []models.ChartPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Value > points[j].Value
	})
}

func total(points []models.ChartPoint) int64 {
	var sum int64
	for _, p := range points {
		sum += p.Value
	}
	return sum
}

// BuildCharts builds the four summary charts over t: funds per proposal year as bars
// and as a line with point markers, then funds per focus area and per grant program
// as horizontal bars sorted by value.
func BuildCharts(t *models.Table, schema *models.Schema) []models.Chart {
	byYear := Aggregate(t, models.DimensionProposalYear)
	sortOrdinal(byYear)

	byFocus := Aggregate(t, models.DimensionFocusArea)
	sortDescending(byFocus)

	byProgram := Aggregate(t, models.DimensionGrantProgram)
	sortDescending(byProgram)

	yearLine := make([]models.ChartPoint, len(byYear))
	copy(yearLine, byYear)

	yearField := schema.ColumnFor(models.DimensionProposalYear)
	return []models.Chart{
		{
			ID:         "funds-by-year-bar",
			Title:      "Total Dana per Tahun Usulan",
			Mark:       models.ChartMarkBar,
			Dimension:  models.DimensionProposalYear,
			Field:      yearField,
			ValueField: schema.NormalizedColumn,
			Ordinal:    true,
			Points:     byYear,
			Total:      total(byYear),
		},
		{
			ID:          "funds-by-year-line",
			Title:       "Tren Dana per Tahun Usulan",
			Mark:        models.ChartMarkLine,
			PointMarker: true,
			Dimension:   models.DimensionProposalYear,
			Field:       yearField,
			ValueField:  schema.NormalizedColumn,
			Ordinal:     true,
			Points:      yearLine,
			Total:       total(yearLine),
		},
		{
			ID:         "funds-by-focus-area",
			Title:      "Dana per Bidang Fokus",
			Mark:       models.ChartMarkBar,
			Horizontal: true,
			Dimension:  models.DimensionFocusArea,
			Field:      schema.ColumnFor(models.DimensionFocusArea),
			ValueField: schema.NormalizedColumn,
			Points:     byFocus,
			Total:      total(byFocus),
		},
		{
			ID:         "funds-by-grant-program",
			Title:      "Dana per Program Hibah",
			Mark:       models.ChartMarkBar,
			Horizontal: true,
			Dimension:  models.DimensionGrantProgram,
			Field:      schema.ColumnFor(models.DimensionGrantProgram),
			ValueField: schema.NormalizedColumn,
			Points:     byProgram,
			Total:      total(byProgram),
		},
	}
}
