package parser

import (
	"sort"
	"strconv"
	"strings"

	"github.com/research-explorer/backend/internal/models"
)

// ApplyFilter returns the rows of t matching every non-empty categorical selection
// and the funds range. A selection on a dimension whose column is absent from t is
// ignored. The input table is never modified, and applying the same criteria to
// the result again yields the same rows.
func ApplyFilter(t *models.Table, c models.Criteria) *models.Table {
	type selection struct {
		dim    models.Dimension
		values map[string]struct{}
	}

	var active []selection
	for _, d := range models.Dimensions {
		vals := c.Selection(d)
		if len(vals) == 0 || !t.HasDimension(d) {
			continue
		}
		set := make(map[string]struct{}, len(vals))
		for _, v := range vals {
			set[v] = struct{}{}
		}
		active = append(active, selection{dim: d, values: set})
	}

	rows := make([]models.Row, 0, t.Len())
	for _, row := range t.Rows {
		if c.Funds != nil && !c.Funds.Contains(row.Record.ApprovedFunds) {
			continue
		}
		match := true
		for _, s := range active {
			v := row.Record.Dimension(s.dim)
			if !v.Valid {
				match = false
				break
			}
			if _, ok := s.values[v.Text]; !ok {
				match = false
				break
			}
		}
		if match {
			rows = append(rows, row)
		}
	}

	return t.WithRows(rows)
}

// FundsBounds returns the smallest and largest approved funds in t.
// An empty table has bounds [0, 0].
func FundsBounds(t *models.Table) (int64, int64) {
	if t.Len() == 0 {
		return 0, 0
	}
	lo := t.Rows[0].Record.ApprovedFunds
	hi := lo
	for _, row := range t.Rows[1:] {
		v := row.Record.ApprovedFunds
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// DistinctValues returns the distinct non-missing values of a dimension in natural order.
// A dimension whose column is absent yields an empty list.
func DistinctValues(t *models.Table, d models.Dimension) []string {
	values := make([]string, 0)
	if !t.HasDimension(d) {
		return values
	}
	seen := make(map[string]struct{})
	for _, row := range t.Rows {
		v := row.Record.Dimension(d)
		if !v.Valid {
			continue
		}
		if _, ok := seen[v.Text]; ok {
			continue
		}
		seen[v.Text] = struct{}{}
		values = append(values, v.Text)
	}
	SortNatural(values)
	return values
}

// BuildOptions collects the filter control values for t.
func BuildOptions(t *models.Table, schema *models.Schema) models.FilterOptions {
	opts := models.FilterOptions{
		Values: make(map[models.Dimension][]string, len(models.Dimensions)),
	}
	for _, d := range models.Dimensions {
		opts.Values[d] = DistinctValues(t, d)
	}
	lo, hi := FundsBounds(t)
	opts.Funds = models.FundsBounds{
		Min:   lo,
		Max:   hi,
		Step:  schema.RangeStep,
		Fixed: lo == hi,
	}
	return opts
}

// DefaultCriteria selects everything: no categorical selection and the full funds range.
func DefaultCriteria(t *models.Table) models.Criteria {
	lo, hi := FundsBounds(t)
	return models.Criteria{
		Selections: map[models.Dimension][]string{},
		Funds:      &models.FundsRange{Min: lo, Max: hi},
	}
}

// SortNatural sorts values numerically when both sides are numbers, numbers first,
// and lexically otherwise.
func SortNatural(values []string) {
	sort.SliceStable(values, func(i, j int) bool {
		return CompareNatural(values[i], values[j]) < 0
	})
}

// CompareNatural orders two category labels.
func CompareNatural(a, b string) int {
	fa, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	fb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	switch {
	case errA == nil && errB == nil:
		if fa < fb {
			return -1
		}
		if fa > fb {
			return 1
		}
		return strings.Compare(a, b)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}
