package models

// Dimension names a categorical filter column.
type Dimension string

const (
	DimensionProposalYear  Dimension = "proposalYear"
	DimensionExecutionYear Dimension = "executionYear"
	DimensionFocusArea     Dimension = "focusArea"
	DimensionGrantProgram  Dimension = "grantProgram"
)

// Dimensions lists the categorical dimensions in display order.
var Dimensions = []Dimension{
	DimensionProposalYear,
	DimensionExecutionYear,
	DimensionFocusArea,
	DimensionGrantProgram,
}

// IsValid reports whether d is a known dimension.
func (d Dimension) IsValid() bool {
	for _, known := range Dimensions {
		if d == known {
			return true
		}
	}
	return false
}

// FundsRange is an inclusive range over the normalized approved funds.
type FundsRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// Contains reports whether v lies within the range, bounds included.
func (r FundsRange) Contains(v int64) bool {
	return v >= r.Min && v <= r.Max
}

// Criteria is the conjunction of categorical selections and a funds range.
// An empty selection imposes no constraint; a nil Funds range is unrestricted.
type Criteria struct {
	Selections map[Dimension][]string `json:"selections,omitempty"`
	Funds      *FundsRange            `json:"funds,omitempty"`
}

// Selection returns the selected values for a dimension.
func (c Criteria) Selection(d Dimension) []string {
	if c.Selections == nil {
		return nil
	}
	return c.Selections[d]
}

// FundsBounds describes the funds range control.
type FundsBounds struct {
	Min   int64 `json:"min"`
	Max   int64 `json:"max"`
	Step  int64 `json:"step"`
	Fixed bool  `json:"fixed"` // min == max; the range cannot be adjusted
}

// FilterOptions holds the values the UI offers for each control.
type FilterOptions struct {
	Values map[Dimension][]string `json:"values"`
	Funds  FundsBounds            `json:"funds"`
}
