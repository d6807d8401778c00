package models

// ChartMark is the visual mark of a chart.
type ChartMark string

const (
	ChartMarkBar  ChartMark = "bar"
	ChartMarkLine ChartMark = "line"
)

// ChartPoint is one aggregated group.
type ChartPoint struct {
	Label string `json:"label" msgpack:"label"`
	Value int64  `json:"value" msgpack:"value"`
	Rows  int    `json:"rows" msgpack:"rows"`
}

// Chart is a chart aggregate plus the encoding hints the UI needs to draw it.
type Chart struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Mark        ChartMark    `json:"mark"`
	PointMarker bool         `json:"pointMarker,omitempty"`
	Horizontal  bool         `json:"horizontal,omitempty"`
	Dimension   Dimension    `json:"dimension"`
	Field       string       `json:"field"`      // category column label
	ValueField  string       `json:"valueField"` // summed column label
	Ordinal     bool         `json:"ordinal,omitempty"`
	Points      []ChartPoint `json:"points"`
	Total       int64        `json:"total"`
}
