package models

// Schema describes the expected layout of an uploaded spreadsheet.
type Schema struct {
	HeaderRow        int           `json:"headerRow" yaml:"header_row"` // 1-based
	Sheet            string        `json:"sheet,omitempty" yaml:"sheet,omitempty"`
	CurrencyColumn   string        `json:"currencyColumn" yaml:"currency_column"`
	NormalizedColumn string        `json:"normalizedColumn" yaml:"normalized_column"`
	SourceColumn     string        `json:"sourceColumn" yaml:"source_column"`
	RequiredColumns  []string      `json:"requiredColumns" yaml:"required_columns"`
	Columns          SchemaColumns `json:"columns" yaml:"columns"`
	RangeStep        int64         `json:"rangeStep" yaml:"range_step"`
	ExportSheet      string        `json:"exportSheet" yaml:"export_sheet"`
}

// SchemaColumns maps each categorical dimension to its header label.
type SchemaColumns struct {
	ProposalYear  string `json:"proposalYear" yaml:"proposal_year"`
	ExecutionYear string `json:"executionYear" yaml:"execution_year"`
	FocusArea     string `json:"focusArea" yaml:"focus_area"`
	GrantProgram  string `json:"grantProgram" yaml:"grant_program"`
}

// DefaultSchema returns the layout of the university research grant reports.
func DefaultSchema() *Schema {
	return &Schema{
		HeaderRow:        5,
		CurrencyColumn:   "DANA DISETUJUI",
		NormalizedColumn: "DANA_DISETUJUI_NUM",
		SourceColumn:     "FILE_SUMBER",
		RequiredColumns:  []string{"DANA DISETUJUI"},
		Columns: SchemaColumns{
			ProposalYear:  "TAHUN USULAN KEGIATAN",
			ExecutionYear: "TAHUN PELAKSANAAN KEGIATAN",
			FocusArea:     "BIDANG FOKUS",
			GrantProgram:  "PROGRAM HIBAH",
		},
		RangeStep:   1000000,
		ExportSheet: "Data",
	}
}

// ColumnFor returns the header label bound to a dimension.
func (s *Schema) ColumnFor(d Dimension) string {
	switch d {
	case DimensionProposalYear:
		return s.Columns.ProposalYear
	case DimensionExecutionYear:
		return s.Columns.ExecutionYear
	case DimensionFocusArea:
		return s.Columns.FocusArea
	case DimensionGrantProgram:
		return s.Columns.GrantProgram
	}
	return ""
}
