package testutil

import (
	"fmt"
	"testing"

	"github.com/xuri/excelize/v2"
)

// ReportHeader is the header row of a typical grant report.
var ReportHeader = []string{
	"NO", "JUDUL", "BIDANG FOKUS", "PROGRAM HIBAH",
	"TAHUN USULAN KEGIATAN", "TAHUN PELAKSANAAN KEGIATAN", "DANA DISETUJUI",
}

// ReportWorkbook builds an xlsx laid out like the grant reports exported by the
// research office: four preamble rows, the header on row 5, data from row 6.
func ReportWorkbook(header []string, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	f.SetCellValue(sheet, "A1", "DAFTAR PENELITIAN")
	f.SetCellValue(sheet, "A2", "UNIVERSITAS NEGERI PADANG")
	f.SetCellValue(sheet, "A3", "Dicetak otomatis")

	hdr := make([]interface{}, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := f.SetSheetRow(sheet, "A5", &hdr); err != nil {
		return nil, err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, 6+i)
		if err != nil {
			return nil, err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MustReportWorkbook is ReportWorkbook that fails the test on error.
func MustReportWorkbook(t testing.TB, header []string, rows [][]interface{}) []byte {
	t.Helper()
	data, err := ReportWorkbook(header, rows)
	if err != nil {
		t.Fatalf("building workbook: %v", err)
	}
	return data
}

// GrantRow builds a data row matching ReportHeader.
func GrantRow(no int, focus, program string, proposalYear, executionYear int, funds interface{}) []interface{} {
	return []interface{}{
		no,
		fmt.Sprintf("Penelitian %d", no),
		focus,
		program,
		proposalYear,
		executionYear,
		funds,
	}
}
