package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Renders a run's CSV ledgers into a reviewable Excel workbook with a
// Summary sheet and one sheet per ledger.
func main() {
	var inDir, outPath string
	flag.StringVar(&inDir, "in", "logs", "Folder holding success.csv and failures.csv")
	flag.StringVar(&outPath, "out", "upload_report.xlsx", "Workbook to write")
	flag.Parse()

	success := readLedger(filepath.Join(inDir, "success.csv"))
	failures := readLedger(filepath.Join(inDir, "failures.csv"))

	if err := writeWorkbook(outPath, success, failures); err != nil {
		log.Fatalf("write report: %v", err)
	}
	log.Printf("Report written to %s", outPath)
}

func readLedger(path string) [][]string {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("Warning: %s not readable (%v), treating as empty", path, err)
		return nil
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		log.Printf("Warning: %s unparsable (%v), treating as empty", path, err)
		return nil
	}
	return records
}

func writeWorkbook(outPath string, success, failures [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if !strings.HasSuffix(strings.ToLower(outPath), ".xlsx") {
		outPath += ".xlsx"
	}

	summarySheet := "Summary"
	successSheet := "Uploaded"
	failuresSheet := "Failures"

	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(successSheet)
	f.NewSheet(failuresSheet)

	if err := fillSummary(f, summarySheet, success, failures); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := fillLedger(f, successSheet, success); err != nil {
		return fmt.Errorf("failed to create uploaded sheet: %w", err)
	}
	if err := fillLedger(f, failuresSheet, failures); err != nil {
		return fmt.Errorf("failed to create failures sheet: %w", err)
	}

	return f.SaveAs(filepath.Clean(outPath))
}

func fillSummary(f *excelize.File, sheetName string, success, failures [][]string) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return err
	}

	f.SetCellValue(sheetName, "A1", "Resume Upload Report")
	f.MergeCell(sheetName, "A1", "B1")
	f.SetCellStyle(sheetName, "A1", "B1", headerStyle)

	rows := [][2]interface{}{
		{"Generated", time.Now().Format("2006-01-02 15:04:05")},
		{"Uploaded", dataRows(success)},
		{"Failures", dataRows(failures)},
		{"Jobs seen", distinctJobs(success, failures)},
	}
	for i, r := range rows {
		cellA := fmt.Sprintf("A%d", i+3)
		cellB := fmt.Sprintf("B%d", i+3)
		f.SetCellValue(sheetName, cellA, r[0])
		f.SetCellStyle(sheetName, cellA, cellA, labelStyle)
		f.SetCellValue(sheetName, cellB, r[1])
	}

	f.SetColWidth(sheetName, "A", "A", 20)
	f.SetColWidth(sheetName, "B", "B", 30)
	return nil
}

func fillLedger(f *excelize.File, sheetName string, records [][]string) error {
	if len(records) == 0 {
		f.SetCellValue(sheetName, "A1", "no records")
		return nil
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	for rowIdx, row := range records {
		for colIdx, val := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return err
			}
			f.SetCellValue(sheetName, cell, val)
		}
	}

	last, err := excelize.CoordinatesToCellName(len(records[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheetName, "A1", last, headerStyle)
}

func dataRows(records [][]string) int {
	if len(records) < 2 {
		return 0
	}
	return len(records) - 1
}

// distinctJobs counts unique job_id values across both ledgers. The job_id
// column sits at index 2 in both schemas.
func distinctJobs(ledgers ...[][]string) int {
	seen := map[string]bool{}
	for _, records := range ledgers {
		for i, row := range records {
			if i == 0 || len(row) < 3 {
				continue
			}
			seen[row[2]] = true
		}
	}
	return len(seen)
}
