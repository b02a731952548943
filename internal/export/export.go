// Package export writes exam results to JSON or XLSX files.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/prepexam/prepexam/internal/model"
)

// JSON writes the results as indented JSON.
func JSON(w io.Writer, results *model.ResultsExport) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, err = fmt.Fprintln(w)
	return err
}

// XLSX writes an .xlsx workbook with one sheet per exam and a final
// leaderboard sheet.
func XLSX(path string, results *model.ResultsExport) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, exam := range results.Exams {
		sheet := sheetName(exam, i)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return fmt.Errorf("create sheet %q: %w", sheet, err)
			}
		}

		header := []any{"Username", "Display Name", "Status", "Score", "Max Score", "Percent", "Submitted At"}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		for j, sub := range exam.Submissions {
			cell, err := excelize.CoordinatesToCellName(1, j+2)
			if err != nil {
				return err
			}
			row := []any{
				sub.Username, sub.DisplayName, string(sub.Status),
				sub.Score, sub.MaxScore, sub.Percent,
				sub.SubmittedAt.Format("2006-01-02 15:04"),
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
	}

	lbSheet := "Leaderboard"
	if len(results.Exams) == 0 {
		if err := f.SetSheetName("Sheet1", lbSheet); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	} else if _, err := f.NewSheet(lbSheet); err != nil {
		return fmt.Errorf("create leaderboard sheet: %w", err)
	}
	lbHeader := []any{"Rank", "Student", "Exams Taken", "Total Score", "Average %"}
	if err := f.SetSheetRow(lbSheet, "A1", &lbHeader); err != nil {
		return fmt.Errorf("write leaderboard header: %w", err)
	}
	for i, e := range results.Leaderboard {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{e.Rank, e.DisplayName, e.ExamsTaken, e.TotalScore, e.AveragePercent}
		if err := f.SetSheetRow(lbSheet, cell, &row); err != nil {
			return fmt.Errorf("write leaderboard row: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// sheetName builds a sheet name within Excel's 31-character limit, unique
// per exam.
func sheetName(exam model.ExamResults, idx int) string {
	name := fmt.Sprintf("%d - %s", exam.ExamID, exam.Title)
	if runes := []rune(name); len(runes) > 31 {
		name = string(runes[:31])
	}
	if name == "" {
		name = fmt.Sprintf("Exam %d", idx+1)
	}
	return name
}
