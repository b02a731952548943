package export

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/prepexam/prepexam/internal/model"
)

func sampleResults() *model.ResultsExport {
	return &model.ResultsExport{
		GeneratedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Exams: []model.ExamResults{
			{
				ExamID:  1,
				Title:   "Algebra Midterm",
				Subject: "Math",
				Submissions: []model.SubmissionResult{
					{
						Username: "an.nguyen", DisplayName: "Nguyễn Văn An",
						Status: model.SubmissionGraded, Score: 8, MaxScore: 10, Percent: 80,
						SubmittedAt: time.Date(2026, 2, 28, 9, 30, 0, 0, time.UTC),
					},
				},
			},
		},
		Leaderboard: []model.LeaderboardEntry{
			{Rank: 1, UserID: 2, DisplayName: "Nguyễn Văn An", ExamsTaken: 1, TotalScore: 8, AveragePercent: 80},
		},
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleResults()); err != nil {
		t.Fatalf("JSON: %v", err)
	}

	var decoded model.ResultsExport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded.Exams) != 1 || decoded.Exams[0].Title != "Algebra Midterm" {
		t.Errorf("decoded exams = %+v", decoded.Exams)
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("output must end with a newline")
	}
}

func TestXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")
	if err := XLSX(path, sampleResults()); err != nil {
		t.Fatalf("XLSX: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 {
		t.Fatalf("sheets = %v, want exam sheet plus leaderboard", sheets)
	}

	got, err := f.GetCellValue(sheets[0], "A2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if got != "an.nguyen" {
		t.Errorf("A2 = %q, want username in first data row", got)
	}

	lb, err := f.GetCellValue("Leaderboard", "B2")
	if err != nil {
		t.Fatalf("read leaderboard cell: %v", err)
	}
	if lb != "Nguyễn Văn An" {
		t.Errorf("Leaderboard B2 = %q", lb)
	}
}

func TestXLSXNoExams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	if err := XLSX(path, &model.ResultsExport{}); err != nil {
		t.Fatalf("XLSX: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != "Leaderboard" {
		t.Errorf("sheets = %v, want only Leaderboard", sheets)
	}
}

func TestSheetNameTruncation(t *testing.T) {
	name := sheetName(model.ExamResults{
		ExamID: 7,
		Title:  strings.Repeat("Đề thi học kỳ ", 10),
	}, 0)
	if got := len([]rune(name)); got > 31 {
		t.Errorf("sheet name length = %d runes, Excel caps at 31", got)
	}
}
