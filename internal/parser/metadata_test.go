package parser

import (
	"strings"
	"testing"
)

func TestExtractMetadataDefaults(t *testing.T) {
	md := ExtractMetadata("")
	if md.Duration != 60 {
		t.Errorf("duration = %d, want default 60", md.Duration)
	}
	if md.Title != "" || md.Subject != "" {
		t.Errorf("empty input should yield empty title/subject, got %+v", md)
	}
}

func TestExtractMetadataTitleHeuristic(t *testing.T) {
	md := ExtractMetadata("Math Test\n1. What is 2+2?")
	if md.Title != "Math Test" {
		t.Errorf("title = %q, want 'Math Test'", md.Title)
	}
	if md.Subject != "Math" {
		t.Errorf("subject = %q, want 'Math' (token before TEST marker)", md.Subject)
	}
}

func TestExtractMetadataFirstLineIsQuestion(t *testing.T) {
	md := ExtractMetadata("1. What is the first question?\nA. yes")
	if md.Title != "" {
		t.Errorf("title = %q, a question line must not become the title", md.Title)
	}
}

func TestExtractMetadataShortFirstLineSkipped(t *testing.T) {
	md := ExtractMetadata("Quiz\n1. Something")
	if md.Title != "" {
		t.Errorf("title = %q, lines of 5 chars or fewer are not title candidates", md.Title)
	}
}

func TestExtractMetadataDescriptionFromQuestionCount(t *testing.T) {
	md := ExtractMetadata("Physics Test with 40 questions\n1. q")
	if md.Description != "Exam with 40 questions" {
		t.Errorf("description = %q", md.Description)
	}
}

func TestExtractMetadataLabeledFieldsOverwrite(t *testing.T) {
	text := strings.Join([]string{
		"Biology Test for grade 10",
		"Title: Midterm Biology",
		"Subject: Biology",
		"Grade: 10",
		"Duration: 45",
	}, "\n")

	md := ExtractMetadata(text)
	if md.Title != "Midterm Biology" {
		t.Errorf("title = %q, labeled field must overwrite heuristic", md.Title)
	}
	if md.Subject != "Biology" {
		t.Errorf("subject = %q", md.Subject)
	}
	if md.GradeLevel != "10" {
		t.Errorf("grade_level = %q", md.GradeLevel)
	}
	if md.Duration != 45 {
		t.Errorf("duration = %d", md.Duration)
	}
}

func TestExtractMetadataVietnameseLabels(t *testing.T) {
	text := strings.Join([]string{
		"ĐỀ KIỂM TRA GIỮA KỲ",
		"Môn: Toán",
		"Lớp: 12",
		"Thời gian: 90",
	}, "\n")

	md := ExtractMetadata(text)
	if md.Subject != "Toán" {
		t.Errorf("subject = %q, want 'Toán'", md.Subject)
	}
	if md.GradeLevel != "12" {
		t.Errorf("grade_level = %q, want '12'", md.GradeLevel)
	}
	if md.Duration != 90 {
		t.Errorf("duration = %d, want 90", md.Duration)
	}
}

// Labeled fields are scanned over the first ten non-empty lines only.
func TestExtractMetadataScanWindow(t *testing.T) {
	lines := []string{"The Exam Document Header"}
	for i := 0; i < 10; i++ {
		lines = append(lines, "filler line")
	}
	lines = append(lines, "Duration: 45")

	md := ExtractMetadata(strings.Join(lines, "\n"))
	if md.Duration != 60 {
		t.Errorf("duration = %d, label outside the 10-line window must be ignored", md.Duration)
	}
}

// Last matching label wins when a field is labeled twice.
func TestExtractMetadataLastMatchWins(t *testing.T) {
	md := ExtractMetadata("Title: First\nTitle: Second")
	if md.Title != "Second" {
		t.Errorf("title = %q, want 'Second'", md.Title)
	}
}
