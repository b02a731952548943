package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Metadata is the exam header information recovered from a document.
type Metadata struct {
	Title       string `json:"title"`
	Subject     string `json:"subject"`
	GradeLevel  string `json:"grade_level"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
}

const (
	defaultDuration   = 60
	metadataScanLines = 10
)

var (
	subjectMarkerRe = regexp.MustCompile(`(?i)^(.+?)\s+(?:TEST|ĐỀ\s*THI|KIỂM\s*TRA)\b`)
	countMarkerRe   = regexp.MustCompile(`(?i)(\d+)\s*(?:QUESTIONS|MULTIPLE[- ]CHOICE|CÂU)\b`)

	titleLabelRe    = regexp.MustCompile(`(?i)^(?:title|tiêu\s*đề)\s*:\s*(.+)$`)
	subjectLabelRe  = regexp.MustCompile(`(?i)^(?:subject|môn(?:\s*học)?)\s*:\s*(.+)$`)
	gradeLabelRe    = regexp.MustCompile(`(?i)^(?:grade|lớp|khối)\s*:\s*(.+)$`)
	durationLabelRe = regexp.MustCompile(`(?i)^(?:duration|time\s*limit|thời\s*gian)\s*:\s*(\d+)`)
)

// ExtractMetadata scans the document header for exam metadata. The first
// non-empty line seeds title, subject, and description heuristically when it
// does not look like a question; explicit labeled fields found in the first
// ten non-empty lines then overwrite those guesses, last match winning.
// Duration defaults to 60 minutes.
func ExtractMetadata(rawText string) Metadata {
	md := Metadata{Duration: defaultDuration}

	var lines []string
	for _, l := range strings.Split(rawText, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
		if len(lines) == metadataScanLines {
			break
		}
	}
	if len(lines) == 0 {
		return md
	}

	first := lines[0]
	if utf8.RuneCountInString(first) > 5 && !questionHeaderRe.MatchString(first) {
		md.Title = first
		if m := subjectMarkerRe.FindStringSubmatch(first); m != nil {
			md.Subject = strings.TrimSpace(m[1])
		}
		if m := countMarkerRe.FindStringSubmatch(first); m != nil {
			md.Description = fmt.Sprintf("Exam with %s questions", m[1])
		}
	}

	for _, l := range lines {
		if m := titleLabelRe.FindStringSubmatch(l); m != nil {
			md.Title = strings.TrimSpace(m[1])
		}
		if m := subjectLabelRe.FindStringSubmatch(l); m != nil {
			md.Subject = strings.TrimSpace(m[1])
		}
		if m := gradeLabelRe.FindStringSubmatch(l); m != nil {
			md.GradeLevel = strings.TrimSpace(m[1])
		}
		if m := durationLabelRe.FindStringSubmatch(l); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				md.Duration = n
			}
		}
	}

	return md
}
