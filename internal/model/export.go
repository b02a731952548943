package model

import "time"

// ResultsExport is the top-level structure for exam results export.
type ResultsExport struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Exams       []ExamResults      `json:"exams"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// ExamResults holds one exam's submissions for export.
type ExamResults struct {
	ExamID      int64              `json:"exam_id"`
	PublicID    string             `json:"public_id"`
	Title       string             `json:"title"`
	Subject     string             `json:"subject"`
	Submissions []SubmissionResult `json:"submissions"`
}

// SubmissionResult holds one student's submission data for export.
type SubmissionResult struct {
	Username    string           `json:"username"`
	DisplayName string           `json:"display_name"`
	Status      SubmissionStatus `json:"status"`
	Score       float64          `json:"score"`
	MaxScore    float64          `json:"max_score"`
	Percent     float64          `json:"percent"`
	SubmittedAt time.Time        `json:"submitted_at"`
}
