package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleStudent is a student user role.
	UserRoleStudent UserRole = "student"
	// UserRoleTeacher is a teacher user role.
	UserRoleTeacher UserRole = "teacher"
	// UserRoleAdmin is an admin user role.
	UserRoleAdmin UserRole = "admin"
)

// User represents a system user.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// QuestionType classifies a stored exam question.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice_single"
	QuestionEssay          QuestionType = "essay"
)

// ExamStatus represents the lifecycle state of an exam.
type ExamStatus string

const (
	ExamDraft     ExamStatus = "draft"
	ExamPublished ExamStatus = "published"
	ExamArchived  ExamStatus = "archived"
)

// Exam is an authored exam.
type Exam struct {
	ID          int64      `json:"id"`
	PublicID    string     `json:"public_id"`
	OwnerID     int64      `json:"owner_id"`
	Title       string     `json:"title"`
	Subject     string     `json:"subject"`
	GradeLevel  string     `json:"grade_level"`
	Description string     `json:"description"`
	Duration    int        `json:"duration"` // minutes
	Status      ExamStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Question is one question belonging to an exam. Options are stored in
// display order; CorrectAnswer indexes into Options for objective questions
// and is 0 for essays.
type Question struct {
	ID            int64        `json:"id"`
	ExamID        int64        `json:"exam_id"`
	Position      int          `json:"position"`
	Text          string       `json:"question_text"`
	Type          QuestionType `json:"question_type"`
	Options       []string     `json:"options"`
	CorrectAnswer int          `json:"correct_answer"`
	Explanation   string       `json:"explanation"`
	ImageURL      *string      `json:"image_url"`
	Points        float64      `json:"points"`
}

// SubmissionStatus represents the grading state of a submission.
type SubmissionStatus string

const (
	// SubmissionGraded means all questions were auto-graded.
	SubmissionGraded SubmissionStatus = "graded"
	// SubmissionPendingReview means one or more essays await manual grading.
	SubmissionPendingReview SubmissionStatus = "pending_review"
)

// Submission is a student's completed attempt at an exam.
type Submission struct {
	ID          int64            `json:"id"`
	ExamID      int64            `json:"exam_id"`
	StudentID   int64            `json:"student_id"`
	Status      SubmissionStatus `json:"status"`
	Score       float64          `json:"score"`
	MaxScore    float64          `json:"max_score"`
	StartedAt   time.Time        `json:"started_at"`
	SubmittedAt time.Time        `json:"submitted_at"`
}

// Answer is one answer within a submission. SelectedOption is -1 when the
// student left an objective question blank or the question is an essay.
type Answer struct {
	ID             int64   `json:"id"`
	SubmissionID   int64   `json:"submission_id"`
	QuestionID     int64   `json:"question_id"`
	SelectedOption int     `json:"selected_option"`
	EssayText      string  `json:"essay_text"`
	Score          float64 `json:"score"`
	Feedback       string  `json:"feedback"`
	Graded         bool    `json:"graded"`
}

// SubmissionView combines a submission with its answers for display.
type SubmissionView struct {
	Submission Submission `json:"submission"`
	Answers    []Answer   `json:"answers"`
}

// LeaderboardEntry is one row of the student ranking.
type LeaderboardEntry struct {
	Rank           int     `json:"rank"`
	UserID         int64   `json:"user_id"`
	DisplayName    string  `json:"display_name"`
	ExamsTaken     int     `json:"exams_taken"`
	TotalScore     float64 `json:"total_score"`
	AveragePercent float64 `json:"average_percent"`
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	UploadsDir    string // root for temp uploads and extracted images
	MaxUploadSize int64  // bytes
	CORSOrigins   []string
	SecureCookies bool
	ReviewEssays  bool // enable LLM-assisted essay review on submission
}

// ExamImport is used for seeding exams from JSON files.
type ExamImport struct {
	Title       string           `json:"title"`
	Subject     string           `json:"subject"`
	GradeLevel  string           `json:"grade_level"`
	Description string           `json:"description"`
	Duration    int              `json:"duration"`
	Questions   []QuestionImport `json:"questions"`
}

// QuestionImport is one question inside an ExamImport file.
type QuestionImport struct {
	Text          string       `json:"question_text"`
	Type          QuestionType `json:"question_type"`
	Options       []string     `json:"options"`
	CorrectAnswer int          `json:"correct_answer"`
	Explanation   string       `json:"explanation"`
	Points        float64      `json:"points"`
}
