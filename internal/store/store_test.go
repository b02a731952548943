package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/prepexam/prepexam/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestUser(t *testing.T, s *Store, username string, role model.UserRole) int64 {
	t.Helper()
	id, err := s.CreateUser(model.User{
		Username:     username,
		DisplayName:  "Test " + username,
		PasswordHash: "x",
		Role:         role,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("createTestUser: %v", err)
	}
	return id
}

func createTestExam(t *testing.T, s *Store, ownerID int64, status model.ExamStatus) int64 {
	t.Helper()
	img := "/uploads/images/abc.png"
	id, err := s.CreateExam(model.Exam{
		PublicID:   "pub-" + string(status),
		OwnerID:    ownerID,
		Title:      "Algebra Midterm",
		Subject:    "Math",
		GradeLevel: "10",
		Duration:   45,
		Status:     status,
	}, []model.Question{
		{
			Text:          "What is 2+2?",
			Type:          model.QuestionMultipleChoice,
			Options:       []string{"3", "4", "5", "6"},
			CorrectAnswer: 1,
			ImageURL:      &img,
			Points:        2,
		},
		{
			Text:   "Explain why 0.999... equals 1.",
			Type:   model.QuestionEssay,
			Points: 3,
		},
	})
	if err != nil {
		t.Fatalf("createTestExam: %v", err)
	}
	return id
}

func TestUserCRUD(t *testing.T) {
	s := newTestStore(t)

	count, err := s.UserCount()
	if err != nil {
		t.Fatalf("UserCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 users, got %d", count)
	}

	id := createTestUser(t, s, "teacher1", model.UserRoleTeacher)

	u, err := s.GetUserByUsername("teacher1")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u == nil || u.ID != id || u.Role != model.UserRoleTeacher {
		t.Errorf("unexpected user %+v", u)
	}

	// Missing users come back as nil without an error.
	u, err = s.GetUserByUsername("nobody")
	if err != nil {
		t.Fatalf("GetUserByUsername(nobody): %v", err)
	}
	if u != nil {
		t.Errorf("expected nil for missing user, got %+v", u)
	}

	if err := s.ToggleUserActive(id); err != nil {
		t.Fatalf("ToggleUserActive: %v", err)
	}
	u, err = s.GetUserByID(id)
	if err != nil || u == nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if u.Active {
		t.Error("expected user to be inactive after toggle")
	}
}

func TestAuthSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	id := createTestUser(t, s, "student1", model.UserRoleStudent)

	token, err := s.CreateAuthSession(id)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}

	sess, err := s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess == nil || sess.UserID != id {
		t.Fatalf("unexpected session %+v", sess)
	}

	if err := s.DeleteAuthSession(token); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	sess, err = s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession after delete: %v", err)
	}
	if sess != nil {
		t.Error("expected nil session after delete")
	}
}

func TestExamRoundtrip(t *testing.T) {
	s := newTestStore(t)
	owner := createTestUser(t, s, "teacher1", model.UserRoleTeacher)
	examID := createTestExam(t, s, owner, model.ExamDraft)

	exam, err := s.GetExam(examID)
	if err != nil {
		t.Fatalf("GetExam: %v", err)
	}
	if exam.Title != "Algebra Midterm" || exam.Duration != 45 {
		t.Errorf("unexpected exam %+v", exam)
	}

	questions, err := s.GetQuestionsForExam(examID)
	if err != nil {
		t.Fatalf("GetQuestionsForExam: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if questions[0].Position != 1 || questions[1].Position != 2 {
		t.Errorf("positions = %d, %d", questions[0].Position, questions[1].Position)
	}
	if len(questions[0].Options) != 4 || questions[0].Options[1] != "4" {
		t.Errorf("options did not roundtrip: %v", questions[0].Options)
	}
	if questions[0].ImageURL == nil || *questions[0].ImageURL != "/uploads/images/abc.png" {
		t.Errorf("image URL did not roundtrip: %v", questions[0].ImageURL)
	}
	if questions[1].ImageURL != nil {
		t.Errorf("essay image URL should stay nil, got %v", *questions[1].ImageURL)
	}
	if questions[1].Options != nil && len(questions[1].Options) != 0 {
		t.Errorf("essay options = %v", questions[1].Options)
	}
}

func TestListExamsFilters(t *testing.T) {
	s := newTestStore(t)
	t1 := createTestUser(t, s, "teacher1", model.UserRoleTeacher)
	t2 := createTestUser(t, s, "teacher2", model.UserRoleTeacher)
	createTestExam(t, s, t1, model.ExamDraft)
	createTestExam(t, s, t1, model.ExamPublished)
	createTestExam(t, s, t2, model.ExamArchived)

	all, err := s.ListExams(0, "")
	if err != nil {
		t.Fatalf("ListExams: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all exams = %d, want 3", len(all))
	}

	mine, err := s.ListExams(t1, "")
	if err != nil {
		t.Fatalf("ListExams(owner): %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("owner exams = %d, want 2", len(mine))
	}

	published, err := s.ListExams(0, model.ExamPublished)
	if err != nil {
		t.Fatalf("ListExams(published): %v", err)
	}
	if len(published) != 1 || published[0].Status != model.ExamPublished {
		t.Errorf("published exams = %+v", published)
	}
}

func TestDeleteExamCascades(t *testing.T) {
	s := newTestStore(t)
	owner := createTestUser(t, s, "teacher1", model.UserRoleTeacher)
	student := createTestUser(t, s, "student1", model.UserRoleStudent)
	examID := createTestExam(t, s, owner, model.ExamPublished)

	questions, err := s.GetQuestionsForExam(examID)
	if err != nil {
		t.Fatalf("GetQuestionsForExam: %v", err)
	}
	subID, err := s.CreateSubmission(model.Submission{
		ExamID:      examID,
		StudentID:   student,
		Status:      model.SubmissionGraded,
		Score:       2,
		MaxScore:    5,
		StartedAt:   time.Now(),
		SubmittedAt: time.Now(),
	}, []model.Answer{
		{QuestionID: questions[0].ID, SelectedOption: 1, Score: 2, Graded: true},
	})
	if err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}

	if err := s.DeleteExam(examID); err != nil {
		t.Fatalf("DeleteExam: %v", err)
	}

	if _, err := s.GetExam(examID); err != sql.ErrNoRows {
		t.Errorf("GetExam after delete: %v, want ErrNoRows", err)
	}
	if _, err := s.GetSubmission(subID); err != sql.ErrNoRows {
		t.Errorf("GetSubmission after delete: %v, want ErrNoRows", err)
	}
	remaining, err := s.GetQuestionsForExam(examID)
	if err != nil {
		t.Fatalf("GetQuestionsForExam after delete: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("questions left after delete: %d", len(remaining))
	}
}

func TestGradeAnswerFlipsSubmission(t *testing.T) {
	s := newTestStore(t)
	owner := createTestUser(t, s, "teacher1", model.UserRoleTeacher)
	student := createTestUser(t, s, "student1", model.UserRoleStudent)
	examID := createTestExam(t, s, owner, model.ExamPublished)

	questions, err := s.GetQuestionsForExam(examID)
	if err != nil {
		t.Fatalf("GetQuestionsForExam: %v", err)
	}

	// Objective question graded, essay pending.
	subID, err := s.CreateSubmission(model.Submission{
		ExamID:      examID,
		StudentID:   student,
		Status:      model.SubmissionPendingReview,
		Score:       2,
		MaxScore:    5,
		StartedAt:   time.Now(),
		SubmittedAt: time.Now(),
	}, []model.Answer{
		{QuestionID: questions[0].ID, SelectedOption: 1, Score: 2, Graded: true},
		{QuestionID: questions[1].ID, SelectedOption: -1, EssayText: "Because the limit is 1.", Graded: false},
	})
	if err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}

	answers, err := s.GetAnswersForSubmission(subID)
	if err != nil {
		t.Fatalf("GetAnswersForSubmission: %v", err)
	}
	if len(answers) != 2 {
		t.Fatalf("answers = %d, want 2", len(answers))
	}

	essayAnswer := answers[1]
	if err := s.GradeAnswer(essayAnswer.ID, 2.5, "Good reasoning."); err != nil {
		t.Fatalf("GradeAnswer: %v", err)
	}

	sub, err := s.GetSubmission(subID)
	if err != nil {
		t.Fatalf("GetSubmission: %v", err)
	}
	if sub.Status != model.SubmissionGraded {
		t.Errorf("status = %q, want graded once no ungraded answers remain", sub.Status)
	}
	if sub.Score != 4.5 {
		t.Errorf("score = %v, want recomputed 4.5", sub.Score)
	}

	graded, err := s.FindAnswer(essayAnswer.ID)
	if err != nil {
		t.Fatalf("FindAnswer: %v", err)
	}
	if !graded.Graded || graded.Score != 2.5 || graded.Feedback != "Good reasoning." {
		t.Errorf("graded answer = %+v", graded)
	}
}

func TestSubmissionExists(t *testing.T) {
	s := newTestStore(t)
	owner := createTestUser(t, s, "teacher1", model.UserRoleTeacher)
	student := createTestUser(t, s, "student1", model.UserRoleStudent)
	examID := createTestExam(t, s, owner, model.ExamPublished)

	exists, err := s.SubmissionExists(examID, student)
	if err != nil {
		t.Fatalf("SubmissionExists: %v", err)
	}
	if exists {
		t.Error("expected no submission yet")
	}

	if _, err := s.CreateSubmission(model.Submission{
		ExamID: examID, StudentID: student, Status: model.SubmissionGraded,
		StartedAt: time.Now(), SubmittedAt: time.Now(),
	}, nil); err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}

	exists, err = s.SubmissionExists(examID, student)
	if err != nil {
		t.Fatalf("SubmissionExists: %v", err)
	}
	if !exists {
		t.Error("expected submission to exist")
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	s := newTestStore(t)
	owner := createTestUser(t, s, "teacher1", model.UserRoleTeacher)
	alice := createTestUser(t, s, "alice", model.UserRoleStudent)
	bob := createTestUser(t, s, "bob", model.UserRoleStudent)
	examID := createTestExam(t, s, owner, model.ExamPublished)

	submit := func(student int64, score float64, status model.SubmissionStatus) {
		t.Helper()
		if _, err := s.CreateSubmission(model.Submission{
			ExamID: examID, StudentID: student, Status: status,
			Score: score, MaxScore: 5,
			StartedAt: time.Now(), SubmittedAt: time.Now(),
		}, nil); err != nil {
			t.Fatalf("CreateSubmission: %v", err)
		}
	}

	submit(alice, 3, model.SubmissionGraded)
	submit(bob, 5, model.SubmissionGraded)

	entries, err := s.Leaderboard(10)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].DisplayName != "Test bob" || entries[0].Rank != 1 {
		t.Errorf("first entry = %+v, want bob ranked 1", entries[0])
	}
	if entries[1].DisplayName != "Test alice" || entries[1].Rank != 2 {
		t.Errorf("second entry = %+v", entries[1])
	}
	if entries[0].TotalScore != 5 || entries[0].AveragePercent != 100 {
		t.Errorf("bob totals = %+v", entries[0])
	}
}

func TestLeaderboardIgnoresPendingAndTeachers(t *testing.T) {
	s := newTestStore(t)
	owner := createTestUser(t, s, "teacher1", model.UserRoleTeacher)
	student := createTestUser(t, s, "student1", model.UserRoleStudent)
	examID := createTestExam(t, s, owner, model.ExamPublished)

	// Pending submissions do not count.
	if _, err := s.CreateSubmission(model.Submission{
		ExamID: examID, StudentID: student, Status: model.SubmissionPendingReview,
		Score: 2, MaxScore: 5,
		StartedAt: time.Now(), SubmittedAt: time.Now(),
	}, nil); err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}

	entries, err := s.Leaderboard(10)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %+v, want none for pending submissions", entries)
	}
}

func TestImportedFileHash(t *testing.T) {
	s := newTestStore(t)

	hash, err := s.GetImportedFileHash("exams/math.json")
	if err != nil {
		t.Fatalf("GetImportedFileHash: %v", err)
	}
	if hash != "" {
		t.Errorf("expected empty hash for unknown file, got %q", hash)
	}

	if err := s.SetImportedFileHash("exams/math.json", "abc123"); err != nil {
		t.Fatalf("SetImportedFileHash: %v", err)
	}
	hash, err = s.GetImportedFileHash("exams/math.json")
	if err != nil {
		t.Fatalf("GetImportedFileHash: %v", err)
	}
	if hash != "abc123" {
		t.Errorf("hash = %q, want abc123", hash)
	}

	// Overwrite.
	if err := s.SetImportedFileHash("exams/math.json", "def456"); err != nil {
		t.Fatalf("SetImportedFileHash overwrite: %v", err)
	}
	hash, _ = s.GetImportedFileHash("exams/math.json")
	if hash != "def456" {
		t.Errorf("hash = %q, want def456", hash)
	}
}

func TestExportResults(t *testing.T) {
	s := newTestStore(t)
	owner := createTestUser(t, s, "teacher1", model.UserRoleTeacher)
	student := createTestUser(t, s, "student1", model.UserRoleStudent)
	examID := createTestExam(t, s, owner, model.ExamPublished)

	if _, err := s.CreateSubmission(model.Submission{
		ExamID: examID, StudentID: student, Status: model.SubmissionGraded,
		Score: 4, MaxScore: 5,
		StartedAt: time.Now(), SubmittedAt: time.Now(),
	}, nil); err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}

	results, err := s.ExportResults()
	if err != nil {
		t.Fatalf("ExportResults: %v", err)
	}
	if len(results.Exams) != 1 {
		t.Fatalf("exams = %d, want 1", len(results.Exams))
	}
	subs := results.Exams[0].Submissions
	if len(subs) != 1 {
		t.Fatalf("submissions = %d, want 1", len(subs))
	}
	if subs[0].Username != "student1" || subs[0].Percent != 80 {
		t.Errorf("submission result = %+v", subs[0])
	}
	if len(results.Leaderboard) != 1 {
		t.Errorf("leaderboard = %+v", results.Leaderboard)
	}
}
