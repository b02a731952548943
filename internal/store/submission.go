package store

import (
	"database/sql"

	"github.com/prepexam/prepexam/internal/model"
)

// CreateSubmission inserts a submission and its answers in one transaction.
func (s *Store) CreateSubmission(sub model.Submission, answers []model.Answer) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO submissions (exam_id, student_id, status, score, max_score, started_at, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.ExamID, sub.StudentID, sub.Status, sub.Score, sub.MaxScore, sub.StartedAt, sub.SubmittedAt,
	)
	if err != nil {
		return 0, err
	}
	subID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, a := range answers {
		_, err := tx.Exec(
			`INSERT INTO answers (submission_id, question_id, selected_option, essay_text, score, feedback, graded)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			subID, a.QuestionID, a.SelectedOption, a.EssayText, a.Score, a.Feedback, a.Graded,
		)
		if err != nil {
			return 0, err
		}
	}

	return subID, tx.Commit()
}

// GetSubmission returns a submission by ID.
func (s *Store) GetSubmission(id int64) (model.Submission, error) {
	var sub model.Submission
	err := s.db.QueryRow(
		`SELECT id, exam_id, student_id, status, score, max_score, started_at, submitted_at
		 FROM submissions WHERE id = ?`, id,
	).Scan(&sub.ID, &sub.ExamID, &sub.StudentID, &sub.Status, &sub.Score, &sub.MaxScore,
		&sub.StartedAt, &sub.SubmittedAt)
	return sub, err
}

// GetAnswersForSubmission returns a submission's answers in insertion order.
func (s *Store) GetAnswersForSubmission(submissionID int64) ([]model.Answer, error) {
	rows, err := s.db.Query(
		`SELECT id, submission_id, question_id, selected_option, essay_text, score, feedback, graded
		 FROM answers WHERE submission_id = ? ORDER BY id`, submissionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.SubmissionID, &a.QuestionID, &a.SelectedOption,
			&a.EssayText, &a.Score, &a.Feedback, &a.Graded); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// GetSubmissionView builds a submission with all its answers.
func (s *Store) GetSubmissionView(id int64) (*model.SubmissionView, error) {
	sub, err := s.GetSubmission(id)
	if err != nil {
		return nil, err
	}
	answers, err := s.GetAnswersForSubmission(id)
	if err != nil {
		return nil, err
	}
	return &model.SubmissionView{Submission: sub, Answers: answers}, nil
}

// ListSubmissionsForExam returns all submissions for an exam, newest first.
func (s *Store) ListSubmissionsForExam(examID int64) ([]model.Submission, error) {
	return s.listSubmissions(`WHERE exam_id = ?`, examID)
}

// ListSubmissionsForStudent returns all submissions by a student, newest first.
func (s *Store) ListSubmissionsForStudent(studentID int64) ([]model.Submission, error) {
	return s.listSubmissions(`WHERE student_id = ?`, studentID)
}

func (s *Store) listSubmissions(where string, arg any) ([]model.Submission, error) {
	rows, err := s.db.Query(
		`SELECT id, exam_id, student_id, status, score, max_score, started_at, submitted_at
		 FROM submissions `+where+` ORDER BY id DESC`, arg,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subs []model.Submission
	for rows.Next() {
		var sub model.Submission
		if err := rows.Scan(&sub.ID, &sub.ExamID, &sub.StudentID, &sub.Status, &sub.Score,
			&sub.MaxScore, &sub.StartedAt, &sub.SubmittedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// GradeAnswer records a manual score and feedback for one answer, then
// recomputes the submission total. When no ungraded answers remain, the
// submission flips to graded.
func (s *Store) GradeAnswer(answerID int64, score float64, feedback string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var submissionID int64
	if err := tx.QueryRow(
		`SELECT submission_id FROM answers WHERE id = ?`, answerID,
	).Scan(&submissionID); err != nil {
		return err
	}

	if _, err := tx.Exec(
		`UPDATE answers SET score = ?, feedback = ?, graded = 1 WHERE id = ?`,
		score, feedback, answerID,
	); err != nil {
		return err
	}

	if _, err := tx.Exec(
		`UPDATE submissions SET score = (SELECT COALESCE(SUM(score), 0) FROM answers WHERE submission_id = ?)
		 WHERE id = ?`, submissionID, submissionID,
	); err != nil {
		return err
	}

	var ungraded int
	if err := tx.QueryRow(
		`SELECT COUNT(*) FROM answers WHERE submission_id = ? AND graded = 0`, submissionID,
	).Scan(&ungraded); err != nil {
		return err
	}
	if ungraded == 0 {
		if _, err := tx.Exec(
			`UPDATE submissions SET status = ? WHERE id = ?`,
			model.SubmissionGraded, submissionID,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Leaderboard ranks students by total score across graded submissions.
// Only each student's best submission per exam counts.
func (s *Store) Leaderboard(limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT u.id, u.display_name,
		        COUNT(best.exam_id) AS exams_taken,
		        COALESCE(SUM(best.score), 0) AS total_score,
		        COALESCE(AVG(CASE WHEN best.max_score > 0 THEN best.score * 100.0 / best.max_score END), 0) AS avg_percent
		 FROM users u
		 JOIN (
		     SELECT student_id, exam_id, MAX(score) AS score, max_score
		     FROM submissions WHERE status = ?
		     GROUP BY student_id, exam_id
		 ) best ON best.student_id = u.id
		 WHERE u.role = ? AND u.active = 1
		 GROUP BY u.id, u.display_name
		 ORDER BY total_score DESC, avg_percent DESC, u.id
		 LIMIT ?`,
		model.SubmissionGraded, model.UserRoleStudent, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.DisplayName, &e.ExamsTaken, &e.TotalScore, &e.AveragePercent); err != nil {
			return nil, err
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// UpdateAnswerFeedback stores advisory feedback (e.g. from the essay
// reviewer) without marking the answer graded.
func (s *Store) UpdateAnswerFeedback(answerID int64, feedback string) error {
	_, err := s.db.Exec(`UPDATE answers SET feedback = ? WHERE id = ?`, feedback, answerID)
	return err
}

// FindAnswer returns an answer by ID.
func (s *Store) FindAnswer(id int64) (model.Answer, error) {
	var a model.Answer
	err := s.db.QueryRow(
		`SELECT id, submission_id, question_id, selected_option, essay_text, score, feedback, graded
		 FROM answers WHERE id = ?`, id,
	).Scan(&a.ID, &a.SubmissionID, &a.QuestionID, &a.SelectedOption, &a.EssayText,
		&a.Score, &a.Feedback, &a.Graded)
	return a, err
}

// SubmissionExists reports whether a student already submitted for an exam.
func (s *Store) SubmissionExists(examID, studentID int64) (bool, error) {
	var id int64
	err := s.db.QueryRow(
		`SELECT id FROM submissions WHERE exam_id = ? AND student_id = ? LIMIT 1`,
		examID, studentID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
