package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prepexam/prepexam/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'student',
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS exams (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		public_id TEXT NOT NULL UNIQUE,
		owner_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		grade_level TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		duration INTEGER NOT NULL DEFAULT 60,
		status TEXT NOT NULL DEFAULT 'draft',
		created_at DATETIME NOT NULL,
		FOREIGN KEY (owner_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		exam_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		text TEXT NOT NULL,
		type TEXT NOT NULL,
		options TEXT NOT NULL DEFAULT '[]',
		correct_answer INTEGER NOT NULL DEFAULT 0,
		explanation TEXT NOT NULL DEFAULT '',
		image_url TEXT,
		points REAL NOT NULL DEFAULT 1,
		FOREIGN KEY (exam_id) REFERENCES exams(id)
	);

	CREATE TABLE IF NOT EXISTS submissions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		exam_id INTEGER NOT NULL,
		student_id INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending_review',
		score REAL NOT NULL DEFAULT 0,
		max_score REAL NOT NULL DEFAULT 0,
		started_at DATETIME NOT NULL,
		submitted_at DATETIME NOT NULL,
		FOREIGN KEY (exam_id) REFERENCES exams(id),
		FOREIGN KEY (student_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		submission_id INTEGER NOT NULL,
		question_id INTEGER NOT NULL,
		selected_option INTEGER NOT NULL DEFAULT -1,
		essay_text TEXT NOT NULL DEFAULT '',
		score REAL NOT NULL DEFAULT 0,
		feedback TEXT NOT NULL DEFAULT '',
		graded BOOLEAN NOT NULL DEFAULT 0,
		FOREIGN KEY (submission_id) REFERENCES submissions(id),
		FOREIGN KEY (question_id) REFERENCES questions(id)
	);

	CREATE TABLE IF NOT EXISTS app_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateExam inserts an exam and its questions in one transaction.
func (s *Store) CreateExam(exam model.Exam, questions []model.Question) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO exams (public_id, owner_id, title, subject, grade_level, description, duration, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exam.PublicID, exam.OwnerID, exam.Title, exam.Subject, exam.GradeLevel,
		exam.Description, exam.Duration, exam.Status, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	examID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, q := range questions {
		opts, err := json.Marshal(q.Options)
		if err != nil {
			return 0, fmt.Errorf("marshal options: %w", err)
		}
		_, err = tx.Exec(
			`INSERT INTO questions (exam_id, position, text, type, options, correct_answer, explanation, image_url, points)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			examID, i+1, q.Text, q.Type, string(opts), q.CorrectAnswer, q.Explanation, q.ImageURL, q.Points,
		)
		if err != nil {
			return 0, err
		}
	}

	return examID, tx.Commit()
}

// GetExam returns an exam by ID.
func (s *Store) GetExam(id int64) (model.Exam, error) {
	var e model.Exam
	err := s.db.QueryRow(
		`SELECT id, public_id, owner_id, title, subject, grade_level, description, duration, status, created_at
		 FROM exams WHERE id = ?`, id,
	).Scan(&e.ID, &e.PublicID, &e.OwnerID, &e.Title, &e.Subject, &e.GradeLevel,
		&e.Description, &e.Duration, &e.Status, &e.CreatedAt)
	return e, err
}

// ListExams returns exams, optionally filtered by owner and/or status.
// Zero/empty values mean no filtering on that field.
func (s *Store) ListExams(ownerID int64, status model.ExamStatus) ([]model.Exam, error) {
	query := `SELECT id, public_id, owner_id, title, subject, grade_level, description, duration, status, created_at
	          FROM exams WHERE 1=1`
	var args []any
	if ownerID != 0 {
		query += ` AND owner_id = ?`
		args = append(args, ownerID)
	}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.PublicID, &e.OwnerID, &e.Title, &e.Subject, &e.GradeLevel,
			&e.Description, &e.Duration, &e.Status, &e.CreatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// UpdateExamStatus updates the exam lifecycle status.
func (s *Store) UpdateExamStatus(id int64, status model.ExamStatus) error {
	_, err := s.db.Exec(`UPDATE exams SET status = ? WHERE id = ?`, status, id)
	return err
}

// DeleteExam removes an exam together with its questions, submissions, and
// answers.
func (s *Store) DeleteExam(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM answers WHERE submission_id IN (SELECT id FROM submissions WHERE exam_id = ?)`, id,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM submissions WHERE exam_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM questions WHERE exam_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM exams WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// GetQuestionsForExam returns an exam's questions in position order.
func (s *Store) GetQuestionsForExam(examID int64) ([]model.Question, error) {
	rows, err := s.db.Query(
		`SELECT id, exam_id, position, text, type, options, correct_answer, explanation, image_url, points
		 FROM questions WHERE exam_id = ? ORDER BY position`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetQuestion returns a question by ID.
func (s *Store) GetQuestion(id int64) (model.Question, error) {
	row := s.db.QueryRow(
		`SELECT id, exam_id, position, text, type, options, correct_answer, explanation, image_url, points
		 FROM questions WHERE id = ?`, id,
	)
	return scanQuestion(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (model.Question, error) {
	var q model.Question
	var opts string
	err := row.Scan(&q.ID, &q.ExamID, &q.Position, &q.Text, &q.Type, &opts,
		&q.CorrectAnswer, &q.Explanation, &q.ImageURL, &q.Points)
	if err != nil {
		return q, err
	}
	if err := json.Unmarshal([]byte(opts), &q.Options); err != nil {
		return q, fmt.Errorf("unmarshal options for question %d: %w", q.ID, err)
	}
	return q, nil
}

// ExamCount returns the number of exams in the database.
func (s *Store) ExamCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM exams`).Scan(&count)
	return count, err
}
