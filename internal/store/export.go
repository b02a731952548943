package store

import (
	"fmt"
	"time"

	"github.com/prepexam/prepexam/internal/model"
)

// ExportResults builds an export-ready snapshot of every exam's submissions
// plus the current leaderboard.
func (s *Store) ExportResults() (*model.ResultsExport, error) {
	exams, err := s.ListExams(0, "")
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}

	out := &model.ResultsExport{GeneratedAt: time.Now()}
	for _, exam := range exams {
		subs, err := s.ListSubmissionsForExam(exam.ID)
		if err != nil {
			return nil, fmt.Errorf("list submissions for exam %d: %w", exam.ID, err)
		}

		er := model.ExamResults{
			ExamID:   exam.ID,
			PublicID: exam.PublicID,
			Title:    exam.Title,
			Subject:  exam.Subject,
		}
		for _, sub := range subs {
			user, err := s.GetUserByID(sub.StudentID)
			if err != nil {
				return nil, fmt.Errorf("get user %d: %w", sub.StudentID, err)
			}

			sr := model.SubmissionResult{
				Status:      sub.Status,
				Score:       sub.Score,
				MaxScore:    sub.MaxScore,
				SubmittedAt: sub.SubmittedAt,
			}
			if user != nil {
				sr.Username = user.Username
				sr.DisplayName = user.DisplayName
			}
			if sub.MaxScore > 0 {
				sr.Percent = sub.Score * 100 / sub.MaxScore
			}
			er.Submissions = append(er.Submissions, sr)
		}
		out.Exams = append(out.Exams, er)
	}

	leaderboard, err := s.Leaderboard(0)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	out.Leaderboard = leaderboard

	return out, nil
}
