// Package grader scores exam submissions. Objective questions are graded
// automatically; essays are queued for manual grading, optionally with an
// advisory LLM review attached.
package grader

import (
	"github.com/prepexam/prepexam/internal/model"
)

// AnswerInput is one student answer as received from the client.
type AnswerInput struct {
	QuestionID     int64  `json:"question_id"`
	SelectedOption int    `json:"selected_option"`
	EssayText      string `json:"essay_text"`
}

// Result is the outcome of grading one submission.
type Result struct {
	Answers       []model.Answer
	Score         float64
	MaxScore      float64
	PendingEssays int
}

// Status returns the submission status implied by the result.
func (r *Result) Status() model.SubmissionStatus {
	if r.PendingEssays > 0 {
		return model.SubmissionPendingReview
	}
	return model.SubmissionGraded
}

// Grade scores the given answers against the exam's questions. Objective
// answers earn full points on an exact option match and zero otherwise.
// Essay answers stay ungraded with a zero score until a teacher reviews
// them. Questions with no matching answer count as blank.
func Grade(questions []model.Question, inputs []AnswerInput) *Result {
	byQuestion := make(map[int64]AnswerInput, len(inputs))
	for _, in := range inputs {
		byQuestion[in.QuestionID] = in
	}

	res := &Result{}
	for _, q := range questions {
		res.MaxScore += q.Points

		in, answered := byQuestion[q.ID]
		a := model.Answer{
			QuestionID:     q.ID,
			SelectedOption: -1,
		}

		switch q.Type {
		case model.QuestionEssay:
			if answered {
				a.EssayText = in.EssayText
			}
			res.PendingEssays++
		default:
			a.Graded = true
			if answered {
				a.SelectedOption = in.SelectedOption
				if in.SelectedOption == q.CorrectAnswer {
					a.Score = q.Points
					res.Score += q.Points
				}
			}
		}

		res.Answers = append(res.Answers, a)
	}
	return res
}
