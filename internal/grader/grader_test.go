package grader

import (
	"testing"

	"github.com/prepexam/prepexam/internal/model"
)

func mcq(id int64, correct int, points float64) model.Question {
	return model.Question{
		ID:            id,
		Type:          model.QuestionMultipleChoice,
		Options:       []string{"a", "b", "c", "d"},
		CorrectAnswer: correct,
		Points:        points,
	}
}

func essay(id int64, points float64) model.Question {
	return model.Question{ID: id, Type: model.QuestionEssay, Points: points}
}

func TestGradeObjective(t *testing.T) {
	questions := []model.Question{mcq(1, 1, 2), mcq(2, 3, 2), mcq(3, 0, 1)}

	tests := []struct {
		name       string
		inputs     []AnswerInput
		wantScore  float64
		wantStatus model.SubmissionStatus
	}{
		{
			name: "all correct",
			inputs: []AnswerInput{
				{QuestionID: 1, SelectedOption: 1},
				{QuestionID: 2, SelectedOption: 3},
				{QuestionID: 3, SelectedOption: 0},
			},
			wantScore:  5,
			wantStatus: model.SubmissionGraded,
		},
		{
			name: "partially correct",
			inputs: []AnswerInput{
				{QuestionID: 1, SelectedOption: 1},
				{QuestionID: 2, SelectedOption: 0},
				{QuestionID: 3, SelectedOption: 2},
			},
			wantScore:  2,
			wantStatus: model.SubmissionGraded,
		},
		{
			name:       "all blank",
			inputs:     nil,
			wantScore:  0,
			wantStatus: model.SubmissionGraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Grade(questions, tt.inputs)
			if res.Score != tt.wantScore {
				t.Errorf("score = %v, want %v", res.Score, tt.wantScore)
			}
			if res.MaxScore != 5 {
				t.Errorf("max score = %v, want 5", res.MaxScore)
			}
			if res.Status() != tt.wantStatus {
				t.Errorf("status = %q, want %q", res.Status(), tt.wantStatus)
			}
			if len(res.Answers) != len(questions) {
				t.Errorf("answers = %d, want one per question", len(res.Answers))
			}
		})
	}
}

func TestGradeEssayPendsReview(t *testing.T) {
	questions := []model.Question{mcq(1, 0, 1), essay(2, 5)}
	inputs := []AnswerInput{
		{QuestionID: 1, SelectedOption: 0},
		{QuestionID: 2, EssayText: "Gravity pulls masses together."},
	}

	res := Grade(questions, inputs)
	if res.Status() != model.SubmissionPendingReview {
		t.Errorf("status = %q, want pending_review", res.Status())
	}
	if res.Score != 1 {
		t.Errorf("score = %v, only the objective question counts before review", res.Score)
	}
	if res.MaxScore != 6 {
		t.Errorf("max score = %v, want 6", res.MaxScore)
	}

	essayAnswer := res.Answers[1]
	if essayAnswer.Graded {
		t.Error("essay answer must stay ungraded")
	}
	if essayAnswer.EssayText != "Gravity pulls masses together." {
		t.Errorf("essay text = %q", essayAnswer.EssayText)
	}
}

func TestGradeBlankObjectiveIsWrong(t *testing.T) {
	// A blank answer must not accidentally match correct_answer 0.
	questions := []model.Question{mcq(1, 0, 1)}
	res := Grade(questions, nil)
	if res.Score != 0 {
		t.Errorf("score = %v, blank answer must score 0 even when A is correct", res.Score)
	}
	if res.Answers[0].SelectedOption != -1 {
		t.Errorf("selected option = %d, want -1 for blank", res.Answers[0].SelectedOption)
	}
}
