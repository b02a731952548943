package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/prepexam/prepexam/internal/grader"
	appI18n "github.com/prepexam/prepexam/internal/i18n"
	"github.com/prepexam/prepexam/internal/model"
)

type createExamRequest struct {
	Title       string           `json:"title"`
	Subject     string           `json:"subject"`
	GradeLevel  string           `json:"grade_level"`
	Description string           `json:"description"`
	Duration    int              `json:"duration"`
	Questions   []model.Question `json:"questions"`
}

// handleCreateExam stores a new draft exam, typically from the output of
// /api/parse-document after the teacher reviewed it.
func (h *Handler) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var req createExamRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Title == "" {
		errorJSON(w, http.StatusBadRequest, "title is required")
		return
	}
	if len(req.Questions) == 0 {
		errorJSON(w, http.StatusBadRequest, "an exam needs at least one question")
		return
	}
	if req.Duration <= 0 {
		req.Duration = 60
	}
	for i := range req.Questions {
		q := &req.Questions[i]
		if q.Type != model.QuestionEssay {
			q.Type = model.QuestionMultipleChoice
			if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
				errorJSON(w, http.StatusBadRequest,
					"question "+strconv.Itoa(i+1)+": correct_answer must index into options")
				return
			}
		}
		if q.Points <= 0 {
			q.Points = 1
		}
	}

	examID, err := h.store.CreateExam(model.Exam{
		PublicID:    uuid.NewString(),
		OwnerID:     user.ID,
		Title:       req.Title,
		Subject:     req.Subject,
		GradeLevel:  req.GradeLevel,
		Description: req.Description,
		Duration:    req.Duration,
		Status:      model.ExamDraft,
	}, req.Questions)
	if err != nil {
		slog.Error("failed to create exam", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}

	exam, err := h.store.GetExam(examID)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"exam": exam})
}

// handleListExams returns the caller's exams for teachers and published exams
// for students.
func (h *Handler) handleListExams(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var (
		exams []model.Exam
		err   error
	)
	if user.Role == model.UserRoleStudent {
		exams, err = h.store.ListExams(0, model.ExamPublished)
	} else {
		exams, err = h.store.ListExams(user.ID, "")
	}
	if err != nil {
		slog.Error("failed to list exams", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"exams": exams})
}

func (h *Handler) examFromURL(w http.ResponseWriter, r *http.Request) (model.Exam, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "examID"), 10, 64)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid exam ID")
		return model.Exam{}, false
	}
	exam, err := h.store.GetExam(id)
	if err != nil {
		errorJSON(w, http.StatusNotFound, "exam not found")
		return model.Exam{}, false
	}
	return exam, true
}

// handleGetExam returns an exam with its questions. Students only see
// published exams, and never the correct answers or explanations.
func (h *Handler) handleGetExam(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	exam, ok := h.examFromURL(w, r)
	if !ok {
		return
	}

	isStudent := user.Role == model.UserRoleStudent
	if isStudent && exam.Status != model.ExamPublished {
		errorJSON(w, http.StatusNotFound, "exam not found")
		return
	}

	questions, err := h.store.GetQuestionsForExam(exam.ID)
	if err != nil {
		slog.Error("failed to load questions", "exam_id", exam.ID, "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	if isStudent {
		for i := range questions {
			questions[i].CorrectAnswer = -1
			questions[i].Explanation = ""
		}
	}
	if questions == nil {
		questions = []model.Question{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"exam": exam, "questions": questions})
}

func (h *Handler) ownedExamFromURL(w http.ResponseWriter, r *http.Request) (model.Exam, bool) {
	user := model.UserFromContext(r.Context())
	exam, ok := h.examFromURL(w, r)
	if !ok {
		return model.Exam{}, false
	}
	if exam.OwnerID != user.ID && user.Role != model.UserRoleAdmin {
		errorJSON(w, http.StatusForbidden, appI18n.T(r.Context(), "NotAuthorized"))
		return model.Exam{}, false
	}
	return exam, true
}

func (h *Handler) handlePublishExam(w http.ResponseWriter, r *http.Request) {
	exam, ok := h.ownedExamFromURL(w, r)
	if !ok {
		return
	}
	if err := h.store.UpdateExamStatus(exam.ID, model.ExamPublished); err != nil {
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  string(model.ExamPublished),
		"message": appI18n.Td(r.Context(), "ExamPublished", map[string]any{"Title": exam.Title}),
	})
}

func (h *Handler) handleArchiveExam(w http.ResponseWriter, r *http.Request) {
	exam, ok := h.ownedExamFromURL(w, r)
	if !ok {
		return
	}
	if err := h.store.UpdateExamStatus(exam.ID, model.ExamArchived); err != nil {
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": string(model.ExamArchived)})
}

func (h *Handler) handleDeleteExam(w http.ResponseWriter, r *http.Request) {
	exam, ok := h.ownedExamFromURL(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteExam(exam.ID); err != nil {
		slog.Error("failed to delete exam", "exam_id", exam.ID, "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type submitExamRequest struct {
	Answers []grader.AnswerInput `json:"answers"`
}

// handleSubmitExam grades a student's answers and stores the submission.
// Objective questions are scored immediately; essays leave the submission in
// pending_review for the teacher.
func (h *Handler) handleSubmitExam(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	exam, ok := h.examFromURL(w, r)
	if !ok {
		return
	}
	if exam.Status != model.ExamPublished {
		errorJSON(w, http.StatusNotFound, "exam not found")
		return
	}

	exists, err := h.store.SubmissionExists(exam.ID, user.ID)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	if exists {
		errorJSON(w, http.StatusConflict, appI18n.T(r.Context(), "AlreadySubmitted"))
		return
	}

	var req submitExamRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	questions, err := h.store.GetQuestionsForExam(exam.ID)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}

	res := grader.Grade(questions, req.Answers)
	now := time.Now()
	subID, err := h.store.CreateSubmission(model.Submission{
		ExamID:      exam.ID,
		StudentID:   user.ID,
		Status:      res.Status(),
		Score:       res.Score,
		MaxScore:    res.MaxScore,
		StartedAt:   now.Add(-time.Duration(exam.Duration) * time.Minute),
		SubmittedAt: now,
	}, res.Answers)
	if err != nil {
		slog.Error("failed to store submission", "exam_id", exam.ID, "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}

	if h.reviewer != nil && res.PendingEssays > 0 {
		go h.reviewEssays(subID, questions)
	}

	view, err := h.store.GetSubmissionView(subID)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

// reviewEssays attaches advisory LLM feedback to ungraded essay answers.
// Failures are logged and skipped; the teacher still grades by hand.
func (h *Handler) reviewEssays(submissionID int64, questions []model.Question) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	byID := make(map[int64]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	answers, err := h.store.GetAnswersForSubmission(submissionID)
	if err != nil {
		slog.Error("essay review: load answers", "submission_id", submissionID, "error", err)
		return
	}
	for _, a := range answers {
		if a.Graded {
			continue
		}
		q, ok := byID[a.QuestionID]
		if !ok || q.Type != model.QuestionEssay {
			continue
		}
		review, err := h.reviewer.ReviewEssay(ctx, q, a.EssayText)
		if err != nil {
			slog.Error("essay review failed", "answer_id", a.ID, "error", err)
			continue
		}
		feedback := review.Feedback +
			" (suggested: " + strconv.FormatFloat(review.SuggestedScore, 'g', -1, 64) +
			"/" + strconv.FormatFloat(review.MaxPoints, 'g', -1, 64) + ")"
		if err := h.store.UpdateAnswerFeedback(a.ID, feedback); err != nil {
			slog.Error("essay review: store feedback", "answer_id", a.ID, "error", err)
		}
	}
}

func (h *Handler) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "submissionID"), 10, 64)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid submission ID")
		return
	}
	view, err := h.store.GetSubmissionView(id)
	if err != nil {
		errorJSON(w, http.StatusNotFound, "submission not found")
		return
	}

	// Students see their own submissions; teachers only those on exams they
	// own; admins see everything.
	switch user.Role {
	case model.UserRoleStudent:
		if view.Submission.StudentID != user.ID {
			errorJSON(w, http.StatusForbidden, appI18n.T(r.Context(), "NotAuthorized"))
			return
		}
	case model.UserRoleTeacher:
		exam, err := h.store.GetExam(view.Submission.ExamID)
		if err != nil {
			errorJSON(w, http.StatusInternalServerError, "internal error")
			return
		}
		if exam.OwnerID != user.ID {
			errorJSON(w, http.StatusForbidden, appI18n.T(r.Context(), "NotAuthorized"))
			return
		}
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) handleMySubmissions(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	subs, err := h.store.ListSubmissionsForStudent(user.ID)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	if subs == nil {
		subs = []model.Submission{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

func (h *Handler) handleListExamSubmissions(w http.ResponseWriter, r *http.Request) {
	exam, ok := h.ownedExamFromURL(w, r)
	if !ok {
		return
	}
	subs, err := h.store.ListSubmissionsForExam(exam.ID)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	if subs == nil {
		subs = []model.Submission{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

type gradeAnswerRequest struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// handleGradeAnswer records a teacher's manual score for an essay answer.
func (h *Handler) handleGradeAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "answerID"), 10, 64)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid answer ID")
		return
	}

	var req gradeAnswerRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	answer, err := h.store.FindAnswer(id)
	if err != nil {
		errorJSON(w, http.StatusNotFound, "answer not found")
		return
	}

	// Only the owner of the exam this answer belongs to (or an admin) may
	// grade it.
	sub, err := h.store.GetSubmission(answer.SubmissionID)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	user := model.UserFromContext(r.Context())
	exam, err := h.store.GetExam(sub.ExamID)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	if exam.OwnerID != user.ID && user.Role != model.UserRoleAdmin {
		errorJSON(w, http.StatusForbidden, appI18n.T(r.Context(), "NotAuthorized"))
		return
	}

	question, err := h.store.GetQuestion(answer.QuestionID)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	if req.Score < 0 || req.Score > question.Points {
		errorJSON(w, http.StatusBadRequest, "score must be between 0 and the question's points")
		return
	}

	if err := h.store.GradeAnswer(id, req.Score, req.Feedback); err != nil {
		slog.Error("failed to grade answer", "answer_id", id, "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}

	sub, err = h.store.GetSubmission(answer.SubmissionID)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"submission": sub})
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.store.Leaderboard(limit)
	if err != nil {
		slog.Error("failed to build leaderboard", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}
