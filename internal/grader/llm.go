package grader

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prepexam/prepexam/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// EssayReview holds an advisory LLM assessment of one essay answer. It is
// stored as feedback for the reviewing teacher; it never grades on its own.
type EssayReview struct {
	SuggestedScore float64 `json:"suggested_score"`
	MaxPoints      float64 `json:"max_points"`
	Feedback       string  `json:"feedback"`
}

// Reviewer wraps an OpenAI-compatible API client used for essay pre-review.
type Reviewer struct {
	api   *openai.Client
	model string
}

// NewReviewer creates an essay reviewer against an OpenAI-compatible endpoint.
func NewReviewer(baseURL, apiKey, modelName string) *Reviewer {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Reviewer{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Ping verifies the endpoint is reachable by listing models.
func (r *Reviewer) Ping(ctx context.Context) error {
	_, err := r.api.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("LLM endpoint unreachable: %w", err)
	}
	return nil
}

// ReviewEssay asks the LLM for a suggested score and feedback on an essay
// answer.
func (r *Reviewer) ReviewEssay(ctx context.Context, question model.Question, essay string) (*EssayReview, error) {
	resp, err := r.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildReviewPrompt(question)},
			{Role: openai.ChatMessageRoleUser, Content: sanitizeEssay(essay)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	var review EssayReview
	if err := json.Unmarshal([]byte(raw), &review); err != nil {
		return nil, fmt.Errorf("parse review response: %w (raw: %s)", err, raw)
	}
	review.MaxPoints = question.Points
	return &review, nil
}

func buildReviewPrompt(q model.Question) string {
	var sb strings.Builder
	sb.WriteString("You are assisting a teacher who grades essay answers on a school exam.\n\n")
	sb.WriteString("QUESTION: " + q.Text + "\n\n")
	sb.WriteString(fmt.Sprintf("MAX POINTS: %g\n\n", q.Points))
	if q.Explanation != "" {
		sb.WriteString("GRADING NOTES:\n" + q.Explanation + "\n\n")
	}
	sb.WriteString("The next message is the student's answer. Suggest a score and brief feedback.\n")
	sb.WriteString("Your suggestion is advisory only; the teacher makes the final call.\n\n")
	sb.WriteString("Respond ONLY with a JSON object:\n")
	sb.WriteString(`{"suggested_score": <number 0 to max_points>, "feedback": "<brief feedback>"}`)
	sb.WriteString("\n")
	return sb.String()
}

func sanitizeEssay(essay string) string {
	essay = strings.TrimSpace(essay)
	if essay == "" {
		return "[No answer provided]"
	}
	const maxRunes = 10000
	runes := []rune(essay)
	if len(runes) > maxRunes {
		essay = string(runes[:maxRunes]) + "\n\n[Answer truncated due to length]"
	}
	return essay
}
