package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/papervault/papervault-api/internal/models"
	appErrors "github.com/papervault/papervault-api/pkg/errors"
)

// generator produces schema-constrained JSON from a prompt. Wrapping the
// GenAI client behind this interface keeps flow logic testable offline.
type generator interface {
	Generate(ctx context.Context, prompt string, schema *genai.Schema) ([]byte, error)
}

type genaiGenerator struct {
	client *genai.Client
	model  string
}

func (g *genaiGenerator) Generate(ctx context.Context, prompt string, schema *genai.Schema) ([]byte, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("empty model response")
	}
	return []byte(text), nil
}

// ExplainRequest asks for a worked explanation of an exam question.
type ExplainRequest struct {
	Question string       `json:"question" validate:"required,min=5,max=4000"`
	Subject  string       `json:"subject" validate:"required"`
	Level    models.Level `json:"level" validate:"required"`
}

// ExplainResponse is the typed explanation flow output.
type ExplainResponse struct {
	Explanation string   `json:"explanation"`
	KeyConcepts []string `json:"key_concepts"`
}

// TopicsRequest asks for revision topic suggestions.
type TopicsRequest struct {
	Subject string        `json:"subject" validate:"required"`
	Level   models.Level  `json:"level" validate:"required"`
	Grade   *models.Grade `json:"grade,omitempty"`
}

// SuggestedTopic is one revision topic with its rationale.
type SuggestedTopic struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// TopicsResponse is the typed topic-suggestion flow output.
type TopicsResponse struct {
	Topics []SuggestedTopic `json:"topics"`
}

// QuestionsRequest asks for generated practice questions.
type QuestionsRequest struct {
	Subject    string        `json:"subject" validate:"required"`
	Level      models.Level  `json:"level" validate:"required"`
	Grade      *models.Grade `json:"grade,omitempty"`
	Count      int           `json:"count" validate:"required,gte=1,lte=10"`
	Difficulty string        `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

// GeneratedQuestion pairs a practice question with its model answer.
type GeneratedQuestion struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QuestionsResponse is the typed question-generation flow output.
type QuestionsResponse struct {
	Questions []GeneratedQuestion `json:"questions"`
}

// StudyPlanRequest asks for a week-by-week revision plan.
type StudyPlanRequest struct {
	Subjects    []string     `json:"subjects" validate:"required,min=1,max=8,dive,required"`
	Level       models.Level `json:"level" validate:"required"`
	WeeklyHours int          `json:"weekly_hours" validate:"required,gte=1,lte=80"`
	Weeks       int          `json:"weeks" validate:"required,gte=1,lte=26"`
}

// StudyPlanWeek is one week of the generated plan.
type StudyPlanWeek struct {
	Week  int      `json:"week"`
	Focus string   `json:"focus"`
	Tasks []string `json:"tasks"`
}

// StudyPlanResponse is the typed study-plan flow output.
type StudyPlanResponse struct {
	Weeks []StudyPlanWeek `json:"weeks"`
}

type suitabilityVerdict struct {
	Suitable bool   `json:"suitable"`
	Reason   string `json:"reason"`
}

// AssistServiceConfig governs the study assistant.
type AssistServiceConfig struct {
	Enabled bool
	Model   string
	Timeout time.Duration
}

// AssistService runs the AI study-assistance flows. Every flow takes a
// strictly typed input and returns a strictly typed output; the model is
// constrained with a JSON response schema and the payload is validated by
// unmarshalling into the typed result.
type AssistService struct {
	gen       generator
	validator *validator.Validate
	logger    *zap.Logger
	cfg       AssistServiceConfig
}

// NewAssistService constructs AssistService backed by the Google GenAI API.
func NewAssistService(ctx context.Context, apiKey string, validate *validator.Validate, logger *zap.Logger, cfg AssistServiceConfig) (*AssistService, error) {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AssistService{validator: validate, logger: logger, cfg: cfg}
	if !cfg.Enabled {
		return svc, nil
	}
	if apiKey == "" {
		return nil, fmt.Errorf("assist enabled but no API key configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	svc.gen = &genaiGenerator{client: client, model: cfg.Model}
	return svc, nil
}

// newAssistServiceWithGenerator wires a custom generator (tests).
func newAssistServiceWithGenerator(gen generator, validate *validator.Validate, logger *zap.Logger, cfg AssistServiceConfig) *AssistService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistService{gen: gen, validator: validate, logger: logger, cfg: cfg}
}

// Enabled reports whether the assistant can serve requests.
func (s *AssistService) Enabled() bool {
	return s != nil && s.cfg.Enabled && s.gen != nil
}

// ExplainQuestion produces a step-by-step explanation.
func (s *AssistService) ExplainQuestion(ctx context.Context, req ExplainRequest) (*ExplainResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf(
		"You are a tutor for %s students. Explain the following %s exam question step by step, then list the key concepts involved.\n\nQuestion:\n%s",
		levelLabel(req.Level), req.Subject, req.Question)
	schema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"explanation":  {Type: genai.TypeString},
			"key_concepts": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
		Required: []string{"explanation", "key_concepts"},
	}
	var out ExplainResponse
	if err := s.run(ctx, prompt, schema, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SuggestTopics proposes revision topics. Before returning, a suitability
// check verifies the subject/level pairing; when it fails the suggestions are
// discarded entirely.
func (s *AssistService) SuggestTopics(ctx context.Context, req TopicsRequest) (*TopicsResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	audience := levelLabel(req.Level)
	if req.Grade != nil {
		audience = fmt.Sprintf("%s (%s)", audience, gradeLabel(*req.Grade))
	}
	prompt := fmt.Sprintf(
		"Suggest 5 high-value revision topics in %s for %s students preparing for exams. For each topic give a short reason.",
		req.Subject, audience)
	schema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"topics": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":   {Type: genai.TypeString},
						"reason": {Type: genai.TypeString},
					},
					Required: []string{"name", "reason"},
				},
			},
		},
		Required: []string{"topics"},
	}
	var out TopicsResponse
	if err := s.run(ctx, prompt, schema, &out); err != nil {
		return nil, err
	}

	verdict, err := s.checkSuitability(ctx, req.Subject, audience)
	if err != nil {
		return nil, err
	}
	if !verdict.Suitable {
		s.logger.Info("topic suggestions discarded by suitability check",
			zap.String("subject", req.Subject),
			zap.String("reason", verdict.Reason))
		return &TopicsResponse{Topics: []SuggestedTopic{}}, nil
	}
	return &out, nil
}

// GenerateQuestions produces practice questions with model answers.
func (s *AssistService) GenerateQuestions(ctx context.Context, req QuestionsRequest) (*QuestionsResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = "medium"
	}
	prompt := fmt.Sprintf(
		"Write %d %s-difficulty practice questions in %s for %s students. Provide a concise model answer for each.",
		req.Count, difficulty, req.Subject, levelLabel(req.Level))
	schema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"questions": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"question": {Type: genai.TypeString},
						"answer":   {Type: genai.TypeString},
					},
					Required: []string{"question", "answer"},
				},
			},
		},
		Required: []string{"questions"},
	}
	var out QuestionsResponse
	if err := s.run(ctx, prompt, schema, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateStudyPlan produces a week-by-week revision plan.
func (s *AssistService) GenerateStudyPlan(ctx context.Context, req StudyPlanRequest) (*StudyPlanResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf(
		"Create a %d-week study plan for a %s student with %d hours available per week, covering: %v. For each week give a focus and concrete tasks.",
		req.Weeks, levelLabel(req.Level), req.WeeklyHours, req.Subjects)
	schema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"weeks": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"week":  {Type: genai.TypeInteger},
						"focus": {Type: genai.TypeString},
						"tasks": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
					},
					Required: []string{"week", "focus", "tasks"},
				},
			},
		},
		Required: []string{"weeks"},
	}
	var out StudyPlanResponse
	if err := s.run(ctx, prompt, schema, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AssistService) checkSuitability(ctx context.Context, subject, audience string) (*suitabilityVerdict, error) {
	prompt := fmt.Sprintf(
		"Is %q a subject that %s students study for exams? Answer strictly.",
		subject, audience)
	schema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"suitable": {Type: genai.TypeBoolean},
			"reason":   {Type: genai.TypeString},
		},
		Required: []string{"suitable", "reason"},
	}
	var verdict suitabilityVerdict
	if err := s.run(ctx, prompt, schema, &verdict); err != nil {
		return nil, err
	}
	return &verdict, nil
}

func (s *AssistService) check(req interface{}) error {
	if !s.Enabled() {
		return appErrors.ErrAssistUnavailable
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assist payload")
	}
	return nil
}

func (s *AssistService) run(ctx context.Context, prompt string, schema *genai.Schema, dest interface{}) error {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	raw, err := s.gen.Generate(ctx, prompt, schema)
	if err != nil {
		s.logger.Error("assist flow failed", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "study assistant request failed")
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Error("assist flow returned malformed payload", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "study assistant returned an unexpected response")
	}
	return nil
}

func levelLabel(level models.Level) string {
	switch level {
	case models.LevelHighSchool:
		return "high school"
	case models.LevelCollege:
		return "college"
	case models.LevelUniversity:
		return "university"
	}
	return string(level)
}

func gradeLabel(grade models.Grade) string {
	switch grade {
	case models.Grade10:
		return "grade 10"
	case models.Grade11:
		return "grade 11"
	case models.Grade12:
		return "grade 12"
	}
	return string(grade)
}
