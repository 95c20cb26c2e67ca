package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/papervault/papervault-api/internal/models"
	appErrors "github.com/papervault/papervault-api/pkg/errors"
)

type generatorStub struct {
	responses []string
	prompts   []string
}

func (g *generatorStub) Generate(ctx context.Context, prompt string, schema *genai.Schema) ([]byte, error) {
	g.prompts = append(g.prompts, prompt)
	if len(g.responses) == 0 {
		return []byte("{}"), nil
	}
	resp := g.responses[0]
	g.responses = g.responses[1:]
	return []byte(resp), nil
}

func newAssistForTest(gen *generatorStub) *AssistService {
	return newAssistServiceWithGenerator(gen, nil, nil, AssistServiceConfig{Enabled: true, Model: "test-model"})
}

func TestAssistServiceDisabled(t *testing.T) {
	svc := newAssistServiceWithGenerator(nil, nil, nil, AssistServiceConfig{Enabled: false})

	_, err := svc.ExplainQuestion(context.Background(), ExplainRequest{
		Question: "What is photosynthesis?",
		Subject:  "Biology",
		Level:    models.LevelHighSchool,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAssistUnavailable.Code, appErrors.FromError(err).Code)
}

func TestAssistServiceExplainQuestion(t *testing.T) {
	gen := &generatorStub{responses: []string{
		`{"explanation":"Plants convert light into chemical energy.","key_concepts":["chlorophyll","glucose"]}`,
	}}
	svc := newAssistForTest(gen)

	res, err := svc.ExplainQuestion(context.Background(), ExplainRequest{
		Question: "Explain photosynthesis.",
		Subject:  "Biology",
		Level:    models.LevelHighSchool,
	})
	require.NoError(t, err)
	assert.Contains(t, res.Explanation, "chemical energy")
	assert.Len(t, res.KeyConcepts, 2)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "high school")
}

func TestAssistServiceSuggestTopicsSuitable(t *testing.T) {
	gen := &generatorStub{responses: []string{
		`{"topics":[{"name":"Stoichiometry","reason":"Frequently examined."}]}`,
		`{"suitable":true,"reason":"Standard curriculum subject."}`,
	}}
	svc := newAssistForTest(gen)

	res, err := svc.SuggestTopics(context.Background(), TopicsRequest{Subject: "Chemistry", Level: models.LevelCollege})
	require.NoError(t, err)
	require.Len(t, res.Topics, 1)
	assert.Equal(t, "Stoichiometry", res.Topics[0].Name)
	assert.Len(t, gen.prompts, 2)
}

func TestAssistServiceSuggestTopicsDiscardedWhenUnsuitable(t *testing.T) {
	gen := &generatorStub{responses: []string{
		`{"topics":[{"name":"Advanced Necromancy","reason":"n/a"}]}`,
		`{"suitable":false,"reason":"Not an exam subject."}`,
	}}
	svc := newAssistForTest(gen)

	res, err := svc.SuggestTopics(context.Background(), TopicsRequest{Subject: "Necromancy", Level: models.LevelHighSchool})
	require.NoError(t, err)
	assert.NotNil(t, res.Topics)
	assert.Empty(t, res.Topics)
}

func TestAssistServiceGenerateQuestionsValidation(t *testing.T) {
	svc := newAssistForTest(&generatorStub{})

	_, err := svc.GenerateQuestions(context.Background(), QuestionsRequest{
		Subject: "Physics",
		Level:   models.LevelUniversity,
		Count:   50,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAssistServiceStudyPlan(t *testing.T) {
	gen := &generatorStub{responses: []string{
		`{"weeks":[{"week":1,"focus":"Mechanics","tasks":["Review kinematics","Solve past papers"]}]}`,
	}}
	svc := newAssistForTest(gen)

	res, err := svc.GenerateStudyPlan(context.Background(), StudyPlanRequest{
		Subjects:    []string{"Physics"},
		Level:       models.LevelUniversity,
		WeeklyHours: 10,
		Weeks:       4,
	})
	require.NoError(t, err)
	require.Len(t, res.Weeks, 1)
	assert.Equal(t, 1, res.Weeks[0].Week)
	assert.Len(t, res.Weeks[0].Tasks, 2)
}
