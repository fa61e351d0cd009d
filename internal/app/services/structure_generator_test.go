package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkaya/coursebuilder/internal/app/models"
	"github.com/mkaya/coursebuilder/internal/pkg/llm"
)

func testPath() []models.TopicInput {
	return []models.TopicInput{
		{Name: "Go Basics", Description: "Syntax and tooling"},
		{Name: "Concurrency"},
	}
}

func testPool() []models.LessonContent {
	return []models.LessonContent{
		{LessonID: "l1", LessonName: "Hello Go", OriginatingTopicName: "Go Basics"},
		{LessonID: "l2", LessonName: "Packages", OriginatingTopicName: "Go Basics"},
		{LessonID: "l3", LessonName: "Goroutines", OriginatingTopicName: "Concurrency"},
		{LessonID: "l4", LessonName: "Channels", OriginatingTopicName: "Concurrency"},
	}
}

func newTestGenerator(provider llm.Provider) *StructureGenerator {
	return NewStructureGenerator(provider, 0.3, time.Second)
}

func TestGenerate_FallbackOnEmptyPool(t *testing.T) {
	gen := newTestGenerator(nil)

	result := gen.Generate(context.Background(), testPath(), []string{"go"}, nil)

	assert.Equal(t, models.StructureSourceFallback, result.Source)
	require.Len(t, result.Structure.Topics, 2)
	assert.Equal(t, "Go Basics", result.Structure.Topics[0].TopicName)
	assert.Equal(t, 0, result.Structure.LessonCount())
}

func TestGenerate_AIStructureAccepted(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: `{"topics":[{"topicName":"Foundations","modules":[{"moduleName":"Getting Started","lessonIds":["l1","l2"]},{"moduleName":"Parallelism","lessonIds":["l3","l4"]}]}]}`,
	})
	gen := newTestGenerator(mock)

	result := gen.Generate(context.Background(), testPath(), []string{"go"}, testPool())

	assert.Equal(t, models.StructureSourceAI, result.Source)
	require.Len(t, result.Structure.Topics, 1)
	assert.Equal(t, "Foundations", result.Structure.Topics[0].TopicName)
	assert.Equal(t, 4, result.Structure.LessonCount())
	assert.Equal(t, 1, mock.CallCount())
}

func TestGenerate_AIStructureInCodeFence(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: "Here is the structure you asked for:\n```json\n{\"topics\":[{\"topicName\":\"All\",\"modules\":[{\"moduleName\":\"M1\",\"lessonIds\":[\"l1\",\"l3\"]}]}]}\n```\nLet me know if you need changes.",
	})
	gen := newTestGenerator(mock)

	result := gen.Generate(context.Background(), testPath(), []string{"go"}, testPool())

	assert.Equal(t, models.StructureSourceAI, result.Source)
	assert.Equal(t, 2, result.Structure.LessonCount())
}

func TestGenerate_HallucinatedLessonIDRejected(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: `{"topics":[{"topicName":"Bad","modules":[{"moduleName":"M1","lessonIds":["l1","does-not-exist"]}]}]}`,
	})
	gen := newTestGenerator(mock)

	result := gen.Generate(context.Background(), testPath(), []string{"go"}, testPool())

	// The whole AI proposal is discarded; the fallback places every lesson.
	assert.Equal(t, models.StructureSourceFallback, result.Source)
	assert.Equal(t, 4, result.Structure.LessonCount())
}

func TestGenerate_ProviderErrorFallsBack(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Err: &llm.ErrProviderUnavailable{},
	})
	gen := newTestGenerator(mock)

	result := gen.Generate(context.Background(), testPath(), []string{"go"}, testPool())

	assert.Equal(t, models.StructureSourceFallback, result.Source)
	assert.Equal(t, 4, result.Structure.LessonCount())
}

func TestGenerate_DuplicateLessonIDsFirstOccurrenceWins(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: `{"topics":[{"topicName":"T","modules":[{"moduleName":"M1","lessonIds":["l1","l2"]},{"moduleName":"M2","lessonIds":["l2","l3"]}]}]}`,
	})
	gen := newTestGenerator(mock)

	result := gen.Generate(context.Background(), testPath(), []string{"go"}, testPool())

	assert.Equal(t, models.StructureSourceAI, result.Source)
	assert.Equal(t, 3, result.Structure.LessonCount())
	modules := result.Structure.Topics[0].Modules
	assert.Equal(t, []string{"l1", "l2"}, modules[0].LessonIDs)
	assert.Equal(t, []string{"l3"}, modules[1].LessonIDs)
}

func TestFallback_GroupsByOriginatingTopic(t *testing.T) {
	gen := newTestGenerator(nil)

	result := gen.Generate(context.Background(), testPath(), []string{"go"}, testPool())

	assert.Equal(t, models.StructureSourceFallback, result.Source)
	require.Len(t, result.Structure.Topics, 2)

	basics := result.Structure.Topics[0]
	require.Len(t, basics.Modules, 1)
	assert.Equal(t, []string{"l1", "l2"}, basics.Modules[0].LessonIDs)

	concurrency := result.Structure.Topics[1]
	assert.Equal(t, []string{"l3", "l4"}, concurrency.Modules[0].LessonIDs)
}

func TestFallback_LeftoversSpreadRoundRobin(t *testing.T) {
	gen := newTestGenerator(nil)
	pool := []models.LessonContent{
		{LessonID: "a", OriginatingTopicName: "Go Basics"},
		{LessonID: "x1", OriginatingTopicName: "Unknown Topic"},
		{LessonID: "x2", OriginatingTopicName: "Unknown Topic"},
		{LessonID: "x3", OriginatingTopicName: "Another Unknown"},
	}

	result := gen.Generate(context.Background(), testPath(), []string{"go"}, pool)

	total := 0
	for _, topic := range result.Structure.Topics {
		for _, module := range topic.Modules {
			total += len(module.LessonIDs)
		}
	}
	assert.Equal(t, 4, total)
}

func TestFallback_TopicsWithoutLessonsPruned(t *testing.T) {
	gen := newTestGenerator(nil)
	pool := []models.LessonContent{
		{LessonID: "l1", OriginatingTopicName: "Go Basics"},
		{LessonID: "l2", OriginatingTopicName: "Go Basics"},
	}

	result := gen.Generate(context.Background(), testPath(), []string{"go"}, pool)

	// Concurrency got no lessons and no leftovers existed, so only the
	// populated topic survives.
	require.Len(t, result.Structure.Topics, 1)
	assert.Equal(t, "Go Basics", result.Structure.Topics[0].TopicName)
	assert.Equal(t, 2, result.Structure.LessonCount())
}

func TestFallback_DuplicatePoolIDsDropped(t *testing.T) {
	gen := newTestGenerator(nil)
	pool := []models.LessonContent{
		{LessonID: "a", LessonName: "First", OriginatingTopicName: "Go Basics"},
		{LessonID: "a", LessonName: "Duplicate", OriginatingTopicName: "Concurrency"},
	}

	result := gen.Generate(context.Background(), testPath(), []string{"go"}, pool)

	assert.Equal(t, 1, result.Structure.LessonCount())
}

func TestFallback_EmptyPathUsesDefaultTopic(t *testing.T) {
	gen := newTestGenerator(nil)
	pool := []models.LessonContent{{LessonID: "a", OriginatingTopicName: "Whatever"}}

	result := gen.Generate(context.Background(), nil, nil, pool)

	require.Len(t, result.Structure.Topics, 1)
	assert.Equal(t, "Course Content", result.Structure.Topics[0].TopicName)
	assert.Equal(t, 1, result.Structure.LessonCount())
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "plain object",
			content: `{"topics":[]}`,
			want:    `{"topics":[]}`,
		},
		{
			name:    "fenced json",
			content: "```json\n{\"topics\":[]}\n```",
			want:    `{"topics":[]}`,
		},
		{
			name:    "surrounded by prose",
			content: "Sure! Here you go: {\"topics\":[]} Hope that helps.",
			want:    `{"topics":[]}`,
		},
		{
			name:    "no json at all",
			content: "I cannot help with that.",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.content))
		})
	}
}

func TestBuildStructurePrompt_IncludesLessonsAndSkills(t *testing.T) {
	prompt := buildStructurePrompt(testPath(), []string{"go", "testing"}, testPool())

	assert.Contains(t, prompt, "Go Basics")
	assert.Contains(t, prompt, "go, testing")
	assert.Contains(t, prompt, "id: l1")
	assert.Contains(t, prompt, "Goroutines")
}
