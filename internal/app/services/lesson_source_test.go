package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkaya/coursebuilder/internal/app/models"
)

func TestSimulate_Deterministic(t *testing.T) {
	source := NewLessonSource("", "15s").(*lessonSource)
	topic := models.TopicInput{Name: "Kubernetes"}
	skills := []string{"containers", "orchestration"}

	first := source.simulate(topic, skills)
	second := source.simulate(topic, skills)

	assert.Equal(t, first, second)
}

func TestSimulate_LessonCountInRange(t *testing.T) {
	source := NewLessonSource("", "15s").(*lessonSource)

	for _, name := range []string{"Go", "Rust", "Terraform", "SQL", "Networking"} {
		lessons := source.simulate(models.TopicInput{Name: name}, nil)
		assert.GreaterOrEqual(t, len(lessons), 3, "topic %s", name)
		assert.LessOrEqual(t, len(lessons), 6, "topic %s", name)
	}
}

func TestSimulate_NamesDerivedFromSkill(t *testing.T) {
	source := NewLessonSource("", "15s").(*lessonSource)
	lessons := source.simulate(models.TopicInput{Name: "Kubernetes"}, []string{"docker", "helm"})

	require.NotEmpty(t, lessons)
	assert.Equal(t, "Introduction to docker", lessons[0].LessonName)
	for _, lesson := range lessons {
		assert.Contains(t, lesson.LessonName, "docker")
		assert.NotContains(t, lesson.LessonName, "Kubernetes")
	}
}

func TestSimulate_NamesFallBackToTopicWithoutSkills(t *testing.T) {
	source := NewLessonSource("", "15s").(*lessonSource)
	lessons := source.simulate(models.TopicInput{Name: "Kubernetes"}, nil)

	require.NotEmpty(t, lessons)
	assert.Equal(t, "Introduction to Kubernetes", lessons[0].LessonName)
	for _, lesson := range lessons {
		assert.Contains(t, lesson.LessonName, "Kubernetes")
	}
}

func TestSimulate_DifficultyTiers(t *testing.T) {
	source := NewLessonSource("", "15s").(*lessonSource)
	lessons := source.simulate(models.TopicInput{Name: "Kubernetes"}, []string{"docker"})

	for i, lesson := range lessons {
		require.NotEmpty(t, lesson.ContentData)
		block, ok := lesson.ContentData[0].(map[string]interface{})
		require.True(t, ok)

		want := "advanced"
		if i == 0 {
			want = "beginner"
		} else if i <= 2 {
			want = "intermediate"
		}
		assert.Equal(t, want, block["difficulty"], "lesson index %d", i)
	}
}

func TestSimulate_ArrayInvariant(t *testing.T) {
	source := NewLessonSource("", "15s").(*lessonSource)
	lessons := source.simulate(models.TopicInput{Name: "Observability"}, nil)

	for _, lesson := range lessons {
		assert.NotNil(t, lesson.ContentData)
		assert.NotNil(t, lesson.DevlabExercises)
		assert.NotNil(t, lesson.Skills)
		assert.NotNil(t, lesson.TrainerIDs)
		assert.Contains(t, lesson.LessonID, "sim-observability-")
		assert.Equal(t, "Observability", lesson.OriginatingTopicName)
	}
}

func TestFetchLessons_UnconfiguredEndpointSimulates(t *testing.T) {
	source := NewLessonSource("", "15s")

	lessons := source.FetchLessons(context.Background(), models.TopicInput{Name: "Git"}, []string{"vcs"}, "ref-1")

	require.NotEmpty(t, lessons)
	assert.Equal(t, "Git", lessons[0].OriginatingTopicName)
}

func TestNormalizeLesson_CoercesScalarsToArrays(t *testing.T) {
	raw := map[string]interface{}{
		"lesson_id":        "abc",
		"lesson_name":      "Intro",
		"content_data":     "a single block",
		"devlab_exercises": map[string]interface{}{"title": "one exercise"},
		"skills":           "solo-skill",
		"trainer_ids":      nil,
	}

	lesson := normalizeLesson(raw, "Topic A")

	assert.Equal(t, "abc", lesson.LessonID)
	assert.Equal(t, []interface{}{"a single block"}, lesson.ContentData)
	require.Len(t, lesson.DevlabExercises, 1)
	assert.Equal(t, []string{"solo-skill"}, lesson.Skills)
	assert.Equal(t, []string{}, lesson.TrainerIDs)
	assert.Equal(t, "Topic A", lesson.OriginatingTopicName)
}

func TestNormalizeLesson_MissingIDGetsGenerated(t *testing.T) {
	lesson := normalizeLesson(map[string]interface{}{"name": "No ID"}, "T")

	assert.NotEmpty(t, lesson.LessonID)
	assert.Equal(t, "No ID", lesson.LessonName)
	assert.Equal(t, "text", lesson.ContentType)
}

func TestNormalizeLesson_NamePrecedence(t *testing.T) {
	raw := map[string]interface{}{
		"lesson_name": "Preferred",
		"name":        "Fallback",
		"title":       "Last Resort",
	}

	lesson := normalizeLesson(raw, "T")
	assert.Equal(t, "Preferred", lesson.LessonName)
}

func TestNormalizeResponse_FlatLessonsShape(t *testing.T) {
	source := NewLessonSource("http://example.invalid", "1s").(*lessonSource)
	payload := map[string]interface{}{
		"lessons": []interface{}{
			map[string]interface{}{"id": "a", "name": "One"},
			map[string]interface{}{"id": "b", "name": "Two"},
		},
	}

	lessons := source.normalizeResponse(payload, "Default")

	require.Len(t, lessons, 2)
	assert.Equal(t, "Default", lessons[0].OriginatingTopicName)
}

func TestNormalizeResponse_TopicsShape(t *testing.T) {
	source := NewLessonSource("http://example.invalid", "1s").(*lessonSource)
	payload := map[string]interface{}{
		"topics": []interface{}{
			map[string]interface{}{
				"topic_name": "Networking",
				"lessons": []interface{}{
					map[string]interface{}{"id": "a", "name": "TCP"},
				},
			},
		},
	}

	lessons := source.normalizeResponse(payload, "Default")

	require.Len(t, lessons, 1)
	assert.Equal(t, "Networking", lessons[0].OriginatingTopicName)
}

func TestNormalizeResponse_CourseWrapperShape(t *testing.T) {
	source := NewLessonSource("http://example.invalid", "1s").(*lessonSource)
	payload := map[string]interface{}{
		"course": map[string]interface{}{
			"topics": []interface{}{
				map[string]interface{}{
					"name": "Storage",
					"lessons": []interface{}{
						map[string]interface{}{"id": "a", "name": "Volumes"},
						map[string]interface{}{"id": "b", "name": "Snapshots"},
					},
				},
			},
		},
	}

	lessons := source.normalizeResponse(payload, "Default")

	require.Len(t, lessons, 2)
	assert.Equal(t, "Storage", lessons[0].OriginatingTopicName)
}

func TestToArray(t *testing.T) {
	assert.Equal(t, []interface{}{}, toArray(nil))
	assert.Equal(t, []interface{}{"a", "b"}, toArray([]interface{}{"a", "b"}))
	assert.Equal(t, []interface{}{"scalar"}, toArray("scalar"))
	assert.Equal(t, []interface{}{float64(42)}, toArray(float64(42)))
}

func TestToStringArray(t *testing.T) {
	assert.Equal(t, []string{}, toStringArray(nil))
	assert.Equal(t, []string{"a"}, toStringArray("a"))
	assert.Equal(t, []string{"a", "b"}, toStringArray([]interface{}{"a", 1, "b", nil}))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "go-basics", slugify("Go Basics"))
	assert.Equal(t, "cc14", slugify("C/C++14!"))
	assert.Equal(t, "topic", slugify("???"))
}
