package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mkaya/coursebuilder/internal/app/models"
	"github.com/mkaya/coursebuilder/internal/pkg/helpers"
	"github.com/mkaya/coursebuilder/internal/pkg/logger"
)

// LessonSource supplies lesson content for one learning-path topic.
// Fetching is best-effort: when the external content service is
// unreachable or returns garbage, the adapter degrades to deterministic
// simulated content. It never returns an error.
type LessonSource interface {
	FetchLessons(ctx context.Context, topic models.TopicInput, skills []string, courseRef string) []models.LessonContent
}

type lessonSource struct {
	client  *http.Client
	baseURL string
	log     zerolog.Logger
}

// NewLessonSource creates the adapter. An empty content-service base URL
// means every fetch is simulated locally.
func NewLessonSource(baseURL string, timeout string) LessonSource {
	return &lessonSource{
		client:  &http.Client{Timeout: helpers.ParseDuration(timeout, 15*time.Second)},
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     logger.With("lesson_source"),
	}
}

type lessonFetchRequest struct {
	TopicName        string   `json:"topic_name"`
	TopicDescription string   `json:"topic_description,omitempty"`
	TopicLanguage    string   `json:"topic_language,omitempty"`
	Skills           []string `json:"skills"`
	CourseRef        string   `json:"course_ref"`
}

func (s *lessonSource) FetchLessons(ctx context.Context, topic models.TopicInput, skills []string, courseRef string) []models.LessonContent {
	if s.baseURL == "" {
		return s.simulate(topic, skills)
	}

	lessons, err := s.fetchRemote(ctx, topic, skills, courseRef)
	if err != nil {
		s.log.Warn().Err(err).Str("topic", topic.Name).Msg("Content service unavailable, simulating lessons")
		return s.simulate(topic, skills)
	}
	if len(lessons) == 0 {
		s.log.Warn().Str("topic", topic.Name).Msg("Content service returned no lessons, simulating")
		return s.simulate(topic, skills)
	}
	return lessons
}

func (s *lessonSource) fetchRemote(ctx context.Context, topic models.TopicInput, skills []string, courseRef string) ([]models.LessonContent, error) {
	body, err := json.Marshal(lessonFetchRequest{
		TopicName:        topic.Name,
		TopicDescription: topic.Description,
		TopicLanguage:    topic.Language,
		Skills:           skills,
		CourseRef:        courseRef,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/lessons", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("content service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("content service returned status %d", resp.StatusCode)
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return s.normalizeResponse(payload, topic.Name), nil
}

// normalizeResponse accepts the three shapes the content service has
// been observed to return: a flat lessons array, a topics array each
// holding lessons, or a course wrapper around topics.
func (s *lessonSource) normalizeResponse(payload map[string]interface{}, defaultTopic string) []models.LessonContent {
	if raw, ok := payload["lessons"]; ok {
		return s.normalizeLessonList(toArray(raw), defaultTopic)
	}

	if raw, ok := payload["topics"]; ok {
		return s.normalizeTopicList(toArray(raw), defaultTopic)
	}

	if raw, ok := payload["course"]; ok {
		for _, item := range toArray(raw) {
			if courseMap, ok := item.(map[string]interface{}); ok {
				if topics, ok := courseMap["topics"]; ok {
					return s.normalizeTopicList(toArray(topics), defaultTopic)
				}
			}
		}
	}

	return nil
}

func (s *lessonSource) normalizeTopicList(topics []interface{}, defaultTopic string) []models.LessonContent {
	lessons := []models.LessonContent{}
	for _, item := range topics {
		topicMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		topicName := firstString(topicMap, "topic_name", "topicName", "name")
		if topicName == "" {
			topicName = defaultTopic
		}
		lessons = append(lessons, s.normalizeLessonList(toArray(topicMap["lessons"]), topicName)...)
	}
	return lessons
}

func (s *lessonSource) normalizeLessonList(items []interface{}, topicName string) []models.LessonContent {
	lessons := []models.LessonContent{}
	for _, item := range items {
		lessonMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		lessons = append(lessons, normalizeLesson(lessonMap, topicName))
	}
	return lessons
}

// normalizeLesson enforces the array invariant: contentData,
// devlabExercises, skills and trainerIds leave this function as arrays
// no matter what shape the service sent.
func normalizeLesson(raw map[string]interface{}, topicName string) models.LessonContent {
	id := firstString(raw, "lesson_id", "lessonId", "id")
	if id == "" {
		id = uuid.NewString()
	}

	name := firstString(raw, "lesson_name", "lessonName", "name", "title")
	if name == "" {
		name = "Untitled Lesson"
	}

	contentType := firstString(raw, "content_type", "contentType", "type")
	if contentType == "" {
		contentType = "text"
	}

	return models.LessonContent{
		LessonID:             id,
		LessonName:           name,
		Description:          firstString(raw, "description", "lesson_description"),
		ContentType:          contentType,
		ContentData:          toArray(firstPresent(raw, "content_data", "contentData", "content")),
		DevlabExercises:      toArray(firstPresent(raw, "devlab_exercises", "devlabExercises", "exercises")),
		Skills:               toStringArray(raw["skills"]),
		TrainerIDs:           toStringArray(firstPresent(raw, "trainer_ids", "trainerIds", "trainers")),
		OriginatingTopicName: topicName,
	}
}

var simulatedNameTemplates = []string{
	"Introduction to %s",
	"Core Concepts of %s",
	"%s in Practice",
	"Advanced %s Techniques",
	"Troubleshooting %s",
	"%s Case Studies",
}

var simulatedContentTypes = []string{"video", "article", "lab"}

// simulate produces deterministic lesson content for a topic. Names and
// count are seeded by the first skill, with the topic name as the seed
// when no skills were requested, so the same input always yields the
// same lessons and the pipeline stays reproducible without the service.
func (s *lessonSource) simulate(topic models.TopicInput, skills []string) []models.LessonContent {
	subject := topic.Name
	if len(skills) > 0 {
		subject = skills[0]
	}

	count := 3 + int(hashString(subject)%4)
	slug := slugify(topic.Name)

	lessons := make([]models.LessonContent, 0, count)
	for i := 0; i < count; i++ {
		name := fmt.Sprintf(simulatedNameTemplates[i%len(simulatedNameTemplates)], subject)
		difficulty := difficultyForIndex(i)

		lessons = append(lessons, models.LessonContent{
			LessonID:    fmt.Sprintf("sim-%s-%d", slug, i+1),
			LessonName:  name,
			Description: fmt.Sprintf("A %s level lesson covering %s.", difficulty, subject),
			ContentType: simulatedContentTypes[i%len(simulatedContentTypes)],
			ContentData: []interface{}{
				map[string]interface{}{"type": "text", "difficulty": difficulty, "body": fmt.Sprintf("Overview of %s.", name)},
				map[string]interface{}{"type": "code", "difficulty": difficulty, "body": fmt.Sprintf("Worked example for %s.", name)},
				map[string]interface{}{"type": "slides", "difficulty": difficulty, "body": fmt.Sprintf("Slide deck for %s.", name)},
			},
			DevlabExercises: []interface{}{
				map[string]interface{}{"title": fmt.Sprintf("Exercise: %s", name), "difficulty": difficulty},
			},
			Skills:               append([]string{}, skills...),
			TrainerIDs:           []string{},
			OriginatingTopicName: topic.Name,
		})
	}
	return lessons
}

func difficultyForIndex(i int) string {
	switch {
	case i == 0:
		return "beginner"
	case i <= 2:
		return "intermediate"
	default:
		return "advanced"
	}
}

func hashString(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(s)))
	return h.Sum32()
}

func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "topic"
	}
	return slug
}

// toArray coerces any JSON value into an array. nil becomes an empty
// array, arrays pass through, everything else is wrapped.
func toArray(v interface{}) []interface{} {
	switch value := v.(type) {
	case nil:
		return []interface{}{}
	case []interface{}:
		return value
	default:
		return []interface{}{value}
	}
}

// toStringArray coerces any JSON value into a string array, dropping
// elements that are not strings.
func toStringArray(v interface{}) []string {
	result := []string{}
	for _, item := range toArray(v) {
		if s, ok := item.(string); ok && s != "" {
			result = append(result, s)
		}
	}
	return result
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstPresent(m map[string]interface{}, keys ...string) interface{} {
	for _, key := range keys {
		if v, ok := m[key]; ok && v != nil {
			return v
		}
	}
	return nil
}
