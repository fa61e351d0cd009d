package models

import "time"

// CourseType distinguishes learner-personalized courses from
// trainer-authored generic ones.
type CourseType string

const (
	CourseTypeLearnerSpecific CourseType = "learner_specific"
	CourseTypeTrainer         CourseType = "trainer"
)

// CourseStatus is the publication state of a course.
type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "draft"
	CourseStatusPublished CourseStatus = "published"
	CourseStatusArchived  CourseStatus = "archived"
)

// StructureSource records where a course's topic/module grouping came from.
type StructureSource string

const (
	StructureSourceAI       StructureSource = "ai-generated"
	StructureSourceFallback StructureSource = "fallback"
)

// CourseMetadata is the structured metadata JSON stored on a course.
// It aggregates skills/tags and carries structure provenance.
type CourseMetadata struct {
	Skills          []string        `json:"skills"`
	Tags            []string        `json:"tags,omitempty"`
	EnrolledLearner string          `json:"enrolledLearner,omitempty"`
	TotalTopics     int             `json:"totalTopics"`
	TotalModules    int             `json:"totalModules"`
	TotalLessons    int             `json:"totalLessons"`
	StructureSource StructureSource `json:"structureSource"`
	GeneratedAt     time.Time       `json:"generatedAt"`
}

// Course represents an assembled learning course.
type Course struct {
	ID          int64        `json:"id" db:"id"`
	Name        string       `json:"name" db:"name"`
	Description *string      `json:"description,omitempty" db:"description"`
	Type        CourseType   `json:"type" db:"type"`
	Status      CourseStatus `json:"status" db:"status"`
	Level       *string      `json:"level,omitempty" db:"level"`
	Duration    *string      `json:"duration,omitempty" db:"duration"`
	CreatedBy   string       `json:"createdBy" db:"created_by"`

	Metadata CourseMetadata `json:"metadata" db:"structured_metadata"`

	EnrolledCount int       `json:"enrolledCount" db:"enrolled_count"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`

	// Relations (populated when the full tree is requested)
	Topics []*Topic `json:"topics,omitempty"`
}
