package dto

import (
	"strings"

	"github.com/mkaya/coursebuilder/internal/app/models"
)

// TopicInputRequest is one requested topic in the learning path.
type TopicInputRequest struct {
	TopicName        string `json:"topic_name" binding:"required"`
	TopicDescription string `json:"topic_description"`
	TopicLanguage    string `json:"topic_language"`
}

// CreateCourseRequest is the inbound course-input contract. learning_path
// and skills must be non-empty; everything else is optional context.
type CreateCourseRequest struct {
	LearnerID      string                 `json:"learner_id"`
	LearnerName    string                 `json:"learner_name"`
	LearnerCompany string                 `json:"learner_company"`
	LearnerEmail   string                 `json:"learner_email"`
	LearningPath   []TopicInputRequest    `json:"learning_path" binding:"required,min=1,dive"`
	Skills         []string               `json:"skills" binding:"required,min=1"`
	Level          string                 `json:"level"`
	Duration       string                 `json:"duration"`
	Metadata       map[string]interface{} `json:"metadata"`
}

// ToCourseInput converts the request into the normalized CourseInput,
// trimming whitespace on topic names and skills.
func (r *CreateCourseRequest) ToCourseInput() *models.CourseInput {
	input := &models.CourseInput{
		LearnerID:      strings.TrimSpace(r.LearnerID),
		LearnerName:    strings.TrimSpace(r.LearnerName),
		LearnerCompany: strings.TrimSpace(r.LearnerCompany),
		LearnerEmail:   strings.TrimSpace(r.LearnerEmail),
		Level:          r.Level,
		Duration:       r.Duration,
		Metadata:       r.Metadata,
	}

	for _, t := range r.LearningPath {
		name := strings.TrimSpace(t.TopicName)
		if name == "" {
			continue
		}
		input.LearningPath = append(input.LearningPath, models.TopicInput{
			Name:        name,
			Description: strings.TrimSpace(t.TopicDescription),
			Language:    strings.TrimSpace(t.TopicLanguage),
		})
	}

	for _, s := range r.Skills {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			input.Skills = append(input.Skills, trimmed)
		}
	}

	return input
}

// StructureSummary reports what the generation pipeline persisted.
type StructureSummary struct {
	Topics          int                    `json:"topics"`
	Modules         int                    `json:"modules"`
	Lessons         int                    `json:"lessons"`
	StructureSource models.StructureSource `json:"structureSource"`
}

// CreateCourseResponse is returned after a successful generation run.
type CreateCourseResponse struct {
	CourseID         int64            `json:"courseId"`
	CourseName       string           `json:"courseName"`
	StructureSummary StructureSummary `json:"structureSummary"`
}

// CourseListItem is a browse-view course row without the structure tree.
type CourseListItem struct {
	ID            int64                 `json:"id"`
	Name          string                `json:"name"`
	Description   *string               `json:"description,omitempty"`
	Type          models.CourseType     `json:"type"`
	Status        models.CourseStatus   `json:"status"`
	Level         *string               `json:"level,omitempty"`
	EnrolledCount int                   `json:"enrolledCount"`
	Metadata      models.CourseMetadata `json:"metadata"`
}

// FromCourse converts a course model into a list item.
func FromCourse(course *models.Course) CourseListItem {
	if course == nil {
		return CourseListItem{}
	}
	return CourseListItem{
		ID:            course.ID,
		Name:          course.Name,
		Description:   course.Description,
		Type:          course.Type,
		Status:        course.Status,
		Level:         course.Level,
		EnrolledCount: course.EnrolledCount,
		Metadata:      course.Metadata,
	}
}

// UpdateCourseStatusRequest moves a course between publication states.
type UpdateCourseStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=draft published archived"`
}

// CourseListResponse represents a filtered, paginated course listing.
type CourseListResponse struct {
	Courses []CourseListItem `json:"courses"`
	PaginationInfo
}
