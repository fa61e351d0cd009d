package dto

import (
	"time"

	"github.com/mkaya/coursebuilder/internal/app/models"
)

// RegisterRequest enrolls a learner on an existing course.
type RegisterRequest struct {
	LearnerID    string `json:"learner_id" binding:"required"`
	LearnerEmail string `json:"learner_email" binding:"omitempty,email"`
}

// ProgressUpdateRequest updates registration progress. Reaching 100
// marks the registration completed and triggers completion follow-ups.
type ProgressUpdateRequest struct {
	Progress int `json:"progress" binding:"min=0,max=100"`
}

// LessonCompletionRequest marks one lesson finished; progress is derived
// from the completed-lesson count against the course's total.
type LessonCompletionRequest struct {
	LessonID int64 `json:"lesson_id" binding:"required,gt=0"`
}

// EnrollmentResponse reports a learner's registration state for a course.
// Inconsistent is set when a registration row exists but the enrollment
// flag disagrees with it; callers should surface this, not hide it.
type EnrollmentResponse struct {
	Registration *models.Registration `json:"registration,omitempty"`
	IsEnrolled   bool                 `json:"isEnrolled"`
	Inconsistent bool                 `json:"inconsistent,omitempty"`
}

// FeedbackRequest records a learner rating for a course.
type FeedbackRequest struct {
	LearnerID string `json:"learner_id" binding:"required"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Comment   string `json:"comment"`
}

// CompletionEvent is the payload for course-completion follow-up work.
type CompletionEvent struct {
	CourseID    int64     `json:"courseId"`
	CourseName  string    `json:"courseName"`
	LearnerID   string    `json:"learnerId"`
	CompletedAt time.Time `json:"completedAt"`
}
