package models

import "time"

// RegistrationStatus is the lifecycle state of a learner registration.
type RegistrationStatus string

const (
	RegistrationInProgress RegistrationStatus = "in_progress"
	RegistrationCompleted  RegistrationStatus = "completed"
)

// Registration links a learner to a course. The (learner_id, course_id)
// pair is unique; duplicate registrations are rejected at the store.
type Registration struct {
	ID           int64              `json:"id" db:"id"`
	LearnerID    string             `json:"learnerId" db:"learner_id"`
	LearnerEmail *string            `json:"learnerEmail,omitempty" db:"learner_email"`
	CourseID     int64              `json:"courseId" db:"course_id"`
	Status       RegistrationStatus `json:"status" db:"status"`
	Progress     int                `json:"progress" db:"progress"`
	IsEnrolled   bool               `json:"isEnrolled" db:"is_enrolled"`
	EnrolledDate time.Time          `json:"enrolledDate" db:"enrolled_date"`
	CompletedAt  *time.Time         `json:"completedAt,omitempty" db:"completed_at"`
}
