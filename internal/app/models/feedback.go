package models

import "time"

// Feedback is a learner rating and comment on a course.
type Feedback struct {
	ID        int64     `json:"id" db:"id"`
	CourseID  int64     `json:"courseId" db:"course_id"`
	LearnerID string    `json:"learnerId" db:"learner_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   *string   `json:"comment,omitempty" db:"comment"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// AssessmentScore is the latest recorded assessment result for a
// learner on a course. Feeds credential grading on completion.
type AssessmentScore struct {
	ID         int64     `json:"id" db:"id"`
	CourseID   int64     `json:"courseId" db:"course_id"`
	LearnerID  string    `json:"learnerId" db:"learner_id"`
	Score      int       `json:"score" db:"score"`
	RecordedAt time.Time `json:"recordedAt" db:"recorded_at"`
}
