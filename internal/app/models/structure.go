package models

// Topic is a structural grouping within a course. It never carries
// content or skills directly.
type Topic struct {
	ID          int64   `json:"id" db:"id"`
	CourseID    int64   `json:"courseId" db:"course_id"`
	Name        string  `json:"name" db:"name"`
	Description *string `json:"description,omitempty" db:"description"`
	Position    int     `json:"position" db:"position"`

	Modules []*Module `json:"modules,omitempty"`
}

// Module is a structural grouping within a topic.
type Module struct {
	ID          int64   `json:"id" db:"id"`
	TopicID     int64   `json:"topicId" db:"topic_id"`
	Name        string  `json:"name" db:"name"`
	Description *string `json:"description,omitempty" db:"description"`
	Position    int     `json:"position" db:"position"`

	Lessons []*Lesson `json:"lessons,omitempty"`
}

// Lesson is a persisted content unit. The four array fields are
// invariant-guaranteed arrays, never null, object or scalar, regardless
// of the shape the source adapter supplied.
type Lesson struct {
	ID          int64   `json:"id" db:"id"`
	ModuleID    int64   `json:"moduleId" db:"module_id"`
	TopicID     int64   `json:"topicId" db:"topic_id"`
	ExternalID  string  `json:"externalId" db:"external_id"`
	Name        string  `json:"name" db:"name"`
	Description *string `json:"description,omitempty" db:"description"`
	ContentType string  `json:"contentType" db:"content_type"`
	Position    int     `json:"position" db:"position"`

	ContentData     []interface{} `json:"contentData" db:"content_data"`
	DevlabExercises []interface{} `json:"devlabExercises" db:"devlab_exercises"`
	Skills          []string      `json:"skills" db:"skills"`
	TrainerIDs      []string      `json:"trainerIds" db:"trainer_ids"`
}
