package models

// TopicInput is one requested topic in a course-input learning path.
type TopicInput struct {
	Name        string
	Description string
	Language    string
}

// CourseInput is the normalized request describing desired course content.
// Validated before any generation or persistence work begins.
type CourseInput struct {
	LearnerID      string
	LearnerName    string
	LearnerCompany string
	LearnerEmail   string
	LearningPath   []TopicInput
	Skills         []string
	Level          string
	Duration       string
	Metadata       map[string]interface{}
}

// Personalized reports whether this input produces a learner-specific course.
func (in *CourseInput) Personalized() bool {
	return in.LearnerID != ""
}

// LessonContent is a fetched or simulated lesson, keyed by a stable
// lesson identifier. Created per generation request and discarded after
// persistence.
type LessonContent struct {
	LessonID    string
	LessonName  string
	Description string
	ContentType string

	// Normalized at the adapter boundary: always arrays.
	ContentData     []interface{}
	DevlabExercises []interface{}
	Skills          []string
	TrainerIDs      []string

	OriginatingTopicName string
}

// ProposedStructure is a Topic→Module→Lesson grouping proposed by the
// structure generator. Every referenced lesson id must exist in the
// lesson pool; violations discard the whole proposal.
type ProposedStructure struct {
	Topics []ProposedTopic `json:"topics"`
}

// ProposedTopic is one topic grouping in a proposed structure.
type ProposedTopic struct {
	TopicName        string           `json:"topicName"`
	TopicDescription string           `json:"topicDescription,omitempty"`
	Modules          []ProposedModule `json:"modules"`
}

// ProposedModule is one module grouping with its assigned lesson ids.
type ProposedModule struct {
	ModuleName        string   `json:"moduleName"`
	ModuleDescription string   `json:"moduleDescription,omitempty"`
	LessonIDs         []string `json:"lessonIds"`
}

// LessonCount returns the number of lesson references across all modules.
func (s *ProposedStructure) LessonCount() int {
	count := 0
	for _, t := range s.Topics {
		for _, m := range t.Modules {
			count += len(m.LessonIDs)
		}
	}
	return count
}

// ModuleCount returns the number of modules across all topics.
func (s *ProposedStructure) ModuleCount() int {
	count := 0
	for _, t := range s.Topics {
		count += len(t.Modules)
	}
	return count
}
