package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkaya/coursebuilder/internal/app/models"
	"github.com/mkaya/coursebuilder/internal/pkg/apperrors"
)

func personalizedInput() *models.CourseInput {
	return &models.CourseInput{
		LearnerID:    "learner-7",
		LearnerName:  "Ada Lovelace",
		LearnerEmail: "ada@example.com",
		LearningPath: testPath(),
		Skills:       []string{"go", "testing"},
		Level:        "intermediate",
	}
}

func trainerInput() *models.CourseInput {
	return &models.CourseInput{
		LearningPath: testPath(),
		Skills:       []string{"go", "testing"},
	}
}

func TestValidateCourseInput(t *testing.T) {
	assert.ErrorIs(t, validateCourseInput(nil), apperrors.ErrEmptyLearningPath)
	assert.ErrorIs(t, validateCourseInput(&models.CourseInput{Skills: []string{"go"}}), apperrors.ErrEmptyLearningPath)
	assert.ErrorIs(t, validateCourseInput(&models.CourseInput{LearningPath: testPath()}), apperrors.ErrEmptySkills)
	assert.NoError(t, validateCourseInput(trainerInput()))
}

func TestBuildCourseModel_Personalized(t *testing.T) {
	course := buildCourseModel(personalizedInput(), models.StructureSourceAI)

	assert.Equal(t, "Go Basics for Ada", course.Name)
	assert.Equal(t, models.CourseTypeLearnerSpecific, course.Type)
	assert.Equal(t, models.CourseStatusDraft, course.Status)
	assert.Equal(t, "learner-7", course.CreatedBy)
	assert.Equal(t, "learner-7", course.Metadata.EnrolledLearner)
	assert.Equal(t, models.StructureSourceAI, course.Metadata.StructureSource)
	assert.Equal(t, []string{"go", "testing"}, course.Metadata.Skills)
	assert.Equal(t, []string{"Go Basics", "Concurrency"}, course.Metadata.Tags)
	require.NotNil(t, course.Level)
	assert.Equal(t, "intermediate", *course.Level)
	assert.False(t, course.Metadata.GeneratedAt.IsZero())
}

func TestBuildCourseModel_Trainer(t *testing.T) {
	course := buildCourseModel(trainerInput(), models.StructureSourceFallback)

	assert.Equal(t, "go Course", course.Name)
	assert.Equal(t, models.CourseTypeTrainer, course.Type)
	assert.Equal(t, "system", course.CreatedBy)
	assert.Empty(t, course.Metadata.EnrolledLearner)
	assert.Equal(t, models.StructureSourceFallback, course.Metadata.StructureSource)
}

func TestBuildCourseModel_LearnerWithoutNameFallsBackToID(t *testing.T) {
	input := personalizedInput()
	input.LearnerName = ""

	course := buildCourseModel(input, models.StructureSourceAI)
	assert.Equal(t, "Go Basics for learner-7", course.Name)
}

func TestBuildCoursePlan_ResolvesLessonsAndSkipsUnknown(t *testing.T) {
	result := GenerationResult{
		Source: models.StructureSourceAI,
		Structure: models.ProposedStructure{
			Topics: []models.ProposedTopic{
				{
					TopicName:        "Foundations",
					TopicDescription: "Start here",
					Modules: []models.ProposedModule{
						{ModuleName: "Getting Started", LessonIDs: []string{"l1", "ghost", "l2"}},
					},
				},
				{
					TopicName: "Advanced",
					Modules: []models.ProposedModule{
						{ModuleName: "Deep Dive", LessonIDs: []string{"l3"}},
					},
				},
			},
		},
	}

	plan := buildCoursePlan(personalizedInput(), result, testPool())

	// The phantom lesson id is skipped, never aborts the plan.
	assert.Equal(t, []string{"ghost"}, plan.skippedLessonIDs)

	require.Len(t, plan.topics, 2)
	foundations := plan.topics[0]
	assert.Equal(t, "Foundations", foundations.Name)
	require.NotNil(t, foundations.Description)
	assert.Equal(t, "Start here", *foundations.Description)

	require.Len(t, foundations.Modules, 1)
	require.Len(t, foundations.Modules[0].Lessons, 2)
	assert.Equal(t, "l1", foundations.Modules[0].Lessons[0].ExternalID)
	assert.Equal(t, "Hello Go", foundations.Modules[0].Lessons[0].Name)

	advanced := plan.topics[1]
	assert.Nil(t, advanced.Description)
	require.Len(t, advanced.Modules[0].Lessons, 1)
	assert.Equal(t, "l3", advanced.Modules[0].Lessons[0].ExternalID)
}

func TestLessonFromContent_PreservesArrays(t *testing.T) {
	content := &models.LessonContent{
		LessonID:        "x",
		LessonName:      "X",
		Description:     "desc",
		ContentType:     "video",
		ContentData:     []interface{}{map[string]interface{}{"type": "text"}},
		DevlabExercises: []interface{}{},
		Skills:          []string{"go"},
		TrainerIDs:      []string{"t1"},
	}

	lesson := lessonFromContent(content)

	assert.Equal(t, "x", lesson.ExternalID)
	assert.Equal(t, "video", lesson.ContentType)
	require.NotNil(t, lesson.Description)
	assert.Equal(t, "desc", *lesson.Description)
	assert.Len(t, lesson.ContentData, 1)
	assert.NotNil(t, lesson.DevlabExercises)
	assert.Equal(t, []string{"go"}, lesson.Skills)
	assert.Equal(t, []string{"t1"}, lesson.TrainerIDs)
}

func TestFirstName(t *testing.T) {
	assert.Equal(t, "Ada", firstName("Ada Lovelace"))
	assert.Equal(t, "Ada", firstName("  Ada  "))
	assert.Equal(t, "", firstName(""))
}
