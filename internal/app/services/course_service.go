package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/mkaya/coursebuilder/internal/app/models"
	"github.com/mkaya/coursebuilder/internal/app/models/dto"
	"github.com/mkaya/coursebuilder/internal/app/repositories"
	"github.com/mkaya/coursebuilder/internal/db"
	"github.com/mkaya/coursebuilder/internal/pkg/apperrors"
	"github.com/mkaya/coursebuilder/internal/pkg/logger"
)

const entityTypeCourse = "course"

// CourseService drives the course-assembly pipeline: validate input,
// fetch lesson content, generate a structure and persist everything in
// one transaction.
type CourseService struct {
	db           *db.PostgresDB
	repos        *repositories.Repositories
	lessonSource LessonSource
	generator    *StructureGenerator
	log          zerolog.Logger
}

// NewCourseService creates a new CourseService
func NewCourseService(database *db.PostgresDB, repos *repositories.Repositories, source LessonSource, generator *StructureGenerator) *CourseService {
	return &CourseService{
		db:           database,
		repos:        repos,
		lessonSource: source,
		generator:    generator,
		log:          logger.With("course_service"),
	}
}

// CreateCourse runs the full pipeline for one course-input request.
// External degradation (content service, AI) never fails the request;
// only validation and persistence errors do.
func (s *CourseService) CreateCourse(ctx context.Context, input *models.CourseInput) (*dto.CreateCourseResponse, error) {
	if err := validateCourseInput(input); err != nil {
		return nil, err
	}

	courseRef := uuid.NewString()

	pool := []models.LessonContent{}
	for _, topic := range input.LearningPath {
		pool = append(pool, s.lessonSource.FetchLessons(ctx, topic, input.Skills, courseRef)...)
	}

	result := s.generator.Generate(ctx, input.LearningPath, input.Skills, pool)

	plan := buildCoursePlan(input, result, pool)
	for _, id := range plan.skippedLessonIDs {
		s.log.Warn().Str("lessonId", id).Msg("Structure references lesson missing from pool, skipping")
	}

	var response *dto.CreateCourseResponse
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		courseID, err := s.repos.CourseRepository.InsertTx(ctx, tx, plan.course)
		if err != nil {
			return err
		}

		if input.Personalized() {
			if err := s.registerLearnerTx(ctx, tx, courseID, input); err != nil {
				return err
			}
		}

		counts, err := s.persistTreeTx(ctx, tx, courseID, plan.topics)
		if err != nil {
			return err
		}

		metadata := plan.course.Metadata
		metadata.TotalTopics = counts.topics
		metadata.TotalModules = counts.modules
		metadata.TotalLessons = counts.lessons
		if err := s.repos.CourseRepository.UpdateMetadataTx(ctx, tx, courseID, metadata); err != nil {
			return err
		}

		snapshot := *plan.course
		snapshot.ID = courseID
		snapshot.Metadata = metadata
		if _, err := s.repos.VersionRepository.InsertTx(ctx, tx, entityTypeCourse, courseID, snapshot); err != nil {
			return err
		}

		response = &dto.CreateCourseResponse{
			CourseID:   courseID,
			CourseName: plan.course.Name,
			StructureSummary: dto.StructureSummary{
				Topics:          counts.topics,
				Modules:         counts.modules,
				Lessons:         counts.lessons,
				StructureSource: metadata.StructureSource,
			},
		}
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Msg("Course persistence failed")
		return nil, fmt.Errorf("%w: %v", apperrors.ErrCoursePersistFailed, err)
	}

	s.log.Info().
		Int64("courseId", response.CourseID).
		Str("source", string(response.StructureSummary.StructureSource)).
		Int("lessons", response.StructureSummary.Lessons).
		Msg("Course created")

	return response, nil
}

func (s *CourseService) registerLearnerTx(ctx context.Context, tx pgx.Tx, courseID int64, input *models.CourseInput) error {
	reg := &models.Registration{
		LearnerID:    input.LearnerID,
		CourseID:     courseID,
		Status:       models.RegistrationInProgress,
		Progress:     0,
		IsEnrolled:   true,
		EnrolledDate: time.Now(),
	}
	if input.LearnerEmail != "" {
		email := input.LearnerEmail
		reg.LearnerEmail = &email
	}

	if _, err := s.repos.RegistrationRepository.InsertTx(ctx, tx, reg); err != nil {
		return err
	}
	return s.repos.CourseRepository.IncrementEnrolledTx(ctx, tx, courseID)
}

type treeCounts struct {
	topics  int
	modules int
	lessons int
}

func (s *CourseService) persistTreeTx(ctx context.Context, tx pgx.Tx, courseID int64, topics []*models.Topic) (treeCounts, error) {
	counts := treeCounts{}

	for ti, topic := range topics {
		topic.CourseID = courseID
		topic.Position = ti
		topicID, err := s.repos.StructureRepository.InsertTopicTx(ctx, tx, topic)
		if err != nil {
			return counts, err
		}
		counts.topics++

		for mi, module := range topic.Modules {
			module.TopicID = topicID
			module.Position = mi
			moduleID, err := s.repos.StructureRepository.InsertModuleTx(ctx, tx, module)
			if err != nil {
				return counts, err
			}
			counts.modules++

			for li, lesson := range module.Lessons {
				lesson.ModuleID = moduleID
				lesson.TopicID = topicID
				lesson.Position = li
				if _, err := s.repos.StructureRepository.InsertLessonTx(ctx, tx, lesson); err != nil {
					return counts, err
				}
				counts.lessons++
			}
		}
	}

	return counts, nil
}

// coursePlan is the fully assembled persistence input: the course row
// plus the structure tree resolved against the lesson pool. Building it
// is pure so the assembly rules are testable without a database.
type coursePlan struct {
	course           *models.Course
	topics           []*models.Topic
	skippedLessonIDs []string
}

func buildCoursePlan(input *models.CourseInput, result GenerationResult, pool []models.LessonContent) *coursePlan {
	poolByID := make(map[string]*models.LessonContent, len(pool))
	for i := range pool {
		poolByID[pool[i].LessonID] = &pool[i]
	}

	plan := &coursePlan{course: buildCourseModel(input, result.Source)}

	for _, proposedTopic := range result.Structure.Topics {
		topic := &models.Topic{Name: proposedTopic.TopicName}
		if proposedTopic.TopicDescription != "" {
			description := proposedTopic.TopicDescription
			topic.Description = &description
		}

		for _, proposedModule := range proposedTopic.Modules {
			module := &models.Module{Name: proposedModule.ModuleName}
			if proposedModule.ModuleDescription != "" {
				description := proposedModule.ModuleDescription
				module.Description = &description
			}

			for _, lessonID := range proposedModule.LessonIDs {
				content, ok := poolByID[lessonID]
				if !ok {
					plan.skippedLessonIDs = append(plan.skippedLessonIDs, lessonID)
					continue
				}
				module.Lessons = append(module.Lessons, lessonFromContent(content))
			}

			topic.Modules = append(topic.Modules, module)
		}

		plan.topics = append(plan.topics, topic)
	}

	return plan
}

func lessonFromContent(content *models.LessonContent) *models.Lesson {
	lesson := &models.Lesson{
		ExternalID:      content.LessonID,
		Name:            content.LessonName,
		ContentType:     content.ContentType,
		ContentData:     content.ContentData,
		DevlabExercises: content.DevlabExercises,
		Skills:          content.Skills,
		TrainerIDs:      content.TrainerIDs,
	}
	if content.Description != "" {
		description := content.Description
		lesson.Description = &description
	}
	return lesson
}

// buildCourseModel derives the course row from the input. Personalized
// courses are named after the learner and the focus topic; trainer
// courses after the primary skill.
func buildCourseModel(input *models.CourseInput, source models.StructureSource) *models.Course {
	focusTopic := "General Skills"
	if len(input.LearningPath) > 0 {
		focusTopic = input.LearningPath[0].Name
	}

	var name, description, createdBy string
	courseType := models.CourseTypeTrainer

	if input.Personalized() {
		courseType = models.CourseTypeLearnerSpecific
		learner := firstName(input.LearnerName)
		if learner == "" {
			learner = input.LearnerID
		}
		name = fmt.Sprintf("%s for %s", focusTopic, learner)
		description = fmt.Sprintf("Personalized course on %s, assembled for %s.", focusTopic, learner)
		createdBy = input.LearnerID
	} else {
		primarySkill := focusTopic
		if len(input.Skills) > 0 {
			primarySkill = input.Skills[0]
		}
		name = fmt.Sprintf("%s Course", primarySkill)
		description = fmt.Sprintf("Course covering %s.", strings.Join(input.Skills, ", "))
		createdBy = "system"
	}

	course := &models.Course{
		Name:        name,
		Description: &description,
		Type:        courseType,
		Status:      models.CourseStatusDraft,
		CreatedBy:   createdBy,
		Metadata: models.CourseMetadata{
			Skills:          append([]string{}, input.Skills...),
			Tags:            topicNames(input.LearningPath),
			StructureSource: source,
			GeneratedAt:     time.Now(),
		},
	}
	if input.Personalized() {
		course.Metadata.EnrolledLearner = input.LearnerID
	}
	if input.Level != "" {
		level := input.Level
		course.Level = &level
	}
	if input.Duration != "" {
		duration := input.Duration
		course.Duration = &duration
	}

	return course
}

func validateCourseInput(input *models.CourseInput) error {
	if input == nil || len(input.LearningPath) == 0 {
		return apperrors.ErrEmptyLearningPath
	}
	if len(input.Skills) == 0 {
		return apperrors.ErrEmptySkills
	}
	return nil
}

func firstName(fullName string) string {
	fields := strings.Fields(strings.TrimSpace(fullName))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func topicNames(path []models.TopicInput) []string {
	names := make([]string, 0, len(path))
	for _, topic := range path {
		names = append(names, topic.Name)
	}
	return names
}

// GetCourse returns a course with its full structure tree.
func (s *CourseService) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	course, err := s.repos.CourseRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	topics, err := s.repos.StructureRepository.GetTreeByCourseID(ctx, id)
	if err != nil {
		return nil, err
	}
	course.Topics = topics

	return course, nil
}

// ListCourses returns a filtered, paginated course listing.
func (s *CourseService) ListCourses(ctx context.Context, courseType, status *string, page, pageSize int) (*dto.CourseListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	courses, total, err := s.repos.CourseRepository.GetAll(ctx, courseType, status, page, pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]dto.CourseListItem, 0, len(courses))
	for _, course := range courses {
		items = append(items, dto.FromCourse(course))
	}

	return &dto.CourseListResponse{
		Courses: items,
		PaginationInfo: dto.PaginationInfo{
			CurrentPage: page,
			PageSize:    pageSize,
			TotalItems:  int(total),
			TotalPages:  int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}, nil
}

// UpdateStatus transitions a course's publication status.
func (s *CourseService) UpdateStatus(ctx context.Context, id int64, status string) error {
	switch models.CourseStatus(status) {
	case models.CourseStatusDraft, models.CourseStatusPublished, models.CourseStatusArchived:
	default:
		return apperrors.ErrInvalidCourseStatus
	}
	return s.repos.CourseRepository.UpdateStatus(ctx, id, models.CourseStatus(status))
}

// DeleteCourse removes a course and its structure tree.
func (s *CourseService) DeleteCourse(ctx context.Context, id int64) error {
	return s.repos.CourseRepository.Delete(ctx, id)
}

// ListVersions returns the stored snapshots of a course, newest first.
func (s *CourseService) ListVersions(ctx context.Context, courseID int64) ([]*models.Version, error) {
	if _, err := s.repos.CourseRepository.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	return s.repos.VersionRepository.ListByEntity(ctx, entityTypeCourse, courseID)
}
