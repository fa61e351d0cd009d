package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkaya/coursebuilder/internal/app/models"
)

// StructureRepository persists and loads the topic/module/lesson tree.
type StructureRepository struct {
	db *pgxpool.Pool
}

// NewStructureRepository creates a new StructureRepository
func NewStructureRepository(db *pgxpool.Pool) *StructureRepository {
	return &StructureRepository{db: db}
}

// InsertTopicTx inserts a topic row within an open transaction.
func (r *StructureRepository) InsertTopicTx(ctx context.Context, tx pgx.Tx, topic *models.Topic) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO topics (course_id, name, description, position)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, topic.CourseID, topic.Name, topic.Description, topic.Position).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("error inserting topic: %w", err)
	}
	return id, nil
}

// InsertModuleTx inserts a module row within an open transaction.
func (r *StructureRepository) InsertModuleTx(ctx context.Context, tx pgx.Tx, module *models.Module) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO modules (topic_id, name, description, position)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, module.TopicID, module.Name, module.Description, module.Position).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("error inserting module: %w", err)
	}
	return id, nil
}

// InsertLessonTx inserts a lesson row within an open transaction. Array
// and object payloads are stored as jsonb.
func (r *StructureRepository) InsertLessonTx(ctx context.Context, tx pgx.Tx, lesson *models.Lesson) (int64, error) {
	contentData, err := json.Marshal(lesson.ContentData)
	if err != nil {
		return 0, fmt.Errorf("error marshaling lesson content data: %w", err)
	}
	exercises, err := json.Marshal(lesson.DevlabExercises)
	if err != nil {
		return 0, fmt.Errorf("error marshaling lesson exercises: %w", err)
	}
	skills, err := json.Marshal(lesson.Skills)
	if err != nil {
		return 0, fmt.Errorf("error marshaling lesson skills: %w", err)
	}
	trainers, err := json.Marshal(lesson.TrainerIDs)
	if err != nil {
		return 0, fmt.Errorf("error marshaling lesson trainers: %w", err)
	}

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO lessons (module_id, topic_id, external_id, name, description,
			content_type, content_data, devlab_exercises, skills, trainer_ids, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, lesson.ModuleID, lesson.TopicID, lesson.ExternalID, lesson.Name, lesson.Description,
		lesson.ContentType, contentData, exercises, skills, trainers, lesson.Position).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("error inserting lesson: %w", err)
	}
	return id, nil
}

// GetTreeByCourseID loads the full structure tree for a course, ordered
// by position at every level.
func (r *StructureRepository) GetTreeByCourseID(ctx context.Context, courseID int64) ([]*models.Topic, error) {
	topics, err := r.getTopics(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if len(topics) == 0 {
		return topics, nil
	}

	topicIndex := make(map[int64]*models.Topic, len(topics))
	for _, t := range topics {
		topicIndex[t.ID] = t
	}

	modules, err := r.getModules(ctx, courseID)
	if err != nil {
		return nil, err
	}
	moduleIndex := make(map[int64]*models.Module, len(modules))
	for _, m := range modules {
		moduleIndex[m.ID] = m
		if t, ok := topicIndex[m.TopicID]; ok {
			t.Modules = append(t.Modules, m)
		}
	}

	lessons, err := r.getLessons(ctx, courseID)
	if err != nil {
		return nil, err
	}
	for _, l := range lessons {
		if m, ok := moduleIndex[l.ModuleID]; ok {
			m.Lessons = append(m.Lessons, l)
		}
	}

	return topics, nil
}

// CountLessons returns the total lesson count for a course.
func (r *StructureRepository) CountLessons(ctx context.Context, courseID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM lessons l
		JOIN topics t ON t.id = l.topic_id
		WHERE t.course_id = $1
	`, courseID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting lessons: %w", err)
	}
	return count, nil
}

func (r *StructureRepository) getTopics(ctx context.Context, courseID int64) ([]*models.Topic, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, course_id, name, description, position
		FROM topics
		WHERE course_id = $1
		ORDER BY position, id
	`, courseID)
	if err != nil {
		return nil, fmt.Errorf("error querying topics: %w", err)
	}
	defer rows.Close()

	topics := []*models.Topic{}
	for rows.Next() {
		var t models.Topic
		if err := rows.Scan(&t.ID, &t.CourseID, &t.Name, &t.Description, &t.Position); err != nil {
			return nil, fmt.Errorf("error scanning topic: %w", err)
		}
		topics = append(topics, &t)
	}
	return topics, rows.Err()
}

func (r *StructureRepository) getModules(ctx context.Context, courseID int64) ([]*models.Module, error) {
	rows, err := r.db.Query(ctx, `
		SELECT m.id, m.topic_id, m.name, m.description, m.position
		FROM modules m
		JOIN topics t ON t.id = m.topic_id
		WHERE t.course_id = $1
		ORDER BY m.position, m.id
	`, courseID)
	if err != nil {
		return nil, fmt.Errorf("error querying modules: %w", err)
	}
	defer rows.Close()

	modules := []*models.Module{}
	for rows.Next() {
		var m models.Module
		if err := rows.Scan(&m.ID, &m.TopicID, &m.Name, &m.Description, &m.Position); err != nil {
			return nil, fmt.Errorf("error scanning module: %w", err)
		}
		modules = append(modules, &m)
	}
	return modules, rows.Err()
}

func (r *StructureRepository) getLessons(ctx context.Context, courseID int64) ([]*models.Lesson, error) {
	rows, err := r.db.Query(ctx, `
		SELECT l.id, l.module_id, l.topic_id, l.external_id, l.name, l.description,
			l.content_type, l.content_data, l.devlab_exercises, l.skills, l.trainer_ids, l.position
		FROM lessons l
		JOIN topics t ON t.id = l.topic_id
		WHERE t.course_id = $1
		ORDER BY l.position, l.id
	`, courseID)
	if err != nil {
		return nil, fmt.Errorf("error querying lessons: %w", err)
	}
	defer rows.Close()

	lessons := []*models.Lesson{}
	for rows.Next() {
		var l models.Lesson
		var contentData, exercises, skills, trainers []byte
		err := rows.Scan(&l.ID, &l.ModuleID, &l.TopicID, &l.ExternalID, &l.Name, &l.Description,
			&l.ContentType, &contentData, &exercises, &skills, &trainers, &l.Position)
		if err != nil {
			return nil, fmt.Errorf("error scanning lesson: %w", err)
		}

		if len(contentData) > 0 {
			if err := json.Unmarshal(contentData, &l.ContentData); err != nil {
				return nil, fmt.Errorf("error unmarshaling lesson content data: %w", err)
			}
		}
		if len(exercises) > 0 {
			if err := json.Unmarshal(exercises, &l.DevlabExercises); err != nil {
				return nil, fmt.Errorf("error unmarshaling lesson exercises: %w", err)
			}
		}
		if len(skills) > 0 {
			if err := json.Unmarshal(skills, &l.Skills); err != nil {
				return nil, fmt.Errorf("error unmarshaling lesson skills: %w", err)
			}
		}
		if len(trainers) > 0 {
			if err := json.Unmarshal(trainers, &l.TrainerIDs); err != nil {
				return nil, fmt.Errorf("error unmarshaling lesson trainers: %w", err)
			}
		}

		lessons = append(lessons, &l)
	}
	return lessons, rows.Err()
}
