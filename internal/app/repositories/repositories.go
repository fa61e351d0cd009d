package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories bundles all repository instances for dependency injection.
type Repositories struct {
	CourseRepository       *CourseRepository
	StructureRepository    *StructureRepository
	VersionRepository      *VersionRepository
	RegistrationRepository *RegistrationRepository
	FeedbackRepository     *FeedbackRepository
	AssessmentRepository   *AssessmentRepository
}

// NewRepositories creates all repositories sharing one connection pool.
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		CourseRepository:       NewCourseRepository(db),
		StructureRepository:    NewStructureRepository(db),
		VersionRepository:      NewVersionRepository(db),
		RegistrationRepository: NewRegistrationRepository(db),
		FeedbackRepository:     NewFeedbackRepository(db),
		AssessmentRepository:   NewAssessmentRepository(db),
	}
}
