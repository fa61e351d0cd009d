package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkaya/coursebuilder/internal/app/models/dto"
	"github.com/mkaya/coursebuilder/internal/app/services"
	"github.com/mkaya/coursebuilder/internal/middleware"
)

// RegistrationController handles enrollment and progress operations
type RegistrationController struct {
	registrationService *services.RegistrationService
}

// NewRegistrationController creates a new RegistrationController
func NewRegistrationController(registrationService *services.RegistrationService) *RegistrationController {
	return &RegistrationController{
		registrationService: registrationService,
	}
}

// Register enrolls a learner on a course
// @Summary Register a learner
// @Description Creates a registration for a learner on an existing course
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param request body dto.RegisterRequest true "Learner information"
// @Success 201 {object} dto.APIResponse{data=models.Registration} "Learner registered successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Failure 409 {object} dto.ErrorResponse "Learner already registered"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /courses/{id}/registrations [post]
func (c *RegistrationController) Register(ctx *gin.Context) {
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var request dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid registration data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	registration, err := c.registrationService.Register(ctx, courseID, request.LearnerID, request.LearnerEmail)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Data:      registration,
		Timestamp: time.Now(),
	})
}

// GetEnrollment reports a learner's enrollment state for a course
// @Summary Get enrollment state
// @Description Returns whether a learner is enrolled on a course; flags data inconsistencies instead of hiding them
// @Tags registrations
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param learnerId path string true "Learner ID"
// @Success 200 {object} dto.APIResponse{data=dto.EnrollmentResponse} "Enrollment state retrieved"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /courses/{id}/registrations/{learnerId} [get]
func (c *RegistrationController) GetEnrollment(ctx *gin.Context) {
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	response, err := c.registrationService.GetEnrollment(ctx, ctx.Param("learnerId"), courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      response,
		Timestamp: time.Now(),
	})
}

// ListLearnerCourses retrieves a learner's registrations
// @Summary List a learner's courses
// @Description Returns all registrations for a learner with progress
// @Tags registrations
// @Accept json
// @Produce json
// @Param learnerId path string true "Learner ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Registration} "Registrations retrieved"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /learners/{learnerId}/courses [get]
func (c *RegistrationController) ListLearnerCourses(ctx *gin.Context) {
	registrations, err := c.registrationService.ListLearnerCourses(ctx, ctx.Param("learnerId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      registrations,
		Timestamp: time.Now(),
	})
}

// UpdateProgress updates a learner's course progress
// @Summary Update progress
// @Description Sets a registration's progress; reaching 100 completes the course and triggers follow-up work
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param learnerId path string true "Learner ID"
// @Param request body dto.ProgressUpdateRequest true "New progress value"
// @Success 200 {object} dto.APIResponse{data=models.Registration} "Progress updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid progress value"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Registration not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /courses/{id}/registrations/{learnerId}/progress [patch]
func (c *RegistrationController) UpdateProgress(ctx *gin.Context) {
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var request dto.ProgressUpdateRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid progress payload")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	registration, err := c.registrationService.UpdateProgress(ctx, courseID, ctx.Param("learnerId"), request.Progress)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      registration,
		Timestamp: time.Now(),
	})
}

// CompleteLesson marks one lesson finished for a learner
// @Summary Complete a lesson
// @Description Records a completed lesson and recomputes the registration's progress
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param learnerId path string true "Learner ID"
// @Param request body dto.LessonCompletionRequest true "Completed lesson"
// @Success 200 {object} dto.APIResponse{data=models.Registration} "Lesson completion recorded"
// @Failure 400 {object} dto.ErrorResponse "Invalid lesson payload"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Registration not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /courses/{id}/registrations/{learnerId}/lessons [post]
func (c *RegistrationController) CompleteLesson(ctx *gin.Context) {
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var request dto.LessonCompletionRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid lesson payload")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	registration, err := c.registrationService.CompleteLesson(ctx, courseID, ctx.Param("learnerId"), request.LessonID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      registration,
		Timestamp: time.Now(),
	})
}
