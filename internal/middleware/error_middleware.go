package middleware

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkaya/coursebuilder/internal/app/models/dto"
	"github.com/mkaya/coursebuilder/internal/pkg/apperrors"
)

// HandleAPIError maps service-layer errors to HTTP responses. All
// controllers route their error paths through here so status codes stay
// consistent across the API.
func HandleAPIError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrCourseNotFound):
		respondError(c, 404, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Course not found"))
	case errors.Is(err, apperrors.ErrRegistrationNotFound):
		respondError(c, 404, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Registration not found"))
	case errors.Is(err, apperrors.ErrVersionNotFound):
		respondError(c, 404, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Version not found"))
	case errors.Is(err, apperrors.ErrFeedbackNotFound):
		respondError(c, 404, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Feedback not found"))
	case errors.Is(err, apperrors.ErrResourceNotFound):
		respondError(c, 404, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Resource not found"))
	case errors.Is(err, apperrors.ErrAlreadyRegistered):
		respondError(c, 409, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Learner is already registered for this course"))
	case errors.Is(err, apperrors.ErrResourceAlreadyExists), errors.Is(err, apperrors.ErrConflict):
		respondError(c, 409, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Resource already exists"))
	case errors.Is(err, apperrors.ErrEmptyLearningPath):
		respondError(c, 400, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "learning_path must contain at least one topic").WithField("learning_path"))
	case errors.Is(err, apperrors.ErrEmptySkills):
		respondError(c, 400, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "skills must contain at least one entry").WithField("skills"))
	case errors.Is(err, apperrors.ErrInvalidProgress):
		respondError(c, 400, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "progress must be between 0 and 100").WithField("progress"))
	case errors.Is(err, apperrors.ErrInvalidRating):
		respondError(c, 400, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "rating must be between 1 and 5").WithField("rating"))
	case errors.Is(err, apperrors.ErrInvalidCourseStatus):
		respondError(c, 400, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "invalid course status").WithField("status"))
	case errors.Is(err, apperrors.ErrValidationFailed), errors.Is(err, apperrors.ErrBadRequest):
		respondError(c, 400, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed").WithDetails(err.Error()))
	case errors.Is(err, apperrors.ErrTokenExpired):
		respondError(c, 401, dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired"))
	case errors.Is(err, apperrors.ErrTokenInvalid):
		respondError(c, 401, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token"))
	case errors.Is(err, apperrors.ErrTokenNotFound):
		respondError(c, 401, dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Token not found"))
	case errors.Is(err, apperrors.ErrCoursePersistFailed):
		respondError(c, 500, dto.NewErrorDetail(dto.ErrorCodeDatabaseError, "Course could not be persisted"))
	default:
		respondError(c, 500, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error"))
	}
}

func respondError(c *gin.Context, status int, detail *dto.ErrorDetail) {
	c.JSON(status, dto.APIResponse{
		Error:     detail,
		Timestamp: time.Now(),
	})
}
