package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkaya/coursebuilder/internal/app/controllers"
	"github.com/mkaya/coursebuilder/internal/app/models/dto"
	"github.com/mkaya/coursebuilder/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	courseController *controllers.CourseController,
	registrationController *controllers.RegistrationController,
	feedbackController *controllers.FeedbackController,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.APIResponse{
			Data:      gin.H{"status": "ok"},
			Timestamp: time.Now(),
		})
	})

	// --- Public read routes ---
	courses := v1.Group("/courses")
	{
		courses.GET("", courseController.ListCourses)
		courses.GET("/:id", courseController.GetCourse)
		courses.GET("/:id/versions", courseController.ListCourseVersions)
		courses.GET("/:id/feedback", feedbackController.ListFeedback)
		courses.GET("/:id/registrations/:learnerId", registrationController.GetEnrollment)
	}

	learners := v1.Group("/learners")
	{
		learners.GET("/:learnerId/courses", registrationController.ListLearnerCourses)
	}

	// --- Authenticated mutating routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		coursesProtected := authenticated.Group("/courses")
		{
			coursesProtected.POST("", courseController.CreateCourse)
			coursesProtected.PATCH("/:id/status", courseController.UpdateCourseStatus)
			coursesProtected.DELETE("/:id", courseController.DeleteCourse)

			coursesProtected.POST("/:id/registrations", registrationController.Register)
			coursesProtected.PATCH("/:id/registrations/:learnerId/progress", registrationController.UpdateProgress)
			coursesProtected.POST("/:id/registrations/:learnerId/lessons", registrationController.CompleteLesson)

			coursesProtected.POST("/:id/feedback", feedbackController.SubmitFeedback)
		}
	}
}
