package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/btrade/btrade-backend/internal/app/controllers"
	"github.com/btrade/btrade-backend/internal/app/models"
	"github.com/btrade/btrade-backend/internal/app/models/dto"
	"github.com/btrade/btrade-backend/internal/middleware"
	"github.com/btrade/btrade-backend/internal/pkg/events"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	courseController *controllers.CourseController,
	enrollmentController *controllers.EnrollmentController,
	checkoutController *controllers.CheckoutController,
	dashboardController *controllers.DashboardController,
	userController *controllers.UserController,
	eventsHandler *events.Handler,
	authMiddleware *middleware.AuthMiddleware,
	registry *prometheus.Registry,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/refresh-token", authController.RefreshToken)
		auth.POST("/logout", authController.Logout)
		auth.POST("/forgot-password", authController.ForgotPassword)
		auth.POST("/reset-password", authController.ResetPassword)
	}

	// --- Public catalog routes ---
	// An optional token widens visibility: admins see unpublished courses
	// through the same endpoints.
	courses := v1.Group("/courses")
	courses.Use(authMiddleware.OptionalJWTAuth())
	{
		courses.GET("", courseController.ListCourses)
		courses.GET("/:id", courseController.GetCourse)
	}

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.GET("/auth/profile", authController.GetProfile)

		enrollments := authenticated.Group("/enrollments")
		{
			enrollments.POST("/verify-id", enrollmentController.VerifyID)
			enrollments.GET("/my", enrollmentController.ListMyEnrollments)
			enrollments.POST("/validate-code", enrollmentController.ValidateCode)

			enrollmentsAdmin := enrollments.Group("")
			enrollmentsAdmin.Use(authMiddleware.RoleRequired(models.RoleAdmin))
			{
				enrollmentsAdmin.GET("", enrollmentController.ListEnrollments)
				enrollmentsAdmin.POST("/:id/action", enrollmentController.HandleAction)
				enrollmentsAdmin.POST("/:id/code", enrollmentController.GenerateCode)
			}
		}

		checkout := authenticated.Group("/checkout")
		{
			checkout.POST("/sessions", checkoutController.CreateSession)
			checkout.GET("/sessions/:id", checkoutController.GetSession)
			checkout.POST("/register", checkoutController.RegisterEnrollment)
		}

		coursesAdmin := authenticated.Group("/courses")
		coursesAdmin.Use(authMiddleware.RoleRequired(models.RoleAdmin))
		{
			coursesAdmin.POST("", courseController.CreateCourse)
			coursesAdmin.PUT("/:id", courseController.UpdateCourse)
			coursesAdmin.DELETE("/:id", courseController.DeleteCourse)
		}

		dashboard := authenticated.Group("/dashboard")
		dashboard.Use(authMiddleware.RoleRequired(models.RoleAdmin))
		{
			dashboard.GET("/summary", dashboardController.GetSummary)
		}

		users := authenticated.Group("/users")
		users.Use(authMiddleware.RoleRequired(models.RoleAdmin))
		{
			users.GET("", userController.ListUsers)
			users.GET("/:id", userController.GetUser)
			users.PUT("/:id/role", userController.UpdateRole)
			users.PUT("/:id/active", userController.UpdateActive)
			users.DELETE("/:id", userController.DeleteUser)
		}
	}

	// Admin console live feed. The token arrives as a query parameter
	// because browsers cannot set headers on websocket upgrades.
	ws := router.Group("/ws")
	ws.Use(authMiddleware.JWTAuth())
	{
		ws.GET("/enrollments", eventsHandler.HandleConnection)
	}

	// Health check endpoint (public)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(200, dto.APIResponse{
			Data: gin.H{"status": "ok"},
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
}
