package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/tasktrack-dev/tasktrack/internal/handlers"
	"github.com/tasktrack-dev/tasktrack/internal/middleware"
)

// NewRouter wires every route. requireAuth guards everything outside /health and /auth.
func NewRouter(h *handlers.Handler, requireAuth gin.HandlerFunc, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", h.HealthCheck)
		api.GET("/ws", requireAuth, h.WebSocket)

		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
			auth.GET("/me", requireAuth, h.Me)
			auth.POST("/logout", requireAuth, h.Logout)
		}

		projects := api.Group("/projects", requireAuth)
		{
			projects.POST("", h.CreateProject)
			projects.GET("", h.ListProjects)
			projects.GET("/:project_id", h.GetProject)
			projects.PATCH("/:project_id/status", h.UpdateProjectStatus)
			projects.DELETE("/:project_id", h.DeleteProject)
			projects.POST("/:project_id/members", h.AddProjectMember)
			projects.GET("/:project_id/tasks", h.ListProjectTasks)
		}

		tasks := api.Group("/tasks", requireAuth)
		{
			tasks.POST("", h.CreateTask)
			tasks.GET("", h.ListTasks)
			tasks.GET("/:task_id", h.GetTask)
			tasks.PATCH("/:task_id", h.UpdateTask)
			tasks.DELETE("/:task_id", h.DeleteTask)
			tasks.PATCH("/:task_id/status", h.ChangeTaskStatus)
			tasks.PATCH("/:task_id/priority", h.ChangeTaskPriority)
			tasks.PATCH("/:task_id/deadline", h.ChangeTaskDeadline)
			tasks.PUT("/:task_id/assignees", h.AssignTask)
			tasks.GET("/:task_id/subtasks", h.ListSubtasks)
			tasks.GET("/:task_id/logs", h.ListTaskLogs)
			tasks.GET("/:task_id/comments", h.ListComments)
			tasks.POST("/:task_id/comments", h.AddComment)
			tasks.POST("/:task_id/remind", h.RemindTask)
		}

		api.GET("/accounts", requireAuth, h.ListAccounts)
		api.POST("/accounts", requireAuth, h.CreateAccount)

		accounts := api.Group("/accounts/:account_id", requireAuth)
		{
			accounts.GET("", h.GetAccount)
			accounts.PATCH("", h.UpdateAccount)
			accounts.DELETE("", h.DeleteAccount)
			accounts.GET("/projects", h.ListAccountProjects)
			accounts.GET("/logs", h.ListAccountLogs)
			accounts.GET("/notifications", h.ListNotifications)
			accounts.PATCH("/notifications/read", h.MarkAllNotificationsRead)
			accounts.GET("/notification-settings", h.GetNotificationSettings)
			accounts.PUT("/notification-settings", h.SaveNotificationSettings)
		}

		api.PATCH("/notifications/:notification_id/read", requireAuth, h.MarkNotificationRead)

		admin := api.Group("/admin", requireAuth)
		{
			admin.PATCH("/tasks/:task_id/status", h.ForceTaskStatus)
			admin.PATCH("/tasks/:task_id/priority", h.ForceTaskPriority)
			admin.PATCH("/tasks/:task_id/deadline", h.ForceTaskDeadline)
			admin.PUT("/tasks/:task_id/assignees", h.ForceTaskAssignees)
			admin.GET("/tasks/:task_id/permissions", h.ListTaskPermissions)
			admin.PUT("/permissions", h.UpdatePermission)
			admin.GET("/logs", h.ListLogs)
		}
	}

	return r
}
