package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/zarathustragosling/project-management/internal/handlers"
	"github.com/zarathustragosling/project-management/internal/middlewares"
)

func Setup(r *gin.Engine, h *handlers.Handlers, auth *middlewares.AuthMiddleware) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.Static("/static", "./static")

	// Authentication routes - no auth required
	authRoutes := r.Group("/auth")
	{
		authRoutes.GET("/login", auth.OptionalAuth(), h.LoginPage)
		authRoutes.POST("/login", h.Login)
		authRoutes.GET("/register", h.RegisterPage)
		authRoutes.POST("/register", h.Register)
		authRoutes.POST("/logout", auth.RequireAuth(), h.Logout)
	}

	// Home feed is reachable anonymously; everything below it is not
	r.GET("/", auth.OptionalAuth(), h.Home)

	// User routes
	users := r.Group("/user", auth.RequireAuth())
	{
		users.GET("/", h.Home)
		users.GET("/dashboard", h.Dashboard)
		users.GET("/edit_profile", h.EditProfilePage)
		users.POST("/edit_profile", h.UpdateProfile)
		users.POST("/change_password", h.ChangePassword)
		users.POST("/feed", auth.TeamAccess(), h.PostFeed)
		users.GET("/profile/:userID", auth.TeamAccess(), h.ViewProfile)
	}

	// Team routes
	teams := r.Group("/team", auth.RequireAuth())
	{
		teams.GET("/select", h.SelectTeamPage)
		teams.GET("/create", h.CreateTeamPage)
		teams.POST("/create", h.CreateTeam)
		teams.GET("/join", h.JoinTeamPage)
		teams.POST("/join", h.JoinTeam)
		teams.GET("/:teamID", auth.TeamAccess(), h.TeamDetail)
		teams.GET("/:teamID/edit", auth.TeamAdmin(), h.EditTeamPage)
		teams.POST("/:teamID/edit", auth.TeamAdmin(), h.UpdateTeam)
		teams.POST("/leave", auth.TeamAccess(), h.LeaveTeam)
		teams.POST("/refresh_invite", auth.TeamAdmin(), h.RefreshInviteCode)
		teams.POST("/:teamID/members", auth.TeamAdmin(), h.AddTeamMember)
		teams.POST("/:teamID/members/:userID/remove", auth.TeamAdmin(), h.RemoveTeamMember)
	}

	// Project routes - team scoped
	projects := r.Group("/project", auth.RequireAuth(), auth.TeamAccess())
	{
		projects.GET("/list", h.ProjectList)
		projects.POST("/list", h.CreateProjectQuick)
		projects.GET("/create", h.CreateProjectPage)
		projects.POST("/create", h.CreateProject)
		projects.GET("/:projectID", h.ProjectDetail)
		projects.POST("/:projectID/delete", h.DeleteProject)
		projects.GET("/:projectID/users", h.ProjectUsers)
		projects.GET("/:projectID/reports", h.ProjectReports)
		projects.GET("/:projectID/charts", h.ChartsPage)
		projects.GET("/:projectID/gantt", h.GanttData)
	}

	// Task routes - team scoped
	tasks := r.Group("/task", auth.RequireAuth(), auth.TeamAccess())
	{
		tasks.GET("/kanban/:projectID", h.Kanban)
		tasks.GET("/create/:projectID", h.CreateTaskPage)
		tasks.POST("/create/:projectID", h.CreateTask)
		tasks.GET("/archive", h.ArchiveList)
		tasks.GET("/:taskID", h.TaskDetail)
		tasks.GET("/:taskID/edit", h.EditTaskPage)
		tasks.POST("/:taskID/edit", h.UpdateTask)
		tasks.POST("/:taskID/delete", h.DeleteTask)
		tasks.POST("/:taskID/status", h.UpdateStatus)
		tasks.POST("/:taskID/archive", h.ArchiveTask)
		tasks.POST("/:taskID/unarchive", h.UnarchiveTask)
		tasks.POST("/:taskID/comments", h.AddComment)
	}

	// Comment routes - ownership checked in the handlers because comments
	// hang off tasks, not the path
	comments := r.Group("/comment", auth.RequireAuth(), auth.TeamAccess())
	{
		comments.POST("/:commentID/edit", h.EditComment)
		comments.GET("/:commentID/render", h.RenderComment)
		comments.POST("/:commentID/delete", h.DeleteComment)
		comments.POST("/:commentID/solution", h.MarkSolution)
		comments.POST("/:commentID/unsolution", h.UnmarkSolution)
		comments.POST("/:commentID/attachments", h.AddAttachment)
	}

	// Report routes - team scoped
	reports := r.Group("/report", auth.RequireAuth(), auth.TeamAccess())
	{
		reports.GET("/list", h.ReportList)
		reports.POST("/create", h.CreateReport)
		reports.GET("/generate/:projectID", h.GenerateReport)
		reports.GET("/:reportID/view", h.ViewReport)
		reports.GET("/:reportID/download", h.DownloadReport)
		reports.POST("/:reportID/delete", h.DeleteReport)
	}

	// Notification routes
	notifications := r.Group("/notifications")
	{
		notifications.GET("", auth.RequireAuth(), h.NotificationList)
		notifications.GET("/unread_count", auth.OptionalAuth(), h.UnreadCount)
		notifications.POST("/:notificationID/read", auth.RequireAuth(), h.MarkNotificationRead)
		notifications.POST("/read_all", auth.RequireAuth(), h.MarkAllNotificationsRead)
	}

	// Admin routes
	admin := r.Group("/admin", auth.RequireAuth(), auth.RequireAdmin())
	{
		admin.POST("/users/:userID/delete", h.AdminDeleteUser)
		admin.POST("/teams/:teamID/delete", h.AdminDeleteTeam)
	}
}
