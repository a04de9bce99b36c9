// Package api exposes the college services over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"

	"college/internal/announcement"
	"college/internal/attendance"
	"college/internal/auth"
	"college/internal/httpmiddleware"
	"college/internal/model"
	"college/internal/observability"
	"college/internal/policy"
	"college/internal/store"
	"college/internal/users"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Auth          *auth.Service
	Tokens        *auth.TokenService
	Users         *users.Directory
	Attendance    *attendance.Service
	Announcements *announcement.Service
	DB            *store.DB
	Redis         *store.Redis
	Limiter       httpmiddleware.Limiter
	Metrics       *observability.Metrics
	Logger        *slog.Logger

	Realm       string
	CORSOrigins []string
	Production  bool
}

type handler struct {
	Deps
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	h := &handler{Deps: d}

	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		d.Logger.Error("panic recovered",
			slog.Any("panic", recovered),
			slog.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}))
	r.Use(observability.RequestLogger(d.Logger))
	r.Use(d.Metrics.Middleware())
	r.Use(corsMiddleware(d.CORSOrigins))
	r.Use(securityHeaders(d.Production))
	if d.Limiter != nil {
		r.Use(httpmiddleware.GinMiddleware(d.Limiter, d.Logger))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not Found"})
	})

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "College Management System API is running!")
	})
	r.GET("/healthz", h.health)
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	authGroup := r.Group("/auth")
	authGroup.POST("/login", h.login)
	authGroup.POST("/register", h.register(model.RoleStudent))
	authGroup.POST("/register/teacher", h.register(model.RoleTeacher))

	protected := r.Group("/", auth.BearerAuth(d.Tokens, d.Realm))

	protected.GET("/announcements", allow(policy.ReadAnnouncements), h.listAnnouncements)

	student := protected.Group("/student")
	student.POST("/attendance", allow(policy.SelfMarkAttendance), h.markOwnAttendance)
	student.GET("/attendance", allow(policy.ReadOwnAttendance), h.listOwnAttendance)
	student.GET("/grades", allow(policy.ReadOwnGrades), h.listOwnGrades)

	faculty := protected.Group("/faculty")
	faculty.POST("/attendance/:studentId", allow(policy.MarkAnyAttendance), h.markStudentAttendance)
	faculty.POST("/announcements", allow(policy.PostAnnouncement), h.createAnnouncement)

	teacher := protected.Group("/teacher")
	teacher.GET("/dashboard", allow(policy.ViewTeacherDashboard), h.teacherDashboard)
	teacher.GET("/students", allow(policy.ListStudents), h.listStudents)
	teacher.POST("/attendance/:studentId", allow(policy.MarkAnyAttendance), h.markStudentAttendance)

	admin := protected.Group("/admin")
	admin.GET("/dashboard", allow(policy.ViewAdminDashboard), h.adminDashboard)

	return r
}

// allow rejects principals lacking capability with 403.
func allow(capability policy.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !policy.Authorize(auth.PrincipalFrom(c), capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "Forbidden"})
			return
		}
		c.Next()
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{observability.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           24 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func securityHeaders(production bool) gin.HandlerFunc {
	sec := secure.New(secure.Options{
		FrameDeny:            true,
		ContentTypeNosniff:   true,
		BrowserXssFilter:     true,
		ReferrerPolicy:       "strict-origin-when-cross-origin",
		STSSeconds:           31536000,
		STSIncludeSubdomains: true,
		IsDevelopment:        !production,
	})
	return func(c *gin.Context) {
		if err := sec.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
		if status := c.Writer.Status(); status > 300 && status < 399 {
			c.Abort()
			return
		}
		c.Next()
	}
}
