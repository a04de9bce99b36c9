package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"college/internal/auth"
	"college/internal/model"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type markAttendanceRequest struct {
	Date      string `json:"date" binding:"required"`
	IsPresent *bool  `json:"isPresent" binding:"required"`
}

type createAnnouncementRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.Metrics.LoginAttempt("failure")
		respondError(c, h.Logger, err)
		return
	}
	h.Metrics.LoginAttempt("success")
	c.JSON(http.StatusOK, res)
}

func (h *handler) register(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		user, err := h.Auth.Register(c.Request.Context(), auth.RegisterInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Role:     role,
		})
		if err != nil {
			outcome := "failure"
			if errors.Is(err, auth.ErrEmailTaken) {
				outcome = "conflict"
			}
			h.Metrics.Registration(role.String(), outcome)
			respondError(c, h.Logger, err)
			return
		}
		h.Metrics.Registration(role.String(), "success")
		c.JSON(http.StatusCreated, user)
	}
}

func (h *handler) markOwnAttendance(c *gin.Context) {
	p := auth.PrincipalFrom(c)
	var req markAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	rec, err := h.Attendance.Mark(c.Request.Context(), p.UserID, req.Date, *req.IsPresent, nil)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.Metrics.AttendanceMarked("self")
	c.JSON(http.StatusOK, gin.H{"message": "Attendance marked successfully", "record": rec})
}

func (h *handler) markStudentAttendance(c *gin.Context) {
	p := auth.PrincipalFrom(c)
	studentID, err := strconv.ParseInt(c.Param("studentId"), 10, 64)
	if err != nil || studentID <= 0 {
		badRequest(c, "Invalid student ID")
		return
	}
	var req markAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	markedBy := p.UserID
	rec, err := h.Attendance.Mark(c.Request.Context(), studentID, req.Date, *req.IsPresent, &markedBy)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.Metrics.AttendanceMarked("staff")
	c.JSON(http.StatusOK, gin.H{"message": "Attendance marked successfully", "record": rec})
}

func (h *handler) listOwnAttendance(c *gin.Context) {
	recs, err := h.Attendance.ListForStudent(c.Request.Context(), auth.PrincipalFrom(c).UserID)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

// Grades are not recorded yet; students always get an empty list.
func (h *handler) listOwnGrades(c *gin.Context) {
	c.JSON(http.StatusOK, []struct{}{})
}

func (h *handler) createAnnouncement(c *gin.Context) {
	var req createAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	a, err := h.Announcements.Create(c.Request.Context(), req.Title, req.Content, auth.PrincipalFrom(c).UserID)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *handler) listAnnouncements(c *gin.Context) {
	list, err := h.Announcements.List(c.Request.Context())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *handler) listStudents(c *gin.Context) {
	students, err := h.Users.ListByRole(c.Request.Context(), model.RoleStudent)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *handler) teacherDashboard(c *gin.Context) {
	teacher, err := h.Users.FindByID(c.Request.Context(), auth.PrincipalFrom(c).UserID)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "Teacher dashboard",
		"teacherId": teacher.ID,
		"name":      teacher.Name,
	})
}

func (h *handler) adminDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	summary, err := h.Attendance.Summary(ctx)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	students, err := h.Users.ListByRole(ctx, model.RoleStudent)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Admin dashboard",
		"students":   len(students),
		"attendance": summary,
	})
}

func (h *handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbHealthy := h.DB.Healthy(ctx)
	redisStatus := "disabled"
	healthy := dbHealthy
	if h.Redis != nil {
		redisStatus = "up"
		if !h.Redis.Healthy(ctx) {
			redisStatus = "down"
			healthy = false
		}
	}

	status, state := http.StatusOK, "ok"
	if !healthy {
		status, state = http.StatusServiceUnavailable, "degraded"
	}
	c.JSON(status, gin.H{"status": state, "db": dbHealthy, "redis": redisStatus})
}
