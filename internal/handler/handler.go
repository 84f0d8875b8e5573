// Package handler exposes the JSON HTTP surface. Handlers bind requests,
// call a service and translate apperr errors into responses.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"campusattend/internal/apperr"
	"campusattend/internal/attendance"
	"campusattend/internal/auth"
	"campusattend/internal/events"
	"campusattend/internal/staff"
	"campusattend/internal/students"
	"campusattend/internal/users"
)

// StudentService signs students in and manages their profile and bound device.
type StudentService interface {
	Login(ctx context.Context, email string) (students.LoginResult, error)
	Profile(ctx context.Context, claims auth.Claims) (students.Student, error)
	UpdateProfile(ctx context.Context, claims auth.Claims, p students.Profile) error
	ResetDevice(ctx context.Context, claims auth.Claims, email string) error
}

// TeacherService signs in teacher and admin accounts.
type TeacherService interface {
	Login(ctx context.Context, email, password string) (users.LoginResult, error)
}

// StaffService manages staff accounts and their permissions.
type StaffService interface {
	Login(ctx context.Context, email string) (staff.LoginResult, error)
	Add(ctx context.Context, claims auth.Claims, in staff.AddInput) (staff.Staff, error)
	List(ctx context.Context, claims auth.Claims) ([]staff.Staff, error)
	Remove(ctx context.Context, claims auth.Claims, email string) error
	UpdatePermissions(ctx context.Context, claims auth.Claims, email string, perms []string) error
	SetStatus(ctx context.Context, claims auth.Claims, email, status string) error
}

// EventService creates, lists and deletes events.
type EventService interface {
	Create(ctx context.Context, claims auth.Claims, in events.CreateInput) (events.Created, error)
	Get(ctx context.Context, id string) (events.Event, error)
	Delete(ctx context.Context, claims auth.Claims, eventID, id string) error
	ListMine(ctx context.Context, claims auth.Claims) ([]events.Event, error)
	ListAll(ctx context.Context, claims auth.Claims) ([]events.Event, error)
	ListUpcoming(ctx context.Context) ([]events.Event, error)
}

// AttendanceService records check-ins and reports attendance.
type AttendanceService interface {
	MarkByCode(ctx context.Context, claims auth.Claims, in attendance.CodeInput) (attendance.Record, error)
	MarkByQR(ctx context.Context, claims auth.Claims, in attendance.QRInput) (attendance.Record, error)
	MarkByStaff(ctx context.Context, claims auth.Claims, in attendance.StaffInput) (attendance.Record, error)
	ListByEvent(ctx context.Context, claims auth.Claims, eventID string) ([]attendance.Entry, error)
	ListMine(ctx context.Context, claims auth.Claims) ([]attendance.Record, error)
}

// Deps are the collaborators a Handler needs.
type Deps struct {
	Tokens     *auth.Issuer
	Students   StudentService
	Teachers   TeacherService
	Staff      StaffService
	Events     EventService
	Attendance AttendanceService
	Logger     *slog.Logger
}

// Handler serves the API routes.
type Handler struct {
	tokens     *auth.Issuer
	students   StudentService
	teachers   TeacherService
	staff      StaffService
	events     EventService
	attendance AttendanceService
	log        *slog.Logger
}

// New builds a Handler from its collaborators.
func New(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		tokens:     d.Tokens,
		students:   d.Students,
		teachers:   d.Teachers,
		staff:      d.Staff,
		events:     d.Events,
		attendance: d.Attendance,
		log:        logger,
	}
}

// Register mounts every route on r. loginLimit, when non-nil, guards the
// three login routes.
func (h *Handler) Register(r gin.IRouter, loginLimit gin.HandlerFunc) {
	login := r.Group("")
	if loginLimit != nil {
		login.Use(loginLimit)
	}
	login.POST("/student-login", h.studentLogin)
	login.POST("/teacher-login", h.teacherLogin)
	login.POST("/staff-login", h.staffLogin)

	r.GET("/events-upcoming", h.upcomingEvents)

	authed := r.Group("", auth.Required(h.tokens))
	authed.POST("/event-create", h.createEvent)
	authed.GET("/my-events", h.myEvents)
	authed.GET("/events-all", h.allEvents)
	authed.GET("/event-details", h.eventDetails)
	authed.POST("/event-delete", h.deleteEvent)
	authed.GET("/event-qr", h.eventQR)
	authed.GET("/event-attendance", h.eventAttendance)

	authed.POST("/attendance-mark-code", h.markByCode)
	authed.POST("/attendance-mark-qr", h.markByQR)
	authed.POST("/attendance-mark-staff", h.markByStaff)
	authed.GET("/attendance-my", h.myAttendance)

	managers := authed.Group("", auth.OnlyRoles("", auth.RoleTeacher, auth.RoleAdmin))
	managers.POST("/staff-add", h.addStaff)
	managers.GET("/staff-list", h.listStaff)
	managers.POST("/staff-remove", h.removeStaff)
	managers.POST("/staff-update-permissions", h.updateStaffPermissions)
	managers.POST("/staff-update-status", h.updateStaffStatus)

	authed.GET("/student-profile", h.studentProfile)
	authed.POST("/student-profile", h.updateStudentProfile)
	authed.POST("/student-device-reset", h.resetStudentDevice)
}

var errBadBody = apperr.New(apperr.Invalid, "invalid_body", "Invalid request body")

// bind decodes the JSON body into v and writes a 400 on failure.
func (h *Handler) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		h.fail(c, errBadBody)
		return false
	}
	return true
}

// fail writes err as {"message","code"}. Internal errors are logged and
// reported generically.
func (h *Handler) fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.Request.URL.Path, "err", err)
	}
	msg, code := apperr.Public(err)
	c.AbortWithStatusJSON(status, gin.H{"message": msg, "code": code})
}

func claimsOf(c *gin.Context) auth.Claims {
	claims, _ := auth.FromContext(c)
	return claims
}

// isManager reports whether the caller may see every event and its codes.
func isManager(claims auth.Claims) bool {
	return claims.HasRole(auth.RoleStaff, auth.RoleTeacher, auth.RoleAdmin)
}
