package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campusattend/internal/staff"
	"campusattend/internal/students"
)

func (h *Handler) studentLogin(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if !h.bind(c, &req) {
		return
	}
	res, err := h.students.Login(c.Request.Context(), req.Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) teacherLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !h.bind(c, &req) {
		return
	}
	res, err := h.teachers.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) staffLogin(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if !h.bind(c, &req) {
		return
	}
	res, err := h.staff.Login(c.Request.Context(), req.Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) studentProfile(c *gin.Context) {
	s, err := h.students.Profile(c.Request.Context(), claimsOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": s})
}

func (h *Handler) updateStudentProfile(c *gin.Context) {
	var req students.Profile
	if !h.bind(c, &req) {
		return
	}
	if err := h.students.UpdateProfile(c.Request.Context(), claimsOf(c), req); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
}

func (h *Handler) resetStudentDevice(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if !h.bind(c, &req) {
		return
	}
	if err := h.students.ResetDevice(c.Request.Context(), claimsOf(c), req.Email); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Device reset successfully"})
}

func (h *Handler) addStaff(c *gin.Context) {
	var req staff.AddInput
	if !h.bind(c, &req) {
		return
	}
	rec, err := h.staff.Add(c.Request.Context(), claimsOf(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Staff member added successfully", "staff": rec})
}

func (h *Handler) listStaff(c *gin.Context) {
	list, err := h.staff.List(c.Request.Context(), claimsOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"staff": list})
}

func (h *Handler) removeStaff(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if !h.bind(c, &req) {
		return
	}
	if err := h.staff.Remove(c.Request.Context(), claimsOf(c), req.Email); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Staff member removed successfully"})
}

func (h *Handler) updateStaffPermissions(c *gin.Context) {
	var req struct {
		Email       string   `json:"email"`
		Permissions []string `json:"permissions"`
	}
	if !h.bind(c, &req) {
		return
	}
	if err := h.staff.UpdatePermissions(c.Request.Context(), claimsOf(c), req.Email, req.Permissions); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Permissions updated successfully"})
}

func (h *Handler) updateStaffStatus(c *gin.Context) {
	var req struct {
		Email  string `json:"email"`
		Status string `json:"status"`
	}
	if !h.bind(c, &req) {
		return
	}
	if err := h.staff.SetStatus(c.Request.Context(), claimsOf(c), req.Email, req.Status); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Staff status updated successfully"})
}
