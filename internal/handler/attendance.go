package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campusattend/internal/attendance"
)

func (h *Handler) markByCode(c *gin.Context) {
	var req attendance.CodeInput
	if !h.bind(c, &req) {
		return
	}
	rec, err := h.attendance.MarkByCode(c.Request.Context(), claimsOf(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Attendance marked successfully", "attendance": rec})
}

func (h *Handler) markByQR(c *gin.Context) {
	var req attendance.QRInput
	if !h.bind(c, &req) {
		return
	}
	rec, err := h.attendance.MarkByQR(c.Request.Context(), claimsOf(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Attendance marked successfully", "attendance": rec})
}

func (h *Handler) markByStaff(c *gin.Context) {
	var req attendance.StaffInput
	if !h.bind(c, &req) {
		return
	}
	rec, err := h.attendance.MarkByStaff(c.Request.Context(), claimsOf(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Attendance marked successfully", "attendance": rec, "insertedId": rec.ID})
}

// myAttendance lists an event's attendance when eventId is given and the
// caller's own history otherwise.
func (h *Handler) myAttendance(c *gin.Context) {
	if eventID := c.Query("eventId"); eventID != "" {
		h.eventAttendance(c)
		return
	}
	list, err := h.attendance.ListMine(c.Request.Context(), claimsOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendance": list})
}

func (h *Handler) eventAttendance(c *gin.Context) {
	list, err := h.attendance.ListByEvent(c.Request.Context(), claimsOf(c), c.Query("eventId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendance": list})
}
