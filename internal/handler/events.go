package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campusattend/internal/apperr"
	"campusattend/internal/events"
	"campusattend/internal/qr"
)

var errQRUnavailable = apperr.New(apperr.Invalid, "qr_unavailable", "This event has no secret code to encode")

func (h *Handler) createEvent(c *gin.Context) {
	var req events.CreateInput
	if !h.bind(c, &req) {
		return
	}
	created, err := h.events.Create(c.Request.Context(), claimsOf(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	body := gin.H{"message": "Event created successfully", "id": created.ID, "eventId": created.EventID}
	if created.SecretCode != "" {
		body["secretCode"] = created.SecretCode
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) upcomingEvents(c *gin.Context) {
	list, err := h.events.ListUpcoming(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": list})
}

func (h *Handler) myEvents(c *gin.Context) {
	list, err := h.events.ListMine(c.Request.Context(), claimsOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": list})
}

func (h *Handler) allEvents(c *gin.Context) {
	list, err := h.events.ListAll(c.Request.Context(), claimsOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": list})
}

// eventDetails hides the secret code from callers who could not have
// created or run the event.
func (h *Handler) eventDetails(c *gin.Context) {
	claims := claimsOf(c)
	evt, err := h.events.Get(c.Request.Context(), c.Query("eventId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !isManager(claims) && !evt.OwnedBy(claims.Email) {
		evt = evt.Public()
	}
	c.JSON(http.StatusOK, gin.H{"event": evt})
}

func (h *Handler) deleteEvent(c *gin.Context) {
	var req struct {
		EventID string `json:"eventId"`
		ID      string `json:"id"`
	}
	if !h.bind(c, &req) {
		return
	}
	if err := h.events.Delete(c.Request.Context(), claimsOf(c), req.EventID, req.ID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
}

func (h *Handler) eventQR(c *gin.Context) {
	claims := claimsOf(c)
	evt, err := h.events.Get(c.Request.Context(), c.Query("eventId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !isManager(claims) && !evt.OwnedBy(claims.Email) {
		h.fail(c, apperr.ErrForbidden)
		return
	}
	if evt.SecretCode == "" {
		h.fail(c, errQRUnavailable)
		return
	}
	size, _ := strconv.Atoi(c.Query("size"))
	png, err := qr.PNG(qr.NewPayload(evt.EventID, evt.SecretCode), size)
	if err != nil {
		h.fail(c, apperr.Internalf("render qr: %w", err))
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}
