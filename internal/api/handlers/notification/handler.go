package notification

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"meal-planner-api/internal/api/middleware"
	notificationcore "meal-planner-api/internal/core/notification"
	"meal-planner-api/internal/pkg/common"
)

// Handler serves the notification inbox.
type Handler struct {
	notifications *notificationcore.Service
}

// NewHandler creates a notification handler.
func NewHandler(notifications *notificationcore.Service) *Handler {
	return &Handler{notifications: notifications}
}

// List returns one page of the user's notifications. ?unread=true
// restricts the page to unread ones.
func (h *Handler) List(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		common.RespondError(c, common.ErrUnauthenticated)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	page, limit = common.ValidatePagination(page, limit)
	unreadOnly := c.Query("unread") == "true"

	items, total, err := h.notifications.List(c.Request.Context(), u.ID, common.NewPagination(page, limit, 0), unreadOnly)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.OKPaginated("notifications", items, common.NewPagination(page, limit, total)))
}

// MarkRead flags one notification as read.
func (h *Handler) MarkRead(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		common.RespondError(c, common.ErrUnauthenticated)
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		common.RespondError(c, common.NewValidationError("invalid notification id"))
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), id, u.ID); err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.OK("notification marked as read", nil))
}

// MarkAllRead flags all the user's notifications as read.
func (h *Handler) MarkAllRead(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		common.RespondError(c, common.ErrUnauthenticated)
		return
	}

	count, err := h.notifications.MarkAllRead(c.Request.Context(), u.ID)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.OK("notifications marked as read", gin.H{"updated": count}))
}

// Delete removes one notification.
func (h *Handler) Delete(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		common.RespondError(c, common.ErrUnauthenticated)
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		common.RespondError(c, common.NewValidationError("invalid notification id"))
		return
	}

	if err := h.notifications.Delete(c.Request.Context(), id, u.ID); err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.OK("notification deleted", nil))
}

// WeeklySummary creates the weekly calorie summary notification from
// the last 7 days of plans.
func (h *Handler) WeeklySummary(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		common.RespondError(c, common.ErrUnauthenticated)
		return
	}

	n, err := h.notifications.CreateWeeklySummary(c.Request.Context(), u.ID)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, common.OK("weekly summary created", n))
}
