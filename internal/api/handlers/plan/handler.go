package plan

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"meal-planner-api/internal/api/middleware"
	plancore "meal-planner-api/internal/core/plan"
	"meal-planner-api/internal/pkg/common"
)

// Handler serves the BMI planner and its history.
type Handler struct {
	planner *plancore.Planner
	history *plancore.HistoryRepository
}

// NewHandler creates a plan handler.
func NewHandler(planner *plancore.Planner, history *plancore.HistoryRepository) *Handler {
	return &Handler{planner: planner, history: history}
}

// Create runs the planner for the authenticated user.
func (h *Handler) Create(c *gin.Context) {
	u := middleware.CurrentUser(c)

	var req plancore.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, common.NewValidationError(err.Error()))
		return
	}

	result, err := h.planner.Plan(c.Request.Context(), u, req)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, common.OK("meal plan created", result))
}

// History returns one page of the user's past plans, newest first.
func (h *Handler) History(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		common.RespondError(c, common.ErrUnauthenticated)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	page, limit = common.ValidatePagination(page, limit)

	items, total, err := h.history.ListByUser(c.Request.Context(), u.ID, common.NewPagination(page, limit, 0))
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.OKPaginated("meal plans", items, common.NewPagination(page, limit, total)))
}

// Latest returns the user's most recent plan.
func (h *Handler) Latest(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		common.RespondError(c, common.ErrUnauthenticated)
		return
	}

	item, err := h.history.Latest(c.Request.Context(), u.ID)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.OK("latest meal plan", item))
}
