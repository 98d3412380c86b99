package payment

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"meal-planner-api/internal/api/middleware"
	paymentcore "meal-planner-api/internal/core/payment"
	"meal-planner-api/internal/pkg/common"
)

// Handler serves premium purchase endpoints.
type Handler struct {
	payments *paymentcore.Service
}

// NewHandler creates a payment handler.
func NewHandler(payments *paymentcore.Service) *Handler {
	return &Handler{payments: payments}
}

type createOrderRequest struct {
	PackageType string `json:"packageType" binding:"required"`
}

// CreateOrder starts a premium purchase for the authenticated user.
func (h *Handler) CreateOrder(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		common.RespondError(c, common.ErrUnauthenticated)
		return
	}

	var in createOrderRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		common.RespondError(c, common.NewValidationError(err.Error()))
		return
	}

	p, err := h.payments.CreateOrder(c.Request.Context(), u, in.PackageType)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, common.OK("order created", p))
}

type webhookRequest struct {
	Data      map[string]interface{} `json:"data" binding:"required"`
	Signature string                 `json:"signature"`
}

// Webhook receives signed gateway callbacks. The gateway retries on
// non-2xx, so signature failures answer 403 and bad payloads 400.
func (h *Handler) Webhook(c *gin.Context) {
	var in webhookRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		common.RespondError(c, common.NewValidationError(err.Error()))
		return
	}

	p, err := h.payments.HandleWebhook(c.Request.Context(), in.Data, in.Signature)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.OK("payment status updated", p))
}

type statusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus lets an operator force a payment status transition.
func (h *Handler) UpdateStatus(c *gin.Context) {
	orderCode, err := strconv.ParseInt(c.Param("orderCode"), 10, 64)
	if err != nil {
		common.RespondError(c, common.NewValidationError("invalid order code"))
		return
	}

	var in statusUpdateRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		common.RespondError(c, common.NewValidationError(err.Error()))
		return
	}

	p, err := h.payments.UpdateStatus(c.Request.Context(), orderCode, in.Status)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.OK("payment status updated", p))
}

// Success is the browser return URL after a completed checkout. The
// authoritative status change comes through the webhook; this endpoint
// only reports the current state.
func (h *Handler) Success(c *gin.Context) {
	c.JSON(http.StatusOK, common.OK("payment completed, your premium will activate shortly", gin.H{
		"orderCode": c.Query("orderCode"),
	}))
}

// Cancel is the browser return URL after an abandoned checkout. The
// request is anonymous, so cancellation requires the reference token
// the gateway link was minted with.
func (h *Handler) Cancel(c *gin.Context) {
	orderCode, err := strconv.ParseInt(c.Query("orderCode"), 10, 64)
	if err == nil {
		if _, err := h.payments.CancelFromReturn(c.Request.Context(), orderCode, c.Query("ref")); err != nil {
			common.RespondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, common.OK("payment cancelled", gin.H{
		"orderCode": c.Query("orderCode"),
	}))
}

// MyTransactions returns one page of the user's payments.
func (h *Handler) MyTransactions(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		common.RespondError(c, common.ErrUnauthenticated)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	page, limit = common.ValidatePagination(page, limit)

	items, total, err := h.payments.ListByUser(c.Request.Context(), u.ID, c.Query("status"), common.NewPagination(page, limit, 0))
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.OKPaginated("payments", items, common.NewPagination(page, limit, total)))
}
