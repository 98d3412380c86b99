package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"meal-planner-api/internal/api/middleware"
	usercore "meal-planner-api/internal/core/user"
	"meal-planner-api/internal/pkg/common"
)

// Handler serves account endpoints.
type Handler struct {
	users *usercore.Service
}

// NewHandler creates a user handler.
func NewHandler(users *usercore.Service) *Handler {
	return &Handler{users: users}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token string         `json:"token"`
	User  *usercore.User `json:"user"`
}

// Register creates a customer account.
func (h *Handler) Register(c *gin.Context) {
	var in usercore.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		common.RespondError(c, common.NewValidationError(err.Error()))
		return
	}

	u, token, err := h.users.Register(c.Request.Context(), in)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, common.OK("account created", authResponse{Token: token, User: u}))
}

// Login exchanges credentials for a token.
func (h *Handler) Login(c *gin.Context) {
	var in loginRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		common.RespondError(c, common.NewValidationError(err.Error()))
		return
	}

	u, token, err := h.users.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.OK("login successful", authResponse{Token: token, User: u}))
}

// Me returns the authenticated profile.
func (h *Handler) Me(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		common.RespondError(c, common.ErrUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, common.OK("profile", u))
}

// UpdateProfile applies a partial profile update.
func (h *Handler) UpdateProfile(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		common.RespondError(c, common.ErrUnauthenticated)
		return
	}

	var in usercore.ProfileUpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		common.RespondError(c, common.NewValidationError(err.Error()))
		return
	}

	updated, err := h.users.UpdateProfile(c.Request.Context(), u.ID, in)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.OK("profile updated", updated))
}
