package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"meal-planner-api/internal/core/user"
	"meal-planner-api/internal/pkg/common"
)

// currentUserKey is the context key the authenticated user is stored
// under.
const currentUserKey = "current_user"

// Auth verifies the Bearer token and loads the account behind it. The
// loaded user is attached to the request context for handlers.
func Auth(tokens *user.TokenIssuer, users *user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			common.RespondError(c, common.ErrUnauthenticated)
			c.Abort()
			return
		}

		claims, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			common.RespondError(c, err)
			c.Abort()
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			common.RespondError(c, common.ErrUnauthenticated)
			c.Abort()
			return
		}

		u, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			// Token for a deleted account.
			common.RespondError(c, common.ErrUnauthenticated)
			c.Abort()
			return
		}

		c.Set(currentUserKey, u)
		c.Next()
	}
}

// RequireRole allows only users with the given role past.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil || u.Role != role {
			common.RespondError(c, common.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil outside Auth.
func CurrentUser(c *gin.Context) *user.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*user.User)
	return u
}
