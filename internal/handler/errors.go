package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fbrtax/internal/middleware"
	"fbrtax/pkg/apperrors"
	"fbrtax/pkg/response"
)

// respondError maps a service error onto the standard envelope with the
// status code its kind dictates.
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	c.JSON(status, response.Error(status, err.Error()))
}

// currentUser reads the authenticated principal set by the auth middleware.
// It aborts with 401 when the id is missing or malformed.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString(middleware.ContextUserID)
	userID, err := uuid.Parse(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authentication context"))
		return uuid.Nil, false
	}
	return userID, true
}
