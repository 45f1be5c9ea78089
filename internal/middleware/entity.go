package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "tally/internal/errors"
	"tally/internal/uuid"
)

// MembershipChecker reports whether a user is a member of an entity.
// Implemented by services.EntityServicer.
type MembershipChecker interface {
	RequireMember(userID, entityID string) error
}

// EntityAccess scopes a route group to one entity. It validates the
// :entityID path parameter, checks that the authenticated user is a member,
// and stores the entity ID in the context for handlers.
//
// Non-members get the same entity-not-found response as callers of an
// entity that does not exist, so membership never leaks existence.
func EntityAccess(members MembershipChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID")
		if !exists {
			abortWithAppError(c, apperrors.ErrUnauthorized)
			return
		}

		entityID := c.Param("entityID")
		if !uuid.IsValid(entityID) {
			abortWithAppError(c, apperrors.ErrEntityNotFound)
			return
		}

		if err := members.RequireMember(userID.(string), entityID); err != nil {
			abortWithAppError(c, apperrors.ErrEntityNotFound)
			return
		}

		c.Set("entityID", entityID)
		c.Next()
	}
}

func abortWithAppError(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.StatusCode, gin.H{
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}
