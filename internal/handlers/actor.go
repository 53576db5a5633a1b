package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/travelease/ticketing-backend/internal/middleware"
)

// actorID returns the authenticated admin as the string stored in created_by/modified_by
func actorID(c *gin.Context) *string {
	user, ok := middleware.GetUserContext(c)
	if !ok {
		return nil
	}
	id := user.UserID.String()
	return &id
}

func actorUUID(c *gin.Context) *uuid.UUID {
	user, ok := middleware.GetUserContext(c)
	if !ok {
		return nil
	}
	return &user.UserID
}

// paramUUID parses a path parameter, writing a 400 when it is not a UUID
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
