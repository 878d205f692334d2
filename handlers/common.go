package handlers

import (
	"campus/models"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

var (
	// Predefined errors
	ConflictResponse         = Response{"Asset or Staff is already assigned"}
	InvalidReferenceResponse = Response{"Asset or Staff does not exist"}
)

// parseID reads the :id path parameter. A malformed id cannot exist, so it is reported as not found.
func parseID(c *gin.Context, subject string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, Response{subject + " not found"})
		return 0, false
	}
	return id, true
}

// respondError maps model errors to status codes. Anything unexpected is
// logged and answered with a generic message.
func respondError(c *gin.Context, err error, subject, action string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{subject + " not found"})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusBadRequest, ConflictResponse)
	case errors.Is(err, models.ErrInvalidReference):
		c.JSON(http.StatusBadRequest, InvalidReferenceResponse)
	case errors.Is(err, models.ErrReferenced):
		c.JSON(http.StatusBadRequest, Response{subject + " is still assigned"})
	default:
		log.Printf("Error %s: %v", action, err)
		c.JSON(http.StatusInternalServerError, Response{"Error " + action})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Response{err.Error()})
}
