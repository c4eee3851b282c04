package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"shopguide/internal/media"
	"shopguide/internal/ranking"
	"shopguide/internal/store"
)

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		zap.L().Error("panic recovered", zap.String("route", route), zap.Any("panic", r))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	logger := zap.L().With(zap.String("route", route), zap.Int("status", status))
	if status >= http.StatusInternalServerError {
		logger.Error("returning error", zap.String("error", message))
	} else {
		logger.Info("returning error", zap.String("error", message))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// respondDomainError maps store, ranking and media errors to their HTTP status.
// Anything unrecognised is a 500 with the given fallback message.
func respondDomainError(c *gin.Context, route string, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondWithError(c, http.StatusNotFound, route, "product not found")
	case errors.Is(err, ranking.ErrLimitExceeded):
		respondWithError(c, http.StatusBadRequest, route, ranking.ErrLimitExceeded.Error())
	case errors.Is(err, ranking.ErrInvalidOrder):
		respondWithError(c, http.StatusBadRequest, route, err.Error())
	case errors.Is(err, store.ErrDuplicate):
		respondWithError(c, http.StatusConflict, route, "already exists")
	case errors.Is(err, media.ErrUnsupportedImage), errors.Is(err, media.ErrImageTooLarge):
		respondWithError(c, http.StatusBadRequest, route, err.Error())
	default:
		zap.L().Error("request failed", zap.String("route", route), zap.Error(err))
		respondWithError(c, http.StatusInternalServerError, route, fallback)
	}
}

func respondValidationError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			field := lowerCamel(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				details = append(details, fmt.Sprintf("%s is required", field))
			case "oneof":
				details = append(details, fmt.Sprintf("%s must be one of: %s", field, fieldError.Param()))
			default:
				details = append(details, fmt.Sprintf("%s is invalid", field))
			}
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": details,
		})
		return
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body", "details": err.Error()})
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func parseIDParam(c *gin.Context, route string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param("id")))
	if err != nil {
		respondWithError(c, http.StatusBadRequest, route, "invalid id")
		return primitive.NilObjectID, false
	}
	return id, true
}

func parseObjectIDs(values []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(values))
	for _, raw := range values {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid product id: %s", raw)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
