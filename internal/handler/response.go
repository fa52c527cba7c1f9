package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"leadscan/internal/domain"
)

// APIResponse is the standard envelope for all API responses. Error is
// a human-readable category string; raw provider errors never leak.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, msg string) {
	c.JSON(status, APIResponse{Success: false, Error: msg})
}

// MapDomainError translates domain errors to HTTP status codes and
// caller-facing messages.
func MapDomainError(err error) (status int, msg string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "no image or text supplied, or input is malformed"
	case errors.Is(err, domain.ErrUnsupportedImageFormat):
		return http.StatusBadRequest, "unsupported image format; allowed: jpeg, png, webp"
	case errors.Is(err, domain.ErrProviderUnavailable):
		return http.StatusServiceUnavailable, "no extraction provider is configured"
	case errors.Is(err, domain.ErrAllProvidersFailed):
		return http.StatusBadGateway, "all extraction providers failed"
	case errors.Is(err, domain.ErrExtractionEmpty):
		return http.StatusUnprocessableEntity, "no contact details could be extracted"
	case errors.Is(err, domain.ErrLeadNotFound):
		return http.StatusNotFound, "lead not found"
	case errors.Is(err, domain.ErrNoStoredImages):
		return http.StatusBadRequest, "lead has no stored images to rescan"
	default:
		return http.StatusInternalServerError, "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Printf("[%s] internal error: %v", requestID, err)
	}
	RespondError(c, status, msg)
}
