package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/depot/internal/config"
	"github.com/zulandar/depot/internal/gate"
	"github.com/zulandar/depot/internal/gitlab"
	"github.com/zulandar/depot/internal/store"
)

// respondOK writes the standard success envelope with the data source tag.
func respondOK(c *gin.Context, source gate.Source, key string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"source":  source,
		key:       data,
	})
}

// respondError maps an error to the envelope {success, error, error_type}
// with an appropriate HTTP status.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	errType := "internal_error"

	var transport *gitlab.TransportError
	var storage *store.StorageError
	var validation *config.ValidationError

	switch {
	case errors.Is(err, config.ErrNotConfigured):
		status = http.StatusBadRequest
		errType = "not_configured"
	case errors.As(err, &validation):
		status = http.StatusBadRequest
		errType = "validation_error"
	case errors.As(err, &transport):
		switch {
		case transport.AuthFailure():
			status = http.StatusUnauthorized
			errType = "auth_error"
		case transport.Status == http.StatusNotFound:
			status = http.StatusNotFound
			errType = "not_found"
		default:
			status = http.StatusBadGateway
			errType = "api_error"
		}
	case errors.As(err, &storage):
		status = http.StatusInternalServerError
		errType = "storage_error"
	}

	c.JSON(status, gin.H{
		"success":    false,
		"error":      err.Error(),
		"error_type": errType,
	})
}
