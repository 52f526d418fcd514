package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apiError "github.com/wavehq/hrbridge/errors"
)

// JSON writes the portal's standard response envelope.
func JSON(c *gin.Context, message string, status int, data interface{}, err error) {
	errMessage := ""
	if err != nil {
		errMessage = err.Error()
	}
	c.JSON(status, gin.H{
		"message": message,
		"data":    data,
		"errors":  errMessage,
		"status":  http.StatusText(status),
	})
}

// HandleErrors maps a service error onto the envelope, honoring the status
// carried by portal errors.
func HandleErrors(c *gin.Context, err error) {
	if apiErr, ok := err.(*apiError.Error); ok {
		JSON(c, "", apiErr.Status, nil, apiErr)
		return
	}
	JSON(c, "", http.StatusInternalServerError, nil, err)
}
