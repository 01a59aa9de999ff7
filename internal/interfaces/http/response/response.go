package response

import (
	"github.com/gin-gonic/gin"
	domainerrors "onyx.backend/internal/domain/errors"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response. Every error body carries an "error" string
// and a machine-readable "code"; wrapped causes are never rendered.
func Error(c *gin.Context, err error) {
	appErr := domainerrors.AsAppError(err)
	c.JSON(appErr.Status, body(appErr))
}

// AbortWithError writes the error response and stops the handler chain
func AbortWithError(c *gin.Context, err error) {
	appErr := domainerrors.AsAppError(err)
	c.AbortWithStatusJSON(appErr.Status, body(appErr))
}

func body(appErr *domainerrors.AppError) gin.H {
	return gin.H{
		"error": appErr.Message,
		"code":  appErr.Code,
	}
}
