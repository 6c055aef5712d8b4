package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Result wraps a successful payload as {"result": ...}, the envelope the
// frontend unwraps on every call.
func Result(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"result": data})
}

// Error writes the flat {"error": "..."} shape with the given HTTP status.
func Error(c *gin.Context, httpStatus int, msg string) {
	c.JSON(httpStatus, gin.H{"error": msg})
}

// LoginError writes the legacy JSON-RPC error envelope the login screen still
// parses. It is always HTTP 200; the client inspects error.data.message.
func LoginError(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{
		"jsonrpc": "2.0",
		"id":      nil,
		"error": gin.H{
			"message": "Odoo Server Error",
			"code":    200,
			"data": gin.H{
				"message":        msg,
				"exception_type": "access_denied",
			},
		},
	})
}
