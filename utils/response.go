package utils

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, 0, "success", data)
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}

// Fail returns an error response that still carries a payload, used when the
// client branches on an enumerated outcome.
func Fail(ctx *gin.Context, status int, code int, message string, data interface{}) {
	Respond(ctx, status, code, message, data)
}

// Attachment streams b as a download named filename.
func Attachment(ctx *gin.Context, filename string, b []byte) {
	ctx.Header("Content-Disposition", `attachment; filename=`+strconv.Quote(filename))
	ctx.Data(http.StatusOK, "application/octet-stream", b)
}
