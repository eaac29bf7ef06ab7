package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// envelope is the uniform response body of every location endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

// respondNotFound reports a handled lookup miss; it is not an error at the HTTP level.
func respondNotFound(c *gin.Context, message string) {
	c.JSON(http.StatusOK, envelope{Success: false, Message: message})
}

func respondFailure(c *gin.Context, action string, err error) {
	c.JSON(http.StatusBadRequest, envelope{Success: false, Message: action + " failed: " + err.Error()})
}
