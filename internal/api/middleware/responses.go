package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/biz-directory/internal/utils"
)

func abortUnauthorized(c *gin.Context, message string) {
	utils.SendUnauthorized(c, message)
	c.Abort()
}

func abortTooManyRequests(c *gin.Context) {
	utils.SendTooManyRequests(c, "Too many requests, please slow down")
	c.Abort()
}
