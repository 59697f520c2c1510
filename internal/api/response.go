package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"devfolio/internal/storeerr"
)

// envelope 是所有接口统一的响应外壳：成功时 error 缺省，失败时 data 为 null。
type envelope struct {
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
}

// Respond 以 200 返回数据。
func Respond(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, envelope{Data: payload})
}

// Created 以 201 返回数据。
func Created(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, envelope{Data: payload})
}

// Error 以指定状态码返回错误消息。
func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, envelope{Error: msg})
}

// AbortUnauthorized 终止请求并返回 401。
func AbortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, envelope{Error: "unauthorized"})
}

func Unauthorized(c *gin.Context)                { Error(c, http.StatusUnauthorized, "unauthorized") }
func BadRequest(c *gin.Context, msg string)      { Error(c, http.StatusBadRequest, msg) }
func Forbidden(c *gin.Context, msg string)       { Error(c, http.StatusForbidden, msg) }
func NotFound(c *gin.Context, msg string)        { Error(c, http.StatusNotFound, msg) }
func Conflict(c *gin.Context, msg string)        { Error(c, http.StatusConflict, msg) }
func TooManyRequests(c *gin.Context, msg string) { Error(c, http.StatusTooManyRequests, msg) }
func Internal(c *gin.Context, msg string)        { Error(c, http.StatusInternalServerError, msg) }

// storeError 按存储错误分类返回 404/409/500。
func storeError(c *gin.Context, err error, notFoundMsg, conflictMsg string) {
	switch storeerr.Classify(err) {
	case storeerr.KindNotFound:
		NotFound(c, notFoundMsg)
	case storeerr.KindDuplicate:
		Conflict(c, conflictMsg)
	default:
		Internal(c, "internal error")
	}
}
