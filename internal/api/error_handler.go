package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sandeepshegane1/localtask-sub000/internal/service"
)

// RespondError 把服务层错误映射为 HTTP 状态码并写出错误响应。
// 映射关系固定,控制器不自行挑选状态码
func RespondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		Error(c, http.StatusBadRequest, "invalid request", err.Error())
	case errors.Is(err, service.ErrNotFound):
		Error(c, http.StatusNotFound, "resource not found", err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		Error(c, http.StatusForbidden, "operation not permitted", err.Error())
	case errors.Is(err, service.ErrAlreadyTaken):
		Error(c, http.StatusConflict, "task already taken", err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		Error(c, http.StatusConflict, "invalid status transition", err.Error())
	case errors.Is(err, service.ErrInvalidCode):
		Error(c, http.StatusBadRequest, "invalid completion code", err.Error())
	case errors.Is(err, service.ErrCodeExpired):
		Error(c, http.StatusGone, "completion code expired", err.Error())
	case errors.Is(err, service.ErrStorageUnavailable):
		Error(c, http.StatusServiceUnavailable, "storage unavailable", err.Error())
	default:
		Error(c, http.StatusInternalServerError, "internal server error", err.Error())
	}
}
