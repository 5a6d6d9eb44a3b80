package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sandeepshegane1/localtask-sub000/internal/auth"
	"github.com/sandeepshegane1/localtask-sub000/internal/service"
)

// NotificationController 通知控制器
type NotificationController struct {
	notificationService service.NotificationService
}

// NewNotificationController 创建通知控制器
func NewNotificationController(notificationService service.NotificationService) *NotificationController {
	return &NotificationController{notificationService: notificationService}
}

// List 通知列表
// @Summary      通知列表
// @Description  列出当前用户收到的全部通知,按时间倒序
// @Tags         通知
// @Produce      json
// @Success      200  {object}  Response
// @Failure      401  {object}  ErrorResponse
// @Router       /notifications [get]
// @Security     BearerAuth
func (c *NotificationController) List(ctx *gin.Context) {
	notifications, err := c.notificationService.ListForRecipient(auth.UserID(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, notifications)
}

// MarkRead 标记已读
// @Summary      标记通知已读
// @Description  把指定通知标记为已读,只能操作自己的通知
// @Tags         通知
// @Produce      json
// @Param        id path string true "通知 ID"
// @Success      200  {object}  Response
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /notifications/{id}/read [patch]
// @Security     BearerAuth
func (c *NotificationController) MarkRead(ctx *gin.Context) {
	if err := c.notificationService.MarkRead(auth.UserID(ctx), ctx.Param("id")); err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, nil)
}
