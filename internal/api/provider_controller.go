package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sandeepshegane1/localtask-sub000/internal/auth"
	"github.com/sandeepshegane1/localtask-sub000/internal/service"
)

// ProviderController 服务者控制器
type ProviderController struct {
	providerService service.ProviderService
}

// NewProviderController 创建服务者控制器
func NewProviderController(providerService service.ProviderService) *ProviderController {
	return &ProviderController{providerService: providerService}
}

// UpdateLocation 更新位置与能力标签
// @Summary      更新位置与能力标签
// @Description  服务者上报当前位置与能力标签,影响后续广播任务的可见性
// @Tags         服务者
// @Accept       json
// @Produce      json
// @Param        request body service.UpdateLocationRequest true "位置与能力标签"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /providers/location [put]
// @Security     BearerAuth
func (c *ProviderController) UpdateLocation(ctx *gin.Context) {
	var req service.UpdateLocationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	user, err := c.providerService.UpdateLocation(ctx.Request.Context(), auth.UserID(ctx), &req)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, user)
}
