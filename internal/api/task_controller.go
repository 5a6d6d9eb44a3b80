package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sandeepshegane1/localtask-sub000/internal/auth"
	"github.com/sandeepshegane1/localtask-sub000/internal/geo"
	"github.com/sandeepshegane1/localtask-sub000/internal/model"
	"github.com/sandeepshegane1/localtask-sub000/internal/service"
)

// TaskController 任务控制器
type TaskController struct {
	taskService       service.TaskService
	dispatchService   service.DispatchService
	completionService service.CompletionService
}

// NewTaskController 创建任务控制器
func NewTaskController(
	taskService service.TaskService,
	dispatchService service.DispatchService,
	completionService service.CompletionService,
) *TaskController {
	return &TaskController{
		taskService:       taskService,
		dispatchService:   dispatchService,
		completionService: completionService,
	}
}

// QuickServiceResult 快速服务任务创建结果
// @Description 快速服务任务创建结果,包含任务和已通知的服务者数量
type QuickServiceResult struct {
	Task              *model.TaskModel `json:"task"`
	NotifiedProviders int              `json:"notified_providers" example:"3"` // 已通知的服务者数量
}

// VerifyCompletionRequest 核销完成码请求
// @Description 核销完成码的请求参数
type VerifyCompletionRequest struct {
	Code string `json:"code" binding:"required" example:"482913"` // 客户提供的 6 位完成码
}

// Create 创建任务
// @Summary      创建任务
// @Description  客户创建普通任务或定向任务,定向任务需指定 targetProvider
// @Tags         任务管理
// @Accept       json
// @Produce      json
// @Param        request body service.CreateTaskRequest true "任务信息"
// @Success      201  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /tasks [post]
// @Security     BearerAuth
func (c *TaskController) Create(ctx *gin.Context) {
	var req service.CreateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	task, err := c.taskService.Create(ctx.Request.Context(), auth.UserID(ctx), &req)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Created(ctx, task)
}

// CreateQuickService 创建快速服务任务
// @Summary      创建快速服务任务
// @Description  创建广播任务并通知附近能力匹配的服务者
// @Tags         任务管理
// @Accept       json
// @Produce      json
// @Param        request body service.CreateTaskRequest true "任务信息"
// @Success      201  {object}  Response{data=QuickServiceResult}
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /tasks/quick-service [post]
// @Security     BearerAuth
func (c *TaskController) CreateQuickService(ctx *gin.Context) {
	var req service.CreateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	task, notified, err := c.dispatchService.CreateBroadcast(ctx.Request.Context(), auth.UserID(ctx), &req)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Created(ctx, QuickServiceResult{Task: task, NotifiedProviders: notified})
}

// Accept 抢单
// @Summary      抢单
// @Description  服务者认领任务,同一任务至多一个服务者成功
// @Tags         任务管理
// @Accept       json
// @Produce      json
// @Param        id path string true "任务 ID"
// @Success      200  {object}  Response
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /tasks/{id}/accept [patch]
// @Security     BearerAuth
func (c *TaskController) Accept(ctx *gin.Context) {
	task, err := c.dispatchService.Accept(ctx.Request.Context(), auth.UserID(ctx), ctx.Param("id"))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, task)
}

// Reject 拒单
// @Summary      拒单
// @Description  定向任务的目标服务者拒绝任务
// @Tags         任务管理
// @Accept       json
// @Produce      json
// @Param        id path string true "任务 ID"
// @Success      200  {object}  Response
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /tasks/{id}/reject [patch]
// @Security     BearerAuth
func (c *TaskController) Reject(ctx *gin.Context) {
	task, err := c.taskService.Reject(ctx.Request.Context(), auth.UserID(ctx), ctx.Param("id"))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, task)
}

// Start 开工
// @Summary      开工
// @Description  已认领任务的服务者把任务置为进行中
// @Tags         任务管理
// @Accept       json
// @Produce      json
// @Param        id path string true "任务 ID"
// @Success      200  {object}  Response
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /tasks/{id}/start [patch]
// @Security     BearerAuth
func (c *TaskController) Start(ctx *gin.Context) {
	task, err := c.taskService.Start(ctx.Request.Context(), auth.UserID(ctx), ctx.Param("id"))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, task)
}

// Cancel 退单
// @Summary      退单
// @Description  已认领任务的服务者中途退出任务
// @Tags         任务管理
// @Accept       json
// @Produce      json
// @Param        id path string true "任务 ID"
// @Success      200  {object}  Response
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /tasks/{id}/cancel [patch]
// @Security     BearerAuth
func (c *TaskController) Cancel(ctx *gin.Context) {
	task, err := c.taskService.Cancel(ctx.Request.Context(), auth.UserID(ctx), ctx.Param("id"))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, task)
}

// RequestCompletion 申请完成码
// @Summary      申请完成码
// @Description  负责任务的服务者申请 6 位完成码,发给任务客户,5 分钟有效
// @Tags         任务完成
// @Accept       json
// @Produce      json
// @Param        id path string true "任务 ID"
// @Success      200  {object}  Response
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /tasks/{id}/request-completion [post]
// @Security     BearerAuth
func (c *TaskController) RequestCompletion(ctx *gin.Context) {
	if err := c.completionService.RequestCode(ctx.Request.Context(), auth.UserID(ctx), ctx.Param("id")); err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, nil)
}

// VerifyCompletion 核销完成码
// @Summary      核销完成码
// @Description  服务者提交客户给出的完成码,匹配且未过期则任务完成
// @Tags         任务完成
// @Accept       json
// @Produce      json
// @Param        id path string true "任务 ID"
// @Param        request body VerifyCompletionRequest true "完成码"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      410  {object}  ErrorResponse
// @Router       /tasks/{id}/verify-completion [post]
// @Security     BearerAuth
func (c *TaskController) VerifyCompletion(ctx *gin.Context) {
	var req VerifyCompletionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	task, err := c.completionService.Verify(ctx.Request.Context(), auth.UserID(ctx), ctx.Param("id"), req.Code)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, task)
}

// List 客户任务列表
// @Summary      客户任务列表
// @Description  列出当前客户发布的全部任务
// @Tags         任务管理
// @Produce      json
// @Success      200  {object}  Response
// @Failure      401  {object}  ErrorResponse
// @Router       /tasks [get]
// @Security     BearerAuth
func (c *TaskController) List(ctx *gin.Context) {
	tasks, err := c.taskService.ListForClient(auth.UserID(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, tasks)
}

// ListForProvider 服务者任务列表
// @Summary      服务者任务列表
// @Description  列出服务者自己的任务和附近可抢的广播任务
// @Tags         任务管理
// @Produce      json
// @Param        status query string false "状态过滤"
// @Param        lat    query number false "当前纬度"
// @Param        lng    query number false "当前经度"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /tasks/provider [get]
// @Security     BearerAuth
func (c *TaskController) ListForProvider(ctx *gin.Context) {
	q := &service.ProviderTaskQuery{}

	if s := ctx.Query("status"); s != "" {
		status := model.TaskStatus(s)
		q.Status = &status
	}

	latStr, lngStr := ctx.Query("lat"), ctx.Query("lng")
	if latStr != "" && lngStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			Error(ctx, http.StatusBadRequest, "invalid request", "lat must be a number")
			return
		}
		lng, err := strconv.ParseFloat(lngStr, 64)
		if err != nil {
			Error(ctx, http.StatusBadRequest, "invalid request", "lng must be a number")
			return
		}
		q.Location = &geo.Point{Latitude: lat, Longitude: lng}
	}

	tasks, err := c.taskService.ListForProvider(auth.UserID(ctx), q)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, tasks)
}

// Get 获取任务
// @Summary      获取任务详情
// @Description  根据 ID 获取任务详情
// @Tags         任务管理
// @Produce      json
// @Param        id path string true "任务 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /tasks/{id} [get]
// @Security     BearerAuth
func (c *TaskController) Get(ctx *gin.Context) {
	task, err := c.taskService.Get(ctx.Param("id"))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, task)
}

// Update 编辑任务
// @Summary      编辑任务
// @Description  客户编辑尚未被认领的任务,未提供的字段不变
// @Tags         任务管理
// @Accept       json
// @Produce      json
// @Param        id path string true "任务 ID"
// @Param        request body service.UpdateTaskRequest true "编辑内容"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /tasks/{id} [patch]
// @Security     BearerAuth
func (c *TaskController) Update(ctx *gin.Context) {
	var req service.UpdateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	task, err := c.taskService.Update(ctx.Request.Context(), auth.UserID(ctx), ctx.Param("id"), &req)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, task)
}

// Delete 删除任务
// @Summary      删除任务
// @Description  客户删除自己尚未被认领的任务,相关广播通知一并撤回
// @Tags         任务管理
// @Produce      json
// @Param        id path string true "任务 ID"
// @Success      200  {object}  Response
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /tasks/{id} [delete]
// @Security     BearerAuth
func (c *TaskController) Delete(ctx *gin.Context) {
	if err := c.taskService.Delete(ctx.Request.Context(), auth.UserID(ctx), ctx.Param("id")); err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, nil)
}
