package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepshegane1/localtask-sub000/internal/geo"
	"github.com/sandeepshegane1/localtask-sub000/internal/metrics"
	"github.com/sandeepshegane1/localtask-sub000/internal/model"
	"github.com/sandeepshegane1/localtask-sub000/internal/repository"
	"github.com/sandeepshegane1/localtask-sub000/internal/statemachine"
	"github.com/sirupsen/logrus"
)

// TaskService 任务服务接口
// 任务状态只通过这里(以及 DispatchService.Accept)变更,
// 所有迁移都以有条件更新落到存储层,不做读-改-写
type TaskService interface {
	Create(ctx context.Context, clientID string, req *CreateTaskRequest) (*model.TaskModel, error)
	Get(id string) (*model.TaskModel, error)
	ListForClient(clientID string) ([]*model.TaskModel, error)
	ListForProvider(providerID string, q *ProviderTaskQuery) ([]*model.TaskModel, error)
	Update(ctx context.Context, actorID, id string, req *UpdateTaskRequest) (*model.TaskModel, error)
	Reject(ctx context.Context, actorID, id string) (*model.TaskModel, error)
	Start(ctx context.Context, actorID, id string) (*model.TaskModel, error)
	Cancel(ctx context.Context, actorID, id string) (*model.TaskModel, error)
	Delete(ctx context.Context, actorID, id string) error
}

// CreateTaskRequest 创建任务请求
// @Description 创建任务的请求参数
type CreateTaskRequest struct {
	Title          string    `json:"title" binding:"required" example:"Fix kitchen sink"` // 标题
	Description    string    `json:"description" example:"Leaking pipe under the sink"`   // 描述
	Budget         float64   `json:"budget" example:"500"`                                // 预算,必须非负
	Category       string    `json:"category" binding:"required" example:"PLUMBING"`      // 能力标签
	Location       geo.Point `json:"location" binding:"required"`                         // 任务地点
	TargetProvider string    `json:"targetProvider,omitempty" example:"user-002"`         // 定向服务者(可选)
}

// UpdateTaskRequest 编辑任务请求,仅 open 且未认领的任务可编辑
// @Description 编辑任务的请求参数,未提供的字段不变
type UpdateTaskRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Budget      *float64 `json:"budget"`
	Category    *string  `json:"category"`
}

// ProviderTaskQuery 服务者任务列表查询条件
type ProviderTaskQuery struct {
	Status   *model.TaskStatus
	Location *geo.Point
}

// taskService 任务服务实现
type taskService struct {
	tasks         repository.TaskRepository
	users         repository.UserRepository
	notifications NotificationService
	radiusMeters  float64
	log           *logrus.Logger
}

// NewTaskService 创建任务服务
// radiusMeters 是服务者可见范围(广播半径)
func NewTaskService(tasks repository.TaskRepository, users repository.UserRepository, notifications NotificationService, radiusMeters float64, log *logrus.Logger) TaskService {
	return &taskService{
		tasks:         tasks,
		users:         users,
		notifications: notifications,
		radiusMeters:  radiusMeters,
		log:           log,
	}
}

// buildTask 校验创建请求并构造任务初始模型,
// TaskService 与 DispatchService 的创建路径共用这套校验
func buildTask(users repository.UserRepository, clientID string, req *CreateTaskRequest, quickService bool) (*model.TaskModel, error) {
	if req.Title == "" {
		return nil, validationError("title is required")
	}
	if req.Category == "" {
		return nil, validationError("category is required")
	}
	if req.Budget < 0 {
		return nil, validationError("budget must be non-negative, got %v", req.Budget)
	}
	if err := req.Location.Validate(); err != nil {
		return nil, validationError("%v", err)
	}
	if quickService && req.TargetProvider != "" {
		return nil, validationError("quick-service tasks cannot target a specific provider")
	}
	if req.TargetProvider != "" {
		target, err := users.FindByID(req.TargetProvider)
		if err != nil {
			return nil, validationError("target provider %s does not exist", req.TargetProvider)
		}
		if target.Role != model.RoleProvider {
			return nil, validationError("target user %s is not a provider", req.TargetProvider)
		}
	}

	now := time.Now()
	return &model.TaskModel{
		ID:             uuid.New().String(),
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		Budget:         req.Budget,
		Latitude:       req.Location.Latitude,
		Longitude:      req.Location.Longitude,
		ClientID:       clientID,
		TargetProvider: req.TargetProvider,
		Status:         statemachine.Initial(quickService),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Create 创建普通/定向任务,初始状态 open
func (s *taskService) Create(ctx context.Context, clientID string, req *CreateTaskRequest) (*model.TaskModel, error) {
	task, err := buildTask(s.users, clientID, req, false)
	if err != nil {
		return nil, err
	}

	if err := s.tasks.Save(task); err != nil {
		return nil, storageError(err)
	}

	kind := "standard"
	if task.TargetProvider != "" {
		kind = "directed"
		// 定向请求直接通知目标服务者,失败不回滚任务创建
		if _, err := s.notifications.Broadcast(task, []string{task.TargetProvider}); err != nil {
			s.log.WithField("task_id", task.ID).WithError(err).Warn("failed to notify target provider")
		}
	}
	metrics.RecordTaskCreated(kind)

	return task, nil
}

// Get 获取任务详情
func (s *taskService) Get(id string) (*model.TaskModel, error) {
	task, err := s.tasks.FindByID(id)
	if err != nil {
		return nil, storageError(err)
	}
	return task, nil
}

// ListForClient 客户视角的任务列表
func (s *taskService) ListForClient(clientID string) ([]*model.TaskModel, error) {
	tasks, err := s.tasks.FindByFilter(&repository.TaskFilter{ClientID: &clientID})
	if err != nil {
		return nil, storageError(err)
	}
	return tasks, nil
}

// ListForProvider 服务者视角的任务列表:
// 自己接下的任务,加上附近可抢单且能力匹配的任务
func (s *taskService) ListForProvider(providerID string, q *ProviderTaskQuery) ([]*model.TaskModel, error) {
	if q == nil {
		q = &ProviderTaskQuery{}
	}

	mine, err := s.tasks.FindByFilter(&repository.TaskFilter{
		AssigneeID: &providerID,
		Status:     q.Status,
	})
	if err != nil {
		return nil, storageError(err)
	}

	if q.Status != nil && *q.Status != model.StatusOpen && *q.Status != model.StatusPendingBroadcast {
		return mine, nil
	}

	provider, err := s.users.FindByID(providerID)
	if err != nil {
		return nil, storageError(err)
	}

	point := geo.Point{Latitude: provider.Latitude, Longitude: provider.Longitude}
	if q.Location != nil {
		if err := q.Location.Validate(); err != nil {
			return nil, validationError("%v", err)
		}
		point = *q.Location
	}

	box := geo.BoundingBox(point, s.radiusMeters)
	open, err := s.tasks.FindBroadcastable(box, provider.CapabilityList())
	if err != nil {
		return nil, storageError(err)
	}

	result := mine
	for _, t := range open {
		if t.ClientID == providerID {
			continue
		}
		if t.TargetProvider != "" && t.TargetProvider != providerID {
			continue
		}
		if q.Status != nil && t.Status != *q.Status {
			continue
		}
		d := geo.Haversine(point, geo.Point{Latitude: t.Latitude, Longitude: t.Longitude})
		if d > s.radiusMeters {
			continue
		}
		result = append(result, t)
	}

	return result, nil
}

// Update 编辑任务字段,只有任务归属客户可以编辑 open 且未认领的任务
func (s *taskService) Update(ctx context.Context, actorID, id string, req *UpdateTaskRequest) (*model.TaskModel, error) {
	task, err := s.tasks.FindByID(id)
	if err != nil {
		return nil, storageError(err)
	}
	if task.ClientID != actorID {
		return nil, ErrUnauthorized
	}
	if task.Status != model.StatusOpen || task.AssigneeID != "" {
		return nil, ErrInvalidTransition
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.Title != nil {
		if *req.Title == "" {
			return nil, validationError("title cannot be empty")
		}
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Budget != nil {
		if *req.Budget < 0 {
			return nil, validationError("budget must be non-negative, got %v", *req.Budget)
		}
		updates["budget"] = *req.Budget
	}
	if req.Category != nil {
		if *req.Category == "" {
			return nil, validationError("category cannot be empty")
		}
		updates["category"] = *req.Category
	}

	if err := s.tasks.UpdateFields(id, updates); err != nil {
		return nil, storageError(err)
	}
	return s.Get(id)
}

// Reject 服务者拒单,任务进入终态 rejected。
// 定向任务只有目标服务者可以拒绝
func (s *taskService) Reject(ctx context.Context, actorID, id string) (*model.TaskModel, error) {
	task, err := s.tasks.FindByID(id)
	if err != nil {
		return nil, storageError(err)
	}
	if task.TargetProvider != "" && task.TargetProvider != actorID {
		return nil, ErrUnauthorized
	}

	ok, err := s.tasks.UpdateStatusIf(id, statemachine.AcceptableStates(),
		map[string]interface{}{"assignee_id": ""},
		map[string]interface{}{
			"status":               model.StatusRejected,
			"rejected_by_provider": true,
			"updated_at":           time.Now(),
		})
	if err != nil {
		return nil, storageError(err)
	}
	if !ok {
		return nil, ErrInvalidTransition
	}

	if err := s.notifications.NotifyOutcome(id, task.ClientID, "Your task was declined by the provider: "+task.Title); err != nil {
		s.log.WithField("task_id", id).WithError(err).Warn("failed to notify task rejection")
	}

	return s.Get(id)
}

// Start 接单服务者开始工作,assigned → in_progress
func (s *taskService) Start(ctx context.Context, actorID, id string) (*model.TaskModel, error) {
	ok, err := s.tasks.UpdateStatusIf(id, []model.TaskStatus{model.StatusAssigned},
		map[string]interface{}{"assignee_id": actorID},
		map[string]interface{}{
			"status":     model.StatusInProgress,
			"updated_at": time.Now(),
		})
	if err != nil {
		return nil, storageError(err)
	}
	if !ok {
		return nil, s.explainFailedEdge(id, actorID)
	}
	return s.Get(id)
}

// Cancel 接单服务者退出任务,记录 rejected_by_provider 以便客户区分
func (s *taskService) Cancel(ctx context.Context, actorID, id string) (*model.TaskModel, error) {
	ok, err := s.tasks.UpdateStatusIf(id, statemachine.CompletableStates(),
		map[string]interface{}{"assignee_id": actorID},
		map[string]interface{}{
			"status":               model.StatusCancelled,
			"rejected_by_provider": true,
			"updated_at":           time.Now(),
		})
	if err != nil {
		return nil, storageError(err)
	}
	if !ok {
		return nil, s.explainFailedEdge(id, actorID)
	}

	task, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.notifications.NotifyOutcome(id, task.ClientID, "The assigned provider backed out of your task: "+task.Title); err != nil {
		s.log.WithField("task_id", id).WithError(err).Warn("failed to notify task cancellation")
	}
	return task, nil
}

// Delete 客户删除未认领任务。
// 走 rejected 终态做软删除,保留审计痕迹;已有接单人时一律拒绝
func (s *taskService) Delete(ctx context.Context, actorID, id string) error {
	task, err := s.tasks.FindByID(id)
	if err != nil {
		return storageError(err)
	}
	if task.ClientID != actorID {
		return ErrUnauthorized
	}
	if task.AssigneeID != "" {
		return ErrInvalidTransition
	}

	ok, err := s.tasks.UpdateStatusIf(id, statemachine.AcceptableStates(),
		map[string]interface{}{"assignee_id": ""},
		map[string]interface{}{
			"status":     model.StatusRejected,
			"updated_at": time.Now(),
		})
	if err != nil {
		return storageError(err)
	}
	if !ok {
		return ErrInvalidTransition
	}

	// 撤回还挂着的抢单通知,失败只记日志
	if err := s.notifications.Retract(id); err != nil {
		s.log.WithField("task_id", id).WithError(err).Warn("failed to retract notifications")
	}
	return nil
}

// explainFailedEdge 把条件更新失败翻译成更准确的错误:
// 任务不存在、操作者不是接单人,还是状态图里没有这条边
func (s *taskService) explainFailedEdge(id, actorID string) error {
	task, err := s.tasks.FindByID(id)
	if err != nil {
		return storageError(err)
	}
	if task.AssigneeID != "" && task.AssigneeID != actorID {
		return ErrUnauthorized
	}
	return ErrInvalidTransition
}
