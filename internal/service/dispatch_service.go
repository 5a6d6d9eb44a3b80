package service

import (
	"context"

	"github.com/sandeepshegane1/localtask-sub000/internal/geo"
	"github.com/sandeepshegane1/localtask-sub000/internal/metrics"
	"github.com/sandeepshegane1/localtask-sub000/internal/model"
	"github.com/sandeepshegane1/localtask-sub000/internal/repository"
	"github.com/sandeepshegane1/localtask-sub000/internal/websocket"
	"github.com/sirupsen/logrus"
)

// DispatchService 调度服务接口
// CreateBroadcast 把快速服务任务广播给附近能力匹配的服务者;
// Accept 仲裁抢单: 无论多少服务者同时调用,至多一个成功
type DispatchService interface {
	CreateBroadcast(ctx context.Context, clientID string, req *CreateTaskRequest) (*model.TaskModel, int, error)
	Accept(ctx context.Context, providerID, taskID string) (*model.TaskModel, error)
}

// DispatchConfig 调度参数
type DispatchConfig struct {
	// BroadcastRadiusMeters 广播搜索半径(快速服务任务)
	BroadcastRadiusMeters float64
	// DirectedRadiusMeters 定向协助搜索半径
	DirectedRadiusMeters float64
}

// dispatchService 调度服务实现
type dispatchService struct {
	tasks         repository.TaskRepository
	users         repository.UserRepository
	notifications NotificationService
	hub           *websocket.Hub
	cfg           DispatchConfig
	log           *logrus.Logger
}

// NewDispatchService 创建调度服务
func NewDispatchService(
	tasks repository.TaskRepository,
	users repository.UserRepository,
	notifications NotificationService,
	hub *websocket.Hub,
	cfg DispatchConfig,
	log *logrus.Logger,
) DispatchService {
	return &dispatchService{
		tasks:         tasks,
		users:         users,
		notifications: notifications,
		hub:           hub,
		cfg:           cfg,
		log:           log,
	}
}

// CreateBroadcast 创建快速服务任务并扇出通知。
// 任务持久化成功即算创建成功,地理查询和通知失败只记日志:
// 通知是尽力而为的副作用,外部通知方可自行重试
func (s *dispatchService) CreateBroadcast(ctx context.Context, clientID string, req *CreateTaskRequest) (*model.TaskModel, int, error) {
	task, err := buildTask(s.users, clientID, req, true)
	if err != nil {
		return nil, 0, err
	}

	if err := s.tasks.Save(task); err != nil {
		return nil, 0, storageError(err)
	}
	metrics.RecordTaskCreated("quick_service")

	point := geo.Point{Latitude: task.Latitude, Longitude: task.Longitude}
	hits, err := s.users.FindProvidersNear(point, s.cfg.BroadcastRadiusMeters, task.Category)
	if err != nil {
		s.log.WithField("task_id", task.ID).WithError(err).Warn("eligible provider lookup failed, task stays broadcastable")
		return task, 0, nil
	}

	providerIDs := make([]string, 0, len(hits))
	for _, h := range hits {
		providerIDs = append(providerIDs, h.Provider.ID)
	}

	if _, err := s.notifications.Broadcast(task, providerIDs); err != nil {
		s.log.WithField("task_id", task.ID).WithError(err).Warn("broadcast fan-out failed")
		return task, 0, nil
	}

	if s.hub != nil {
		s.hub.Publish(providerIDs, &websocket.Event{
			Type:     "task_available",
			TaskID:   task.ID,
			Title:    task.Title,
			Category: task.Category,
		})
	}

	return task, len(providerIDs), nil
}

// Accept 抢单。前置条件(任务可接单、无人认领、定向匹配)与状态写入
// 是存储层同一条有条件 UPDATE,输家拿到 ErrAlreadyTaken 而不是笼统错误
func (s *dispatchService) Accept(ctx context.Context, providerID, taskID string) (*model.TaskModel, error) {
	won, err := s.tasks.TryAccept(taskID, providerID)
	if err != nil {
		return nil, storageError(err)
	}

	if !won {
		metrics.RecordAcceptAttempt("lost")
		task, err := s.tasks.FindByID(taskID)
		if err != nil {
			return nil, storageError(err)
		}
		// 定向任务找错人是权限问题,不是输掉竞争
		if task.Acceptable() && task.TargetProvider != "" && task.TargetProvider != providerID {
			return nil, ErrUnauthorized
		}
		return nil, ErrAlreadyTaken
	}

	metrics.RecordAcceptAttempt("won")

	task, err := s.tasks.FindByID(taskID)
	if err != nil {
		return nil, storageError(err)
	}

	// 落定通知: 删除输家的抢单通知,改写赢家的。失败只记日志,可重放
	if err := s.notifications.Resolve(taskID, providerID); err != nil {
		s.log.WithField("task_id", taskID).WithError(err).Warn("failed to resolve broadcast notifications")
	}
	if err := s.notifications.NotifyOutcome(taskID, task.ClientID, "A provider accepted your task: "+task.Title); err != nil {
		s.log.WithField("task_id", taskID).WithError(err).Warn("failed to notify client of acceptance")
	}

	if s.hub != nil {
		s.hub.Publish([]string{task.ClientID, providerID}, &websocket.Event{
			Type:     "task_taken",
			TaskID:   task.ID,
			Title:    task.Title,
			Category: task.Category,
		})
	}

	return task, nil
}
