package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepshegane1/localtask-sub000/internal/metrics"
	"github.com/sandeepshegane1/localtask-sub000/internal/model"
	"github.com/sandeepshegane1/localtask-sub000/internal/notifier"
	"github.com/sandeepshegane1/localtask-sub000/internal/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// NotificationService 通知服务接口
// Broadcast/Resolve 是两阶段设计: 先批量写入,抢单后批量撤回。
// 两阶段刻意不与抢单放在同一事务里,通知本就是尽力而为的副作用
type NotificationService interface {
	Broadcast(task *model.TaskModel, providerIDs []string) ([]*model.NotificationModel, error)
	Resolve(taskID, winnerID string) error
	NotifyOutcome(taskID, recipientID, message string) error
	Retract(taskID string) error
	ListForRecipient(recipientID string) ([]*model.NotificationModel, error)
	MarkRead(recipientID, notificationID string) error
}

// notificationService 通知服务实现
type notificationService struct {
	repo     repository.NotificationRepository
	notifier notifier.Notifier
	log      *logrus.Logger
}

// NewNotificationService 创建通知服务
func NewNotificationService(repo repository.NotificationRepository, n notifier.Notifier, log *logrus.Logger) NotificationService {
	return &notificationService{
		repo:     repo,
		notifier: n,
		log:      log,
	}
}

// Broadcast 为每个符合条件的服务者创建一条抢单通知
func (s *notificationService) Broadcast(task *model.TaskModel, providerIDs []string) ([]*model.NotificationModel, error) {
	if len(providerIDs) == 0 {
		return nil, nil
	}

	message := fmt.Sprintf("New task available near you: %s (%s)", task.Title, task.Category)
	now := time.Now()

	ns := make([]*model.NotificationModel, 0, len(providerIDs))
	for _, pid := range providerIDs {
		ns = append(ns, &model.NotificationModel{
			ID:          uuid.New().String(),
			RecipientID: pid,
			TaskID:      task.ID,
			Kind:        model.KindTaskAvailable,
			Message:     message,
			CreatedAt:   now,
		})
	}

	if err := s.repo.SaveBatch(ns); err != nil {
		return nil, storageError(err)
	}

	metrics.RecordFanout(len(ns))

	// 外部投递逐条入队,投递失败不影响已写入的通知记录
	for _, n := range ns {
		s.deliver(n)
	}

	return ns, nil
}

// Resolve 抢单落定: 删除输家的抢单通知,改写赢家的为结果通知。
// 重复调用得到同一终局,可与后续抢单尝试并发执行
func (s *notificationService) Resolve(taskID, winnerID string) error {
	if err := s.repo.DeleteByTaskExcept(taskID, winnerID); err != nil {
		return storageError(err)
	}

	message := "You won the task. Contact the client to get started."
	winner, err := s.repo.FindByTaskAndRecipient(taskID, winnerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 定向任务没有广播通知,直接补一条结果通知
		return s.NotifyOutcome(taskID, winnerID, message)
	}
	if err != nil {
		return storageError(err)
	}

	if winner.Kind == model.KindTaskOutcome {
		// 已经落定过,保持幂等
		return nil
	}
	if err := s.repo.UpdateContent(winner.ID, model.KindTaskOutcome, message); err != nil {
		return storageError(err)
	}
	return nil
}

// NotifyOutcome 发送单条结果通知(如"任务已被服务者拒绝"发给客户)
func (s *notificationService) NotifyOutcome(taskID, recipientID, message string) error {
	n := &model.NotificationModel{
		ID:          uuid.New().String(),
		RecipientID: recipientID,
		TaskID:      taskID,
		Kind:        model.KindTaskOutcome,
		Message:     message,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.Save(n); err != nil {
		return storageError(err)
	}
	s.deliver(n)
	return nil
}

// Retract 撤回任务的全部通知(客户删除未认领任务时使用,幂等)
func (s *notificationService) Retract(taskID string) error {
	if err := s.repo.DeleteByTask(taskID); err != nil {
		return storageError(err)
	}
	return nil
}

// ListForRecipient 查询收件人的通知列表
func (s *notificationService) ListForRecipient(recipientID string) ([]*model.NotificationModel, error) {
	ns, err := s.repo.FindByRecipient(recipientID)
	if err != nil {
		return nil, storageError(err)
	}
	return ns, nil
}

// MarkRead 标记通知已读,只有收件人本人可以操作
func (s *notificationService) MarkRead(recipientID, notificationID string) error {
	ok, err := s.repo.MarkRead(notificationID, recipientID)
	if err != nil {
		return storageError(err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// deliver 把通知交给外部通知方投递
func (s *notificationService) deliver(n *model.NotificationModel) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(&notifier.Message{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		TaskID:      n.TaskID,
		Kind:        string(n.Kind),
		Body:        n.Message,
		CreatedAt:   n.CreatedAt,
	})
}
