package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepshegane1/localtask-sub000/internal/metrics"
	"github.com/sandeepshegane1/localtask-sub000/internal/model"
	"github.com/sandeepshegane1/localtask-sub000/internal/notifier"
	"github.com/sandeepshegane1/localtask-sub000/internal/repository"
	"github.com/sandeepshegane1/localtask-sub000/internal/statemachine"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CodeTTL 完成码有效期
const CodeTTL = 5 * time.Minute

// CompletionService 完成验证服务接口
// 完成码把"任务完成"绑定到客户的当面确认上:
// 接单服务者申请,客户收码,服务者回填,校验通过才进入 completed
type CompletionService interface {
	RequestCode(ctx context.Context, requesterID, taskID string) error
	Verify(ctx context.Context, requesterID, taskID, code string) (*model.TaskModel, error)
}

// completionService 完成验证服务实现
type completionService struct {
	tasks    repository.TaskRepository
	codes    repository.CompletionCodeRepository
	notifier notifier.Notifier
	now      func() time.Time
	log      *logrus.Logger
}

// NewCompletionService 创建完成验证服务
func NewCompletionService(tasks repository.TaskRepository, codes repository.CompletionCodeRepository, n notifier.Notifier, log *logrus.Logger) CompletionService {
	return &completionService{
		tasks:    tasks,
		codes:    codes,
		notifier: n,
		now:      time.Now,
		log:      log,
	}
}

// authorize 完成码操作的共同前置检查:
// 任务存在、requester 是接单服务者、任务处于可完成状态
func (s *completionService) authorize(requesterID, taskID string) (*model.TaskModel, error) {
	task, err := s.tasks.FindByID(taskID)
	if err != nil {
		return nil, storageError(err)
	}
	if task.AssigneeID != requesterID {
		return nil, ErrUnauthorized
	}
	completable := false
	for _, st := range statemachine.CompletableStates() {
		if task.Status == st {
			completable = true
			break
		}
	}
	if !completable {
		return nil, ErrInvalidTransition
	}
	return task, nil
}

// RequestCode 签发 6 位数字完成码。
// 重新申请会删除旧码(同一事务内删旧插新),任何时刻每任务至多一个有效码;
// 明文只交给外部通知方发给客户,库里只存 bcrypt 哈希
func (s *completionService) RequestCode(ctx context.Context, requesterID, taskID string) error {
	task, err := s.authorize(requesterID, taskID)
	if err != nil {
		return err
	}

	plain, err := generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate completion code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash completion code: %w", err)
	}

	now := s.now()
	code := &model.CompletionCodeModel{
		ID:        uuid.New().String(),
		TaskID:    taskID,
		CodeHash:  string(hash),
		CreatedAt: now,
		ExpiresAt: now.Add(CodeTTL),
	}
	if err := s.codes.Replace(code); err != nil {
		return storageError(err)
	}

	metrics.RecordCompletionCode("issued")

	if s.notifier != nil {
		s.notifier.Notify(&notifier.Message{
			ID:          uuid.New().String(),
			RecipientID: task.ClientID,
			TaskID:      taskID,
			Kind:        "completion_code",
			Body:        fmt.Sprintf("Your completion code for task %q is %s. It expires in 5 minutes.", task.Title, plain),
			CreatedAt:   now,
		})
	}

	return nil
}

// Verify 校验完成码并把任务置为 completed。
// 码是一次性的: Consume 是有条件更新,重复校验同一个码必然失败;
// 过期判断在校验时惰性进行,不依赖后台清理
func (s *completionService) Verify(ctx context.Context, requesterID, taskID, code string) (*model.TaskModel, error) {
	if _, err := s.authorize(requesterID, taskID); err != nil {
		return nil, err
	}

	stored, err := s.codes.FindByTask(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.RecordCompletionCode("rejected")
			return nil, ErrInvalidCode
		}
		return nil, storageError(err)
	}

	if stored.ExpiredAt(s.now()) {
		metrics.RecordCompletionCode("expired")
		return nil, ErrCodeExpired
	}
	if stored.Consumed {
		metrics.RecordCompletionCode("rejected")
		return nil, ErrInvalidCode
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.CodeHash), []byte(code)) != nil {
		metrics.RecordCompletionCode("rejected")
		return nil, ErrInvalidCode
	}

	// 有条件消费: 两个并发 Verify 只有一个能消费成功
	consumed, err := s.codes.Consume(stored.ID)
	if err != nil {
		return nil, storageError(err)
	}
	if !consumed {
		metrics.RecordCompletionCode("rejected")
		return nil, ErrInvalidCode
	}

	ok, err := s.tasks.UpdateStatusIf(taskID, statemachine.CompletableStates(),
		map[string]interface{}{"assignee_id": requesterID},
		map[string]interface{}{
			"status":     model.StatusCompleted,
			"updated_at": s.now(),
		})
	if err != nil {
		return nil, storageError(err)
	}
	if !ok {
		return nil, ErrInvalidTransition
	}

	metrics.RecordCompletionCode("verified")

	task, err := s.tasks.FindByID(taskID)
	if err != nil {
		return nil, storageError(err)
	}
	return task, nil
}

// generateCode 生成 6 位数字完成码(密码学随机)
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
