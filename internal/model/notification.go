package model

import (
	"errors"
	"time"
)

// NotificationKind 通知类型
type NotificationKind string

const (
	// KindTaskAvailable 广播任务可抢单
	KindTaskAvailable NotificationKind = "task_available"
	// KindTaskOutcome 任务结果通知(接单成功、任务被拒等)
	KindTaskOutcome NotificationKind = "task_outcome"
)

// NotificationModel 通知数据模型
// 生命周期: 广播时批量创建,抢单成功后赢家的一条被改写为结果通知,
// 其余同任务通知被批量删除
type NotificationModel struct {
	ID          string           `gorm:"primaryKey;type:varchar(64)" json:"id"`
	RecipientID string           `gorm:"type:varchar(64);not null;index" json:"recipient_id"`
	TaskID      string           `gorm:"type:varchar(64);not null;index" json:"task_id"`
	Kind        NotificationKind `gorm:"type:varchar(32);not null" json:"kind"`
	Message     string           `gorm:"type:text;not null" json:"message"`
	Read        bool             `gorm:"not null;default:false" json:"read"`
	CreatedAt   time.Time        `gorm:"not null;index" json:"created_at"`
}

// TableName 指定表名
func (NotificationModel) TableName() string {
	return "notifications"
}

// Validate 验证通知模型
func (nm *NotificationModel) Validate() error {
	if nm.ID == "" {
		return errors.New("notification ID is required")
	}
	if nm.RecipientID == "" {
		return errors.New("notification recipient ID is required")
	}
	if nm.TaskID == "" {
		return errors.New("notification task ID is required")
	}
	if nm.Kind != KindTaskAvailable && nm.Kind != KindTaskOutcome {
		return errors.New("notification kind is invalid")
	}
	return nil
}
