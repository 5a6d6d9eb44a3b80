package model

import (
	"errors"
	"time"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	// StatusPendingBroadcast 快速服务任务创建后等待服务者抢单
	StatusPendingBroadcast TaskStatus = "pending_broadcast"
	// StatusOpen 普通任务/定向任务的初始状态
	StatusOpen TaskStatus = "open"
	// StatusAssigned 已有服务者接单
	StatusAssigned TaskStatus = "assigned"
	// StatusInProgress 服务者已开始工作
	StatusInProgress TaskStatus = "in_progress"
	// StatusCompleted 完成码校验通过,终态
	StatusCompleted TaskStatus = "completed"
	// StatusCancelled 接单服务者退出,终态
	StatusCancelled TaskStatus = "cancelled"
	// StatusRejected 服务者拒单或客户删除未认领任务,终态
	StatusRejected TaskStatus = "rejected"
)

// TaskModel 任务数据模型
// 不变量: assignee_id 非空 当且仅当 status ∈ {assigned, in_progress, completed}
// (cancelled 保留 assignee_id 以便客户看到是谁退出的)
type TaskModel struct {
	ID                 string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Title              string     `gorm:"type:varchar(255);not null" json:"title"`
	Description        string     `gorm:"type:text" json:"description"`
	Category           string     `gorm:"type:varchar(64);not null;index" json:"category"`
	Budget             float64    `gorm:"not null" json:"budget"`
	Latitude           float64    `gorm:"not null" json:"latitude"`
	Longitude          float64    `gorm:"not null" json:"longitude"`
	ClientID           string     `gorm:"type:varchar(64);not null;index" json:"client_id"`
	AssigneeID         string     `gorm:"type:varchar(64);index" json:"assignee_id,omitempty"`
	TargetProvider     string     `gorm:"type:varchar(64);index" json:"target_provider,omitempty"` // 定向任务只允许该服务者接单
	Status             TaskStatus `gorm:"type:varchar(32);not null;index" json:"status"`
	RejectedByProvider bool       `gorm:"not null;default:false" json:"rejected_by_provider"`
	CreatedAt          time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"not null;index" json:"updated_at"`
}

// TableName 指定表名
func (TaskModel) TableName() string {
	return "tasks"
}

// Validate 验证任务模型
func (tm *TaskModel) Validate() error {
	if tm.ID == "" {
		return errors.New("task ID is required")
	}
	if tm.Title == "" {
		return errors.New("task title is required")
	}
	if tm.Category == "" {
		return errors.New("task category is required")
	}
	if tm.Budget < 0 {
		return errors.New("task budget must be non-negative")
	}
	if tm.ClientID == "" {
		return errors.New("task client ID is required")
	}
	if tm.Status == "" {
		return errors.New("task status is required")
	}
	return nil
}

// Terminal 判断任务是否处于终态
func (tm *TaskModel) Terminal() bool {
	switch tm.Status {
	case StatusCompleted, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// Acceptable 判断任务当前是否可被接单
func (tm *TaskModel) Acceptable() bool {
	return (tm.Status == StatusOpen || tm.Status == StatusPendingBroadcast) && tm.AssigneeID == ""
}
