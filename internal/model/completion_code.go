package model

import (
	"errors"
	"time"
)

// CompletionCodeModel 完成码数据模型
// 明文只在签发时交给外部通知方,库中仅存 bcrypt 哈希;
// 重新签发会删除同任务的旧码,因此每个任务至多一条有效记录
type CompletionCodeModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	TaskID    string    `gorm:"type:varchar(64);not null;index" json:"task_id"`
	CodeHash  string    `gorm:"type:varchar(128);not null" json:"-"`
	Consumed  bool      `gorm:"not null;default:false" json:"consumed"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
}

// TableName 指定表名
func (CompletionCodeModel) TableName() string {
	return "completion_codes"
}

// Validate 验证完成码模型
func (cm *CompletionCodeModel) Validate() error {
	if cm.ID == "" {
		return errors.New("completion code ID is required")
	}
	if cm.TaskID == "" {
		return errors.New("completion code task ID is required")
	}
	if cm.CodeHash == "" {
		return errors.New("completion code hash is required")
	}
	if cm.ExpiresAt.IsZero() {
		return errors.New("completion code expiry is required")
	}
	return nil
}

// ExpiredAt 判断完成码在指定时刻是否已过期
func (cm *CompletionCodeModel) ExpiredAt(now time.Time) bool {
	return now.After(cm.ExpiresAt)
}
