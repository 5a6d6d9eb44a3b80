package repository

import (
	"time"

	"github.com/sandeepshegane1/localtask-sub000/internal/model"
	"gorm.io/gorm"
)

// CompletionCodeRepository 完成码仓储接口
// Replace 在一个事务里"删旧插新",保证每个任务至多一条有效完成码;
// Consume 是有条件更新,同一完成码只会被消费一次
type CompletionCodeRepository interface {
	Replace(code *model.CompletionCodeModel) error
	FindByTask(taskID string) (*model.CompletionCodeModel, error)
	Consume(id string) (bool, error)
	DeleteByTask(taskID string) error
	DeleteExpired(before time.Time) (int64, error)
}

// completionCodeRepository 完成码仓储实现
type completionCodeRepository struct {
	db *gorm.DB
}

// NewCompletionCodeRepository 创建完成码仓储
func NewCompletionCodeRepository(db *gorm.DB) CompletionCodeRepository {
	return &completionCodeRepository{db: db}
}

// Replace 原子替换任务的完成码: 删除同任务旧码并写入新码
func (r *completionCodeRepository) Replace(code *model.CompletionCodeModel) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", code.TaskID).Delete(&model.CompletionCodeModel{}).Error; err != nil {
			return err
		}
		return tx.Create(code).Error
	})
}

// FindByTask 查找任务当前的完成码
func (r *completionCodeRepository) FindByTask(taskID string) (*model.CompletionCodeModel, error) {
	var code model.CompletionCodeModel
	if err := r.db.Where("task_id = ?", taskID).First(&code).Error; err != nil {
		return nil, err
	}
	return &code, nil
}

// Consume 消费完成码,已消费过则返回 false
func (r *completionCodeRepository) Consume(id string) (bool, error) {
	res := r.db.Model(&model.CompletionCodeModel{}).
		Where("id = ? AND consumed = ?", id, false).
		Update("consumed", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteByTask 删除任务的完成码
func (r *completionCodeRepository) DeleteByTask(taskID string) error {
	return r.db.Where("task_id = ?", taskID).Delete(&model.CompletionCodeModel{}).Error
}

// DeleteExpired 清理过期完成码,返回删除条数。
// 仅是存储卫生,校验路径自行检查过期,不依赖该清理的及时性
func (r *completionCodeRepository) DeleteExpired(before time.Time) (int64, error) {
	res := r.db.Where("expires_at < ?", before).Delete(&model.CompletionCodeModel{})
	return res.RowsAffected, res.Error
}
