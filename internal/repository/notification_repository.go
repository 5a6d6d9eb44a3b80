package repository

import (
	"github.com/sandeepshegane1/localtask-sub000/internal/model"
	"gorm.io/gorm"
)

// NotificationRepository 通知仓储接口
// 按 task_id 建索引以支持抢单后的批量撤回
type NotificationRepository interface {
	Save(n *model.NotificationModel) error
	SaveBatch(ns []*model.NotificationModel) error
	FindByID(id string) (*model.NotificationModel, error)
	FindByRecipient(recipientID string) ([]*model.NotificationModel, error)
	FindByTask(taskID string) ([]*model.NotificationModel, error)
	FindByTaskAndRecipient(taskID, recipientID string) (*model.NotificationModel, error)
	MarkRead(id, recipientID string) (bool, error)
	DeleteByTaskExcept(taskID, keepRecipientID string) error
	DeleteByTask(taskID string) error
	UpdateContent(id string, kind model.NotificationKind, message string) error
}

// notificationRepository 通知仓储实现
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓储
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Save 保存通知
func (r *notificationRepository) Save(n *model.NotificationModel) error {
	return r.db.Save(n).Error
}

// SaveBatch 批量保存通知
func (r *notificationRepository) SaveBatch(ns []*model.NotificationModel) error {
	if len(ns) == 0 {
		return nil
	}
	return r.db.Create(&ns).Error
}

// FindByID 根据 ID 查找通知
func (r *notificationRepository) FindByID(id string) (*model.NotificationModel, error) {
	var n model.NotificationModel
	if err := r.db.Where("id = ?", id).First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// FindByRecipient 查找收件人的全部通知
func (r *notificationRepository) FindByRecipient(recipientID string) ([]*model.NotificationModel, error) {
	var ns []*model.NotificationModel
	err := r.db.Where("recipient_id = ?", recipientID).Order("created_at DESC").Find(&ns).Error
	return ns, err
}

// FindByTask 查找任务相关的全部通知
func (r *notificationRepository) FindByTask(taskID string) ([]*model.NotificationModel, error) {
	var ns []*model.NotificationModel
	err := r.db.Where("task_id = ?", taskID).Order("created_at DESC").Find(&ns).Error
	return ns, err
}

// FindByTaskAndRecipient 查找指定任务发给指定收件人的通知
func (r *notificationRepository) FindByTaskAndRecipient(taskID, recipientID string) (*model.NotificationModel, error) {
	var n model.NotificationModel
	if err := r.db.Where("task_id = ? AND recipient_id = ?", taskID, recipientID).First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkRead 将通知标记为已读,收件人不匹配时不更新
func (r *notificationRepository) MarkRead(id, recipientID string) (bool, error) {
	res := r.db.Model(&model.NotificationModel{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("read", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteByTaskExcept 删除任务下除 keepRecipientID 外的全部通知(幂等)
func (r *notificationRepository) DeleteByTaskExcept(taskID, keepRecipientID string) error {
	return r.db.Where("task_id = ? AND recipient_id <> ?", taskID, keepRecipientID).
		Delete(&model.NotificationModel{}).Error
}

// DeleteByTask 删除任务下的全部通知(幂等)
func (r *notificationRepository) DeleteByTask(taskID string) error {
	return r.db.Where("task_id = ?", taskID).Delete(&model.NotificationModel{}).Error
}

// UpdateContent 改写通知的类型与文案,并重置为未读
func (r *notificationRepository) UpdateContent(id string, kind model.NotificationKind, message string) error {
	return r.db.Model(&model.NotificationModel{}).Where("id = ?", id).Updates(map[string]interface{}{
		"kind":    kind,
		"message": message,
		"read":    false,
	}).Error
}
