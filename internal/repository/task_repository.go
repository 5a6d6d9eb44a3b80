package repository

import (
	"github.com/sandeepshegane1/localtask-sub000/internal/geo"
	"github.com/sandeepshegane1/localtask-sub000/internal/model"
	"github.com/sandeepshegane1/localtask-sub000/internal/statemachine"
	"gorm.io/gorm"
)

// TaskRepository 任务仓储接口
// TryAccept 与 UpdateStatusIf 是有条件的原子更新: 更新语句本身携带前置状态,
// 并发竞争由存储层一条 UPDATE 裁决,调用方不做读-改-写
type TaskRepository interface {
	Save(task *model.TaskModel) error
	FindByID(id string) (*model.TaskModel, error)
	FindByFilter(filter *TaskFilter) ([]*model.TaskModel, error)
	FindBroadcastable(box geo.Box, categories []string) ([]*model.TaskModel, error)
	TryAccept(id, providerID string) (bool, error)
	UpdateStatusIf(id string, allowed []model.TaskStatus, conds map[string]interface{}, updates map[string]interface{}) (bool, error)
	UpdateFields(id string, updates map[string]interface{}) error
}

// TaskFilter 任务查询过滤器
type TaskFilter struct {
	ClientID   *string
	AssigneeID *string
	Status     *model.TaskStatus
	Category   *string
}

// taskRepository 任务仓储实现
type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository 创建任务仓储
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

// Save 保存任务
func (r *taskRepository) Save(task *model.TaskModel) error {
	return r.db.Save(task).Error
}

// FindByID 根据 ID 查找任务
func (r *taskRepository) FindByID(id string) (*model.TaskModel, error) {
	var task model.TaskModel
	if err := r.db.Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// FindByFilter 根据过滤器查找任务
func (r *taskRepository) FindByFilter(filter *TaskFilter) ([]*model.TaskModel, error) {
	var tasks []*model.TaskModel
	query := r.db.Model(&model.TaskModel{})

	if filter != nil {
		if filter.ClientID != nil {
			query = query.Where("client_id = ?", *filter.ClientID)
		}
		if filter.AssigneeID != nil {
			query = query.Where("assignee_id = ?", *filter.AssigneeID)
		}
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		if filter.Category != nil {
			query = query.Where("category = ?", *filter.Category)
		}
	}

	err := query.Order("created_at DESC").Find(&tasks).Error
	return tasks, err
}

// FindBroadcastable 查找包围盒内未被认领的可抢单任务
// 精确的球面距离过滤由调用方完成,这里只做坐标范围预筛选
func (r *taskRepository) FindBroadcastable(box geo.Box, categories []string) ([]*model.TaskModel, error) {
	var tasks []*model.TaskModel
	query := r.db.Model(&model.TaskModel{}).
		Where("status IN ?", statemachine.AcceptableStates()).
		Where("(assignee_id IS NULL OR assignee_id = '')").
		Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat).
		Where("longitude BETWEEN ? AND ?", box.MinLng, box.MaxLng)

	if len(categories) > 0 {
		query = query.Where("category IN ?", categories)
	}

	err := query.Order("created_at DESC").Find(&tasks).Error
	return tasks, err
}

// TryAccept 原子抢单
// 一条有条件的 UPDATE 同时校验: 任务可接单、尚无接单人、定向任务匹配调用方。
// 写入时前置条件不再成立则 RowsAffected 为 0,赢家至多一个
func (r *taskRepository) TryAccept(id, providerID string) (bool, error) {
	res := r.db.Model(&model.TaskModel{}).
		Where("id = ?", id).
		Where("status IN ?", statemachine.AcceptableStates()).
		Where("(assignee_id IS NULL OR assignee_id = '')").
		Where("(target_provider IS NULL OR target_provider = '' OR target_provider = ?)", providerID).
		Updates(map[string]interface{}{
			"status":      model.StatusAssigned,
			"assignee_id": providerID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateStatusIf 有条件的状态更新: 当前状态属于 allowed 且附加等值条件
// conds 全部成立时才应用 updates,返回是否真的更新了行
func (r *taskRepository) UpdateStatusIf(id string, allowed []model.TaskStatus, conds map[string]interface{}, updates map[string]interface{}) (bool, error) {
	query := r.db.Model(&model.TaskModel{}).
		Where("id = ?", id).
		Where("status IN ?", allowed)
	for column, value := range conds {
		query = query.Where(column+" = ?", value)
	}
	res := query.Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateFields 更新任务字段(无状态前置条件,调用方自行校验)
func (r *taskRepository) UpdateFields(id string, updates map[string]interface{}) error {
	return r.db.Model(&model.TaskModel{}).Where("id = ?", id).Updates(updates).Error
}
