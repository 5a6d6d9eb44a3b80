package repository_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepshegane1/localtask-sub000/internal/model"
	"github.com/sandeepshegane1/localtask-sub000/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB 创建测试数据库
// 内存 sqlite 的每个连接是独立数据库,并发测试必须收敛到单连接
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&model.UserModel{},
		&model.TaskModel{},
		&model.NotificationModel{},
		&model.CompletionCodeModel{},
	)
	require.NoError(t, err)

	return db
}

// newTestTask 构造一条可抢单任务
func newTestTask(clientID string, status model.TaskStatus) *model.TaskModel {
	now := time.Now()
	return &model.TaskModel{
		ID:        uuid.New().String(),
		Title:     "Fix kitchen sink",
		Category:  "PLUMBING",
		Budget:    500,
		Latitude:  12.97,
		Longitude: 77.59,
		ClientID:  clientID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// newTestProvider 构造一个服务者
func newTestProvider(id string, lat, lng float64, capabilities string) *model.UserModel {
	now := time.Now()
	return &model.UserModel{
		ID:           id,
		Name:         "provider " + id,
		Role:         model.RoleProvider,
		Latitude:     lat,
		Longitude:    lng,
		Capabilities: capabilities,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// seedTask 保存任务并返回
func seedTask(t *testing.T, repo repository.TaskRepository, task *model.TaskModel) *model.TaskModel {
	require.NoError(t, repo.Save(task))
	return task
}
